package response

import (
	"errors"

	"kapp-api/internal/domain"
)

// CodeOf 领域错误类别 → 业务码；非领域错误一律 500
func CodeOf(err error) int {
	var de *domain.Error
	if !errors.As(err, &de) {
		return CodeServerError
	}
	switch de.Kind {
	case domain.KindValidation, domain.KindMealFilter:
		return CodeBadRequest
	case domain.KindInvalidCredentials:
		return CodeUnauthorized
	case domain.KindUserNotFound, domain.KindMealNotFound:
		return CodeNotFound
	case domain.KindDuplicateEmail:
		return CodeConflict
	default:
		return CodeServerError
	}
}

// FromError 领域错误带上描述与子类；其余错误不暴露细节
func FromError(err error) Resp {
	code := CodeOf(err)
	if code == CodeServerError {
		return Error(code, "")
	}
	var de *domain.Error
	errors.As(err, &de)
	r := Error(code, de.Error())
	if de.Code != "" {
		r.Data = map[string]string{"reason": string(de.Code)}
	} else {
		r.Data = map[string]string{"reason": de.Kind.String()}
	}
	return r
}
