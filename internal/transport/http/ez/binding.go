package ez

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"kapp-api/internal/domain/meal"
	resp "kapp-api/internal/transport/http/response"
)

var setupOnce sync.Once

// SetupValidator 给 gin 的校验器注册字段名与自定义 tag，进程内只执行一次：
//   - 错误里的字段名取 json / form tag
//   - dining_time：BREAKFAST / LUNCH / DINNER（不区分大小写）
//   - civil_date：YYYY-MM-DD
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(fieldName)
		_ = v.RegisterValidation("dining_time", func(fl validator.FieldLevel) bool {
			_, err := meal.ParseDiningTime(fl.Field().String())
			return err == nil
		})
		_ = v.RegisterValidation("civil_date", func(fl validator.FieldLevel) bool {
			_, err := civil.ParseDate(fl.Field().String())
			return err == nil
		})
	})
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "form", "uri"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// BindMessage 绑定失败时给调用方看的描述
func BindMessage(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		parts := make([]string, 0, len(ve))
		for _, fe := range ve {
			parts = append(parts, describe(fe))
		}
		return strings.Join(parts, "; ")
	}
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return "request body too large"
	}
	return "invalid request: " + err.Error()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min", "max", "gte", "lte":
		return fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param())
	case "dining_time":
		return fe.Field() + " must be one of BREAKFAST, LUNCH, DINNER"
	case "civil_date":
		return fe.Field() + " must be a date in YYYY-MM-DD format"
	default:
		return fmt.Sprintf("%s failed on %s", fe.Field(), fe.Tag())
	}
}

func bindCode(err error) int {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return resp.CodeTooLarge
	}
	return resp.CodeBadRequest
}
