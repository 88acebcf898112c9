// Package domain 共享内核：值对象、时钟端口、分页以及封闭的领域错误类型。
package domain

import (
	"errors"
	"fmt"
)

// Kind 领域错误大类（封闭集合，调用方可以穷举 switch）
type Kind uint8

const (
	KindValidation Kind = iota + 1
	KindDuplicateEmail
	KindInvalidCredentials
	KindUserNotFound
	KindMealNotFound
	KindMealFilter
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindDuplicateEmail:
		return "duplicate_email"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindUserNotFound:
		return "user_not_found"
	case KindMealNotFound:
		return "meal_not_found"
	case KindMealFilter:
		return "meal_filter"
	default:
		return "unknown"
	}
}

// Code 校验错误的子类
type Code string

const (
	CodeInvalidEmailFormat  Code = "invalid_email_format"
	CodeNegativeAmount      Code = "negative_amount"
	CodeEmptyCurrency       Code = "empty_currency"
	CodeCurrencyMismatch    Code = "currency_mismatch"
	CodeOutOfRangeCalories  Code = "out_of_range_calories"
	CodeEmptyMenu           Code = "empty_menu"
	CodeBlankMenuItem       Code = "blank_menu_item"
	CodeBlankName           Code = "blank_name"
	CodeBlankIdentifier     Code = "blank_identifier"
	CodeBlankHashedPassword Code = "blank_hashed_password"
	CodeNonPositiveID       Code = "non_positive_id"
	CodeFutureDateTooFar    Code = "future_date_too_far"
	CodeBlankPlace          Code = "blank_place"
	CodeInvalidDiningTime   Code = "invalid_dining_time"
	CodeInvalidPage         Code = "invalid_page"
	CodeInvalidPageSize     Code = "invalid_page_size"
	CodeDateRangeTooWide    Code = "date_range_too_wide"
)

// Error 领域错误：kind + 子类 + 描述 + 可选 cause
type Error struct {
	Kind    Kind
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String()
		if e.Code != "" {
			msg = string(e.Code)
		}
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind（以及非空的 Code）匹配，忽略 Message，
// 这样 errors.Is(err, ErrValidation) 能命中所有校验错误。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Code == "" || t.Code == e.Code
}

// 哨兵错误，只用于 errors.Is 比较
var (
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrDuplicateEmail     = &Error{Kind: KindDuplicateEmail, Message: "email already registered"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid email or password"}
	ErrUserNotFound       = &Error{Kind: KindUserNotFound, Message: "user not found"}
	ErrMealNotFound       = &Error{Kind: KindMealNotFound, Message: "meal not found"}
	ErrMealFilter         = &Error{Kind: KindMealFilter, Message: "no meal matches the filter"}

	ErrInvalidEmailFormat  = validation(CodeInvalidEmailFormat, "invalid email format")
	ErrNegativeAmount      = validation(CodeNegativeAmount, "amount must not be negative")
	ErrEmptyCurrency       = validation(CodeEmptyCurrency, "currency must not be blank")
	ErrCurrencyMismatch    = validation(CodeCurrencyMismatch, "currency mismatch")
	ErrOutOfRangeCalories  = validation(CodeOutOfRangeCalories, "calories must be between 0 and 9999")
	ErrEmptyMenu           = validation(CodeEmptyMenu, "menu must have at least one item")
	ErrBlankMenuItem       = validation(CodeBlankMenuItem, "menu item must not be blank")
	ErrBlankName           = validation(CodeBlankName, "name must not be blank")
	ErrBlankIdentifier     = validation(CodeBlankIdentifier, "student/employee id must not be blank")
	ErrBlankHashedPassword = validation(CodeBlankHashedPassword, "hashed password must not be blank")
	ErrNonPositiveID       = validation(CodeNonPositiveID, "id must be greater than 0")
	ErrFutureDateTooFar    = validation(CodeFutureDateTooFar, "meal date must be within 7 days from today")
	ErrBlankPlace          = validation(CodeBlankPlace, "place must not be blank")
	ErrInvalidDiningTime   = validation(CodeInvalidDiningTime, "invalid dining time")
	ErrInvalidPage         = validation(CodeInvalidPage, "page must be >= 0")
	ErrInvalidPageSize     = validation(CodeInvalidPageSize, "page size must be between 1 and 100")
	ErrDateRangeTooWide    = validation(CodeDateRangeTooWide, "date range is too wide")
)

func validation(code Code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// Errorf 以哨兵为模板生成带上下文描述的新错误
func Errorf(tmpl *Error, format string, args ...any) *Error {
	return &Error{
		Kind:    tmpl.Kind,
		Code:    tmpl.Code,
		Message: tmpl.Message + ": " + fmt.Sprintf(format, args...),
	}
}

// Wrap 以哨兵为模板包一层 cause
func Wrap(tmpl *Error, err error) *Error {
	return &Error{Kind: tmpl.Kind, Code: tmpl.Code, Message: tmpl.Message, Err: err}
}

// KindOf 取出错误链上的领域错误类别，非领域错误返回 0
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
