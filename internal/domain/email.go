package domain

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})$`)

// Email 邮箱值对象，构造即校验
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	if !emailPattern.MatchString(raw) {
		return Email{}, Errorf(ErrInvalidEmailFormat, "%q", raw)
	}
	return Email{value: raw}, nil
}

// MustEmail 仅用于测试与种子数据
func MustEmail(raw string) Email {
	e, err := NewEmail(raw)
	if err != nil {
		panic(err)
	}
	return e
}

func (e Email) Value() string  { return e.value }
func (e Email) String() string { return e.value }
func (e Email) IsZero() bool   { return e.value == "" }

func (e Email) Equal(other Email) bool { return e.value == other.value }

// Compare 按底层字符串排序
func (e Email) Compare(other Email) int { return strings.Compare(e.value, other.value) }
