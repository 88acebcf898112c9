// Package user 用户身份上下文：User 聚合、端口与领域服务。
package user

import (
	"strconv"
	"strings"
	"time"

	"kapp-api/internal/domain"
)

// ID 用户标识，零值表示尚未持久化
type ID struct {
	value int64
}

func NewID(v int64) (ID, error) {
	if v <= 0 {
		return ID{}, domain.Errorf(domain.ErrNonPositiveID, "user id %d", v)
	}
	return ID{value: v}, nil
}

func (id ID) Value() int64   { return id.value }
func (id ID) IsZero() bool   { return id.value == 0 }
func (id ID) String() string { return strconv.FormatInt(id.value, 10) }

// HashedPassword 不透明的密码哈希
type HashedPassword struct {
	value string
}

func NewHashedPassword(hash string) (HashedPassword, error) {
	if strings.TrimSpace(hash) == "" {
		return HashedPassword{}, domain.ErrBlankHashedPassword
	}
	return HashedPassword{value: hash}, nil
}

func (p HashedPassword) Value() string { return p.value }

// 避免被日志意外打印
func (p HashedPassword) String() string { return "********" }

// User 聚合根。所有变更都返回新值，原值不变。
type User struct {
	id                ID
	email             domain.Email
	password          HashedPassword
	name              string
	studentEmployeeID string
	createdAt         time.Time
	updatedAt         time.Time
}

// New 工厂：新用户没有 id，由仓储在保存时分配
func New(email domain.Email, password HashedPassword, name, studentEmployeeID string, now time.Time) (User, error) {
	u := User{
		email:             email,
		password:          password,
		name:              name,
		studentEmployeeID: studentEmployeeID,
		createdAt:         now,
		updatedAt:         now,
	}
	if err := u.validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

// Restore 从存储行重建，重新检查不变量
func Restore(id ID, email domain.Email, password HashedPassword, name, studentEmployeeID string, createdAt, updatedAt time.Time) (User, error) {
	if id.IsZero() {
		return User{}, domain.Errorf(domain.ErrNonPositiveID, "restored user without id")
	}
	u := User{
		id:                id,
		email:             email,
		password:          password,
		name:              name,
		studentEmployeeID: studentEmployeeID,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
	if err := u.validate(); err != nil {
		return User{}, err
	}
	return u, nil
}

func (u User) validate() error {
	if u.email.IsZero() {
		return domain.ErrInvalidEmailFormat
	}
	if u.password.value == "" {
		return domain.ErrBlankHashedPassword
	}
	if strings.TrimSpace(u.name) == "" {
		return domain.ErrBlankName
	}
	if strings.TrimSpace(u.studentEmployeeID) == "" {
		return domain.ErrBlankIdentifier
	}
	return nil
}

func (u User) ID() ID                   { return u.id }
func (u User) IsNew() bool              { return u.id.IsZero() }
func (u User) Email() domain.Email      { return u.email }
func (u User) Password() HashedPassword { return u.password }
func (u User) Name() string             { return u.name }
func (u User) StudentEmployeeID() string {
	return u.studentEmployeeID
}
func (u User) CreatedAt() time.Time { return u.createdAt }
func (u User) UpdatedAt() time.Time { return u.updatedAt }

// IsActive 目前所有账号都处于激活状态
func (u User) IsActive() bool { return true }

// WithID 持久化层分配 id 后使用
func (u User) WithID(id ID) User {
	u.id = id
	return u
}

func (u User) UpdateName(newName string, now time.Time) (User, error) {
	if strings.TrimSpace(newName) == "" {
		return User{}, domain.ErrBlankName
	}
	u.name = newName
	u.updatedAt = now
	return u, nil
}

func (u User) UpdatePassword(newPassword HashedPassword, now time.Time) (User, error) {
	if newPassword.value == "" {
		return User{}, domain.ErrBlankHashedPassword
	}
	u.password = newPassword
	u.updatedAt = now
	return u, nil
}
