package user

import (
	"time"
)

// UserModel users 表；email 唯一索引兜住并发注册
type UserModel struct {
	ID                uint64 `gorm:"primaryKey;autoIncrement"`
	Email             string `gorm:"uniqueIndex;size:255;not null"`
	Name              string `gorm:"size:64;not null"`
	PasswordHash      string `gorm:"size:100;not null"`
	StudentEmployeeID string `gorm:"size:32;not null;index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (UserModel) TableName() string { return "users" }

func Models() []any { return []any{&UserModel{}} }
