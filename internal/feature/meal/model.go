package meal

import (
	"time"

	"github.com/shopspring/decimal"
)

// MealModel meals 表，(date, dining_time) 上有联合索引
type MealModel struct {
	ID         uint64          `gorm:"primaryKey;autoIncrement"`
	Date       time.Time       `gorm:"type:date;not null;index:idx_meals_date_time,priority:1"`
	DiningTime string          `gorm:"size:16;not null;index:idx_meals_date_time,priority:2"`
	Place      string          `gorm:"size:64;not null"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency   string          `gorm:"size:3;not null;default:KRW"`
	Calories   int             `gorm:"not null"`

	MenuItems []MenuItemModel `gorm:"foreignKey:MealID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (MealModel) TableName() string { return "meals" }

// MenuItemModel 菜单条目，按 Position 还原顺序
type MenuItemModel struct {
	ID       uint64 `gorm:"primaryKey;autoIncrement"`
	MealID   uint64 `gorm:"not null;index"`
	Position int    `gorm:"not null"`
	Name     string `gorm:"size:128;not null"`
}

func (MenuItemModel) TableName() string { return "meal_menu_items" }

// Models 需要迁移的全部模型
func Models() []any { return []any{&MealModel{}, &MenuItemModel{}} }
