// Package meal 食堂餐食上下文：Meal 聚合、过滤/分页引擎与营养汇总。
package meal

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"

	"kapp-api/internal/domain"
)

const (
	// 最多提前 7 天登记
	maxDaysAhead = 7

	highPriceThreshold = 6000
	lowCalorieLimit    = 500
)

// ID 餐食标识，零值表示尚未持久化
type ID struct {
	value int64
}

func NewID(v int64) (ID, error) {
	if v <= 0 {
		return ID{}, domain.Errorf(domain.ErrNonPositiveID, "meal id %d", v)
	}
	return ID{value: v}, nil
}

func (id ID) Value() int64   { return id.value }
func (id ID) IsZero() bool   { return id.value == 0 }
func (id ID) String() string { return strconv.FormatInt(id.value, 10) }

// DiningTime 用餐时段
type DiningTime string

const (
	Breakfast DiningTime = "BREAKFAST"
	Lunch     DiningTime = "LUNCH"
	Dinner    DiningTime = "DINNER"
)

var DiningTimes = []DiningTime{Breakfast, Lunch, Dinner}

// ParseDiningTime 不区分大小写
func ParseDiningTime(s string) (DiningTime, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "breakfast":
		return Breakfast, nil
	case "lunch":
		return Lunch, nil
	case "dinner":
		return Dinner, nil
	}
	return "", domain.Errorf(domain.ErrInvalidDiningTime, "%q", s)
}

func (d DiningTime) Valid() bool {
	return d == Breakfast || d == Lunch || d == Dinner
}

func (d DiningTime) DisplayName() string {
	switch d {
	case Breakfast:
		return "아침"
	case Lunch:
		return "점심"
	case Dinner:
		return "저녁"
	}
	return string(d)
}

// Params 创建/重建 Meal 所需的字段
type Params struct {
	Date       civil.Date
	DiningTime DiningTime
	Place      string
	Price      domain.Money
	Calories   Calories
	Menu       Menu
}

// Meal 聚合根，不可变
type Meal struct {
	id         ID
	date       civil.Date
	diningTime DiningTime
	place      string
	price      domain.Money
	calories   Calories
	menu       Menu
	createdAt  time.Time
	updatedAt  time.Time
}

// New 工厂：只在创建时校验日期不超过今天 + 7 天
func New(clock domain.Clock, p Params) (Meal, error) {
	now := clock.Now()
	limit := civil.DateOf(now).AddDays(maxDaysAhead)
	if p.Date.After(limit) {
		return Meal{}, domain.Errorf(domain.ErrFutureDateTooFar, "%s is after %s", p.Date, limit)
	}
	m, err := build(p)
	if err != nil {
		return Meal{}, err
	}
	m.createdAt, m.updatedAt = now, now
	return m, nil
}

// Restore 从存储重建，不再检查日期
func Restore(id ID, p Params, createdAt, updatedAt time.Time) (Meal, error) {
	if id.IsZero() {
		return Meal{}, domain.Errorf(domain.ErrNonPositiveID, "restored meal without id")
	}
	m, err := build(p)
	if err != nil {
		return Meal{}, err
	}
	m.id = id
	m.createdAt, m.updatedAt = createdAt, updatedAt
	return m, nil
}

func build(p Params) (Meal, error) {
	if strings.TrimSpace(p.Place) == "" {
		return Meal{}, domain.ErrBlankPlace
	}
	if !p.DiningTime.Valid() {
		return Meal{}, domain.Errorf(domain.ErrInvalidDiningTime, "%q", p.DiningTime)
	}
	if !p.Date.IsValid() {
		return Meal{}, domain.Errorf(domain.ErrValidation, "invalid date %s", p.Date)
	}
	if p.Price.Currency() == "" {
		return Meal{}, domain.ErrEmptyCurrency
	}
	if p.Menu.Size() == 0 {
		return Meal{}, domain.ErrEmptyMenu
	}
	return Meal{
		date:       p.Date,
		diningTime: p.DiningTime,
		place:      p.Place,
		price:      p.Price,
		calories:   p.Calories,
		menu:       p.Menu,
	}, nil
}

func (m Meal) ID() ID                 { return m.id }
func (m Meal) IsNew() bool            { return m.id.IsZero() }
func (m Meal) Date() civil.Date       { return m.date }
func (m Meal) DiningTime() DiningTime { return m.diningTime }
func (m Meal) Place() string          { return m.place }
func (m Meal) Price() domain.Money    { return m.price }
func (m Meal) Calories() Calories     { return m.calories }
func (m Meal) Menu() Menu             { return m.menu }
func (m Meal) CreatedAt() time.Time   { return m.createdAt }
func (m Meal) UpdatedAt() time.Time   { return m.updatedAt }

// Params 导出当前字段，便于持久化层映射
func (m Meal) Params() Params {
	return Params{
		Date:       m.date,
		DiningTime: m.diningTime,
		Place:      m.place,
		Price:      m.price,
		Calories:   m.calories,
		Menu:       m.menu,
	}
}

func (m Meal) WithID(id ID) Meal {
	m.id = id
	return m
}

func (m Meal) IsToday(clock domain.Clock) bool { return m.date == domain.Today(clock) }

func (m Meal) IsWeekend() bool {
	wd := m.date.In(time.UTC).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHighPriced 与同币种的 6000 比较
func (m Meal) IsHighPriced() bool {
	threshold, err := domain.NewMoney(decimal.NewFromInt(highPriceThreshold), m.price.Currency())
	if err != nil {
		return false
	}
	gt, err := m.price.GreaterThan(threshold)
	return err == nil && gt
}

// IsLowCalorie 聚合口径（<500），与 Calories.IsLowCalorie 的 <=300 不同
func (m Meal) IsLowCalorie() bool { return m.calories.value < lowCalorieLimit }

func (m Meal) CanBeFavorited() bool { return true }
