package meal

import (
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
)

// Filter 可选过滤条件，未设置的条件不做约束，其余按 AND 组合。
// 只有 StartDate 和 EndDate 同时设置时才按日期区间取数，否则取今天。
type Filter struct {
	StartDate   *civil.Date
	EndDate     *civil.Date
	DiningTime  *DiningTime
	Place       string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	MinCalories *int
	MaxCalories *int
	MenuKeyword string
}

func (f Filter) HasDateRange() bool { return f.StartDate != nil && f.EndDate != nil }

// Match 依次检查：时段、地点、价格、热量、菜单关键字
func (f Filter) Match(m Meal) bool {
	if f.DiningTime != nil && m.diningTime != *f.DiningTime {
		return false
	}
	if p := strings.TrimSpace(f.Place); p != "" && !containsFold(m.place, p) {
		return false
	}
	// 价格只比较数值，默认同一币种
	amount := m.price.Amount()
	if f.MinPrice != nil && amount.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && amount.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinCalories != nil && m.calories.value < *f.MinCalories {
		return false
	}
	if f.MaxCalories != nil && m.calories.value > *f.MaxCalories {
		return false
	}
	if k := strings.TrimSpace(f.MenuKeyword); k != "" && !m.menu.ContainsKeyword(k) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func filterMeals(meals []Meal, keep func(Meal) bool) []Meal {
	out := make([]Meal, 0, len(meals))
	for _, m := range meals {
		if keep(m) {
			out = append(out, m)
		}
	}
	return out
}
