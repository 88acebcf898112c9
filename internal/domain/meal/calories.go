package meal

import (
	"strconv"

	"kapp-api/internal/domain"
)

const (
	MaxCalories = 9999

	highCalorieThreshold = 800
	lowCalorieThreshold  = 300
)

// Calories 热量值对象 [0, 9999]
type Calories struct {
	value int
}

func NewCalories(v int) (Calories, error) {
	if v < 0 || v > MaxCalories {
		return Calories{}, domain.Errorf(domain.ErrOutOfRangeCalories, "got %d", v)
	}
	return Calories{value: v}, nil
}

func (c Calories) Value() int { return c.value }

// Add/Subtract 结果重新走构造校验
func (c Calories) Add(other Calories) (Calories, error) { return NewCalories(c.value + other.value) }

func (c Calories) Subtract(other Calories) (Calories, error) {
	return NewCalories(c.value - other.value)
}

func (c Calories) IsHighCalorie() bool { return c.value >= highCalorieThreshold }

// IsLowCalorie 值对象口径（<=300），与 Meal.IsLowCalorie 的 <500 不同
func (c Calories) IsLowCalorie() bool { return c.value <= lowCalorieThreshold }

func (c Calories) String() string { return strconv.Itoa(c.value) + "kcal" }
