package meal

import "github.com/shopspring/decimal"

// NutritionSummary 某天的营养汇总
type NutritionSummary struct {
	TotalMeals             int
	TotalCalories          int
	AverageCaloriesPerMeal int
	// AveragePrice 四舍五入到整数
	AveragePrice         int64
	BreakfastCount       int
	LunchCount           int
	DinnerCount          int
	HasVegetarianOptions bool
	HasSpicyOptions      bool
}

// Summarize 空列表返回全零，不做除法
func Summarize(meals []Meal) NutritionSummary {
	var s NutritionSummary
	if len(meals) == 0 {
		return s
	}
	priceSum := decimal.Zero
	for _, m := range meals {
		s.TotalCalories += m.calories.value
		priceSum = priceSum.Add(m.price.Amount())
		switch m.diningTime {
		case Breakfast:
			s.BreakfastCount++
		case Lunch:
			s.LunchCount++
		case Dinner:
			s.DinnerCount++
		}
		s.HasVegetarianOptions = s.HasVegetarianOptions || m.menu.HasVegetarianOptions()
		s.HasSpicyOptions = s.HasSpicyOptions || m.menu.HasSpicyItems()
	}
	s.TotalMeals = len(meals)
	s.AverageCaloriesPerMeal = s.TotalCalories / s.TotalMeals
	// 金额非负，DivRound 的“远离零”即四舍五入
	s.AveragePrice = priceSum.DivRound(decimal.NewFromInt(int64(s.TotalMeals)), 0).IntPart()
	return s
}
