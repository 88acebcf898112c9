// Package handler 业务接口模块：auth / meals 挂在用户端，admin meals 挂在管理端。
package handler

import (
	"time"

	"cloud.google.com/go/civil"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
	"kapp-api/internal/transport/http/ez"
)

type UserDTO struct {
	ID                int64     `json:"id"`
	Email             string    `json:"email"`
	Name              string    `json:"name"`
	StudentEmployeeID string    `json:"studentEmployeeId"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

func toUserDTO(u user.User) UserDTO {
	return UserDTO{
		ID:                u.ID().Value(),
		Email:             u.Email().Value(),
		Name:              u.Name(),
		StudentEmployeeID: u.StudentEmployeeID(),
		CreatedAt:         u.CreatedAt(),
		UpdatedAt:         u.UpdatedAt(),
	}
}

type MealDTO struct {
	ID             int64      `json:"id"`
	Date           civil.Date `json:"date"`
	DiningTime     string     `json:"diningTime"`
	DiningTimeName string     `json:"diningTimeName"`
	Place          string     `json:"place"`
	Price          string     `json:"price"`
	Currency       string     `json:"currency"`
	Calories       int        `json:"calories"`
	Menu           []string   `json:"menu"`
	LowCalorie     bool       `json:"lowCalorie"`
	Vegetarian     bool       `json:"vegetarian"`
	Spicy          bool       `json:"spicy"`
	HighPriced     bool       `json:"highPriced"`
	Weekend        bool       `json:"weekend"`
}

func toMealDTO(m meal.Meal) MealDTO {
	return MealDTO{
		ID:             m.ID().Value(),
		Date:           m.Date(),
		DiningTime:     string(m.DiningTime()),
		DiningTimeName: m.DiningTime().DisplayName(),
		Place:          m.Place(),
		Price:          m.Price().Amount().String(),
		Currency:       m.Price().Currency(),
		Calories:       m.Calories().Value(),
		Menu:           m.Menu().Items(),
		LowCalorie:     m.IsLowCalorie(),
		Vegetarian:     m.Menu().HasVegetarianOptions(),
		Spicy:          m.Menu().HasSpicyItems(),
		HighPriced:     m.IsHighPriced(),
		Weekend:        m.IsWeekend(),
	}
}

func toMealDTOs(meals []meal.Meal) []MealDTO {
	out := make([]MealDTO, len(meals))
	for i, m := range meals {
		out[i] = toMealDTO(m)
	}
	return out
}

type PageDTO[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

func toPageDTO(p domain.Page[meal.Meal]) PageDTO[MealDTO] {
	mp := domain.MapPage(p, toMealDTO)
	return PageDTO[MealDTO]{
		Content:       mp.Content,
		Page:          mp.Page,
		Size:          mp.Size,
		TotalElements: mp.TotalElements,
		TotalPages:    mp.TotalPages,
		First:         mp.First,
		Last:          mp.Last,
	}
}

type SummaryDTO struct {
	Date                   civil.Date `json:"date"`
	TotalMeals             int        `json:"totalMeals"`
	TotalCalories          int        `json:"totalCalories"`
	AverageCaloriesPerMeal int        `json:"averageCaloriesPerMeal"`
	AveragePrice           int64      `json:"averagePrice"`
	BreakfastCount         int        `json:"breakfastCount"`
	LunchCount             int        `json:"lunchCount"`
	DinnerCount            int        `json:"dinnerCount"`
	HasVegetarianOptions   bool       `json:"hasVegetarianOptions"`
	HasSpicyOptions        bool       `json:"hasSpicyOptions"`
}

func toSummaryDTO(d civil.Date, s meal.NutritionSummary) SummaryDTO {
	return SummaryDTO{
		Date:                   d,
		TotalMeals:             s.TotalMeals,
		TotalCalories:          s.TotalCalories,
		AverageCaloriesPerMeal: s.AverageCaloriesPerMeal,
		AveragePrice:           s.AveragePrice,
		BreakfastCount:         s.BreakfastCount,
		LunchCount:             s.LunchCount,
		DinnerCount:            s.DinnerCount,
		HasVegetarianOptions:   s.HasVegetarianOptions,
		HasSpicyOptions:        s.HasSpicyOptions,
	}
}

// optDate 空串返回 nil；格式已由 civil_date 校验过
func optDate(s string) (*civil.Date, error) {
	if s == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return nil, ez.BadRequest("invalid date: " + s)
	}
	return &d, nil
}

func optDiningTime(s string) (*meal.DiningTime, error) {
	if s == "" {
		return nil, nil
	}
	dt, err := meal.ParseDiningTime(s)
	if err != nil {
		return nil, err
	}
	return &dt, nil
}
