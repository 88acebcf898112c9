package service

import (
	"context"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
)

// MealService 餐食查询用例：未给日期时一律取“今天”
type MealService struct {
	meals   *meal.Service
	maxDays int
	log     *zap.Logger
}

func newMealService(meals *meal.Service, d Deps) *MealService {
	return &MealService{meals: meals, maxDays: d.MaxSearchDays, log: d.Log}
}

func (s *MealService) dateOr(d *civil.Date) civil.Date {
	if d != nil {
		return *d
	}
	return s.meals.Today()
}

func (s *MealService) Today() civil.Date { return s.meals.Today() }

// List 某天的餐食，可选按时段、地点（子串，忽略大小写）收窄
func (s *MealService) List(ctx context.Context, date *civil.Date, dt *meal.DiningTime, place string) ([]meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("list").Inc()
	meals, err := s.meals.GetMealsByDate(ctx, s.dateOr(date))
	if err != nil {
		return nil, err
	}
	// 两个条件同时给出时取交集
	f := meal.Filter{DiningTime: dt, Place: place}
	out := make([]meal.Meal, 0, len(meals))
	for _, m := range meals {
		if f.Match(m) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MealService) TodayMeals(ctx context.Context) ([]meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("today").Inc()
	return s.meals.GetMealsByDate(ctx, s.meals.Today())
}

func (s *MealService) Detail(ctx context.Context, date *civil.Date, dt meal.DiningTime, place string) (meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("detail").Inc()
	return s.meals.FindMealDetail(ctx, s.dateOr(date), dt, strings.TrimSpace(place))
}

func (s *MealService) LowCalorie(ctx context.Context, date *civil.Date) ([]meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("low_calorie").Inc()
	return s.meals.GetLowCalorieMeals(ctx, s.dateOr(date))
}

func (s *MealService) Vegetarian(ctx context.Context, date *civil.Date) ([]meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("vegetarian").Inc()
	return s.meals.GetVegetarianMeals(ctx, s.dateOr(date))
}

func (s *MealService) Summary(ctx context.Context, date *civil.Date) (civil.Date, meal.NutritionSummary, error) {
	mealQueriesTotal.WithLabelValues("summary").Inc()
	d := s.dateOr(date)
	sum, err := s.meals.GetMealNutritionSummary(ctx, d)
	return d, sum, err
}

// SearchInput 原始查询条件，价格为十进制字符串
type SearchInput struct {
	Page        int
	Size        int
	StartDate   *civil.Date
	EndDate     *civil.Date
	DiningTime  *meal.DiningTime
	Place       string
	MinPrice    string
	MaxPrice    string
	MinCalories *int
	MaxCalories *int
	MenuKeyword string
}

func (s *MealService) Search(ctx context.Context, in SearchInput) (domain.Page[meal.Meal], error) {
	mealQueriesTotal.WithLabelValues("search").Inc()
	req, err := domain.NewPageRequest(in.Page, in.Size)
	if err != nil {
		return domain.Page[meal.Meal]{}, err
	}
	if in.StartDate != nil && in.EndDate != nil && !in.StartDate.After(*in.EndDate) {
		if days := in.EndDate.DaysSince(*in.StartDate) + 1; days > s.maxDays {
			return domain.Page[meal.Meal]{}, domain.Errorf(domain.ErrDateRangeTooWide, "%d days, max %d", days, s.maxDays)
		}
	}
	minPrice, err := parseAmount(in.MinPrice)
	if err != nil {
		return domain.Page[meal.Meal]{}, err
	}
	maxPrice, err := parseAmount(in.MaxPrice)
	if err != nil {
		return domain.Page[meal.Meal]{}, err
	}
	return s.meals.GetMeals(ctx, req, meal.Filter{
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		DiningTime:  in.DiningTime,
		Place:       in.Place,
		MinPrice:    minPrice,
		MaxPrice:    maxPrice,
		MinCalories: in.MinCalories,
		MaxCalories: in.MaxCalories,
		MenuKeyword: in.MenuKeyword,
	})
}

func parseAmount(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, domain.Errorf(domain.ErrValidation, "price %q", s)
	}
	return &d, nil
}

func (s *MealService) ByID(ctx context.Context, id int64) (meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("by_id").Inc()
	mid, err := meal.NewID(id)
	if err != nil {
		return meal.Meal{}, err
	}
	return s.meals.GetMealByID(ctx, mid)
}

// MealInput 登记餐食的原始输入
type MealInput struct {
	Date       civil.Date
	DiningTime string
	Place      string
	Price      string
	Currency   string
	Calories   int
	Menu       []string
}

// Params 把原始输入逐项转换为值对象
func (in MealInput) Params() (meal.Params, error) {
	dt, err := meal.ParseDiningTime(in.DiningTime)
	if err != nil {
		return meal.Params{}, err
	}
	price, err := domain.ParseMoney(in.Price, in.Currency)
	if err != nil {
		return meal.Params{}, err
	}
	cal, err := meal.NewCalories(in.Calories)
	if err != nil {
		return meal.Params{}, err
	}
	menu, err := meal.NewMenu(in.Menu)
	if err != nil {
		return meal.Params{}, err
	}
	return meal.Params{
		Date:       in.Date,
		DiningTime: dt,
		Place:      strings.TrimSpace(in.Place),
		Price:      price,
		Calories:   cal,
		Menu:       menu,
	}, nil
}

func (s *MealService) Register(ctx context.Context, in MealInput) (meal.Meal, error) {
	p, err := in.Params()
	if err != nil {
		mealChangesTotal.WithLabelValues("register", "invalid").Inc()
		return meal.Meal{}, err
	}
	m, err := s.meals.RegisterMeal(ctx, p)
	mealChangesTotal.WithLabelValues("register", result(err)).Inc()
	if err != nil {
		return meal.Meal{}, err
	}
	s.log.Info("meal registered",
		zap.Int64("id", m.ID().Value()),
		zap.Stringer("date", m.Date()),
		zap.String("diningTime", string(m.DiningTime())),
		zap.String("place", m.Place()),
	)
	return m, nil
}

func (s *MealService) Delete(ctx context.Context, id int64) error {
	mid, err := meal.NewID(id)
	if err != nil {
		return err
	}
	err = s.meals.DeleteMeal(ctx, mid)
	mealChangesTotal.WithLabelValues("delete", result(err)).Inc()
	if err != nil {
		return err
	}
	s.log.Info("meal deleted", zap.Int64("id", id))
	return nil
}

func (s *MealService) Range(ctx context.Context, start, end civil.Date) ([]meal.Meal, error) {
	mealQueriesTotal.WithLabelValues("range").Inc()
	return s.meals.GetMealsInRange(ctx, start, end)
}
