package meal

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"

	"kapp-api/internal/domain"
)

// Service 餐食领域服务：按日取数后在内存中过滤、分页、汇总
type Service struct {
	repo  Repository
	clock domain.Clock
}

func NewService(repo Repository, clock domain.Clock) *Service {
	return &Service{repo: repo, clock: clock}
}

func (s *Service) Today() civil.Date { return domain.Today(s.clock) }

func (s *Service) GetMealsByDate(ctx context.Context, date civil.Date) ([]Meal, error) {
	meals, err := s.repo.FindByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("find meals of %s: %w", date, err)
	}
	return meals, nil
}

func (s *Service) GetMealsByDateAndDiningTime(ctx context.Context, date civil.Date, dt DiningTime) ([]Meal, error) {
	return s.filterDay(ctx, date, func(m Meal) bool { return m.diningTime == dt })
}

// GetMealsByPlace 地点子串匹配，忽略大小写
func (s *Service) GetMealsByPlace(ctx context.Context, date civil.Date, place string) ([]Meal, error) {
	return s.filterDay(ctx, date, func(m Meal) bool { return containsFold(m.place, place) })
}

func (s *Service) GetLowCalorieMeals(ctx context.Context, date civil.Date) ([]Meal, error) {
	return s.filterDay(ctx, date, Meal.IsLowCalorie)
}

func (s *Service) GetVegetarianMeals(ctx context.Context, date civil.Date) ([]Meal, error) {
	return s.filterDay(ctx, date, func(m Meal) bool { return m.menu.HasVegetarianOptions() })
}

func (s *Service) GetMealNutritionSummary(ctx context.Context, date civil.Date) (NutritionSummary, error) {
	meals, err := s.GetMealsByDate(ctx, date)
	if err != nil {
		return NutritionSummary{}, err
	}
	return Summarize(meals), nil
}

// GetMeals 过滤 + 分页。
// 有日期区间时逐日取数并按日期升序拼接，否则只取今天。
func (s *Service) GetMeals(ctx context.Context, req domain.PageRequest, f Filter) (domain.Page[Meal], error) {
	candidates, err := s.candidates(ctx, f)
	if err != nil {
		return domain.Page[Meal]{}, err
	}
	return domain.Paginate(filterMeals(candidates, f.Match), req), nil
}

func (s *Service) candidates(ctx context.Context, f Filter) ([]Meal, error) {
	if !f.HasDateRange() {
		return s.GetMealsByDate(ctx, s.Today())
	}
	var out []Meal
	for d := *f.StartDate; !d.After(*f.EndDate); d = d.AddDays(1) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		day, err := s.GetMealsByDate(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, day...)
	}
	return out, nil
}

func (s *Service) GetMealByID(ctx context.Context, id ID) (Meal, error) {
	m, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return Meal{}, fmt.Errorf("find meal: %w", err)
	}
	if m == nil {
		return Meal{}, domain.Errorf(domain.ErrMealNotFound, "id %s", id)
	}
	return *m, nil
}

// FindMealDetail 指定日期、时段下地点完全一致（忽略大小写）的第一条
func (s *Service) FindMealDetail(ctx context.Context, date civil.Date, dt DiningTime, place string) (Meal, error) {
	meals, err := s.GetMealsByDateAndDiningTime(ctx, date, dt)
	if err != nil {
		return Meal{}, err
	}
	for _, m := range meals {
		if strings.EqualFold(m.place, place) {
			return m, nil
		}
	}
	return Meal{}, domain.Errorf(domain.ErrMealFilter, "%s %s %q", date, dt, place)
}

// GetMealsInRange 走仓储的区间查询，结果按日期升序
func (s *Service) GetMealsInRange(ctx context.Context, start, end civil.Date) ([]Meal, error) {
	if start.After(end) {
		return []Meal{}, nil
	}
	meals, err := s.repo.FindByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("find meals %s..%s: %w", start, end, err)
	}
	return meals, nil
}

// RegisterMeal 通过工厂创建（校验日期上限）并保存
func (s *Service) RegisterMeal(ctx context.Context, p Params) (Meal, error) {
	m, err := New(s.clock, p)
	if err != nil {
		return Meal{}, err
	}
	saved, err := s.repo.Save(ctx, m)
	if err != nil {
		return Meal{}, fmt.Errorf("save meal: %w", err)
	}
	return saved, nil
}

func (s *Service) DeleteMeal(ctx context.Context, id ID) error {
	m, err := s.GetMealByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, m); err != nil {
		return fmt.Errorf("delete meal: %w", err)
	}
	return nil
}

func (s *Service) filterDay(ctx context.Context, date civil.Date, keep func(Meal) bool) ([]Meal, error) {
	meals, err := s.GetMealsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return filterMeals(meals, keep), nil
}
