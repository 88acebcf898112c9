package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"gorm.io/gorm"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	mealmodel "kapp-api/internal/feature/meal"
)

// MealRepo meal.Repository 的 gorm 实现；菜单存子表，按 position 还原顺序
type MealRepo struct{ db *gorm.DB }

func NewMealRepo(db *gorm.DB) *MealRepo { return &MealRepo{db: db} }

func (r *MealRepo) Save(ctx context.Context, m meal.Meal) (meal.Meal, error) {
	row := toMealModel(m)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if m.IsNew() {
			// 新建时连同 MenuItems 一起插入
			return tx.Create(&row).Error
		}
		if err := tx.Omit("MenuItems").Save(&row).Error; err != nil {
			return err
		}
		if err := tx.Where("meal_id = ?", row.ID).Delete(&mealmodel.MenuItemModel{}).Error; err != nil {
			return err
		}
		items := row.MenuItems
		for i := range items {
			items[i].MealID = row.ID
		}
		return tx.Create(&items).Error
	})
	if err != nil {
		return meal.Meal{}, err
	}
	if !m.IsNew() {
		return m, nil
	}
	id, err := meal.NewID(int64(row.ID))
	if err != nil {
		return meal.Meal{}, err
	}
	return m.WithID(id), nil
}

func (r *MealRepo) FindByID(ctx context.Context, id meal.ID) (*meal.Meal, error) {
	var row mealmodel.MealModel
	err := r.withMenu(ctx).First(&row, id.Value()).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	m, err := toMeal(row)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MealRepo) FindByDate(ctx context.Context, date civil.Date) ([]meal.Meal, error) {
	var rows []mealmodel.MealModel
	err := r.withMenu(ctx).
		Where("date = ?", dateToTime(date)).
		Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMeals(rows)
}

func (r *MealRepo) FindByDateRange(ctx context.Context, start, end civil.Date) ([]meal.Meal, error) {
	var rows []mealmodel.MealModel
	err := r.withMenu(ctx).
		Where("date BETWEEN ? AND ?", dateToTime(start), dateToTime(end)).
		Order("date").Order("id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return toMeals(rows)
}

func (r *MealRepo) Delete(ctx context.Context, m meal.Meal) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("meal_id = ?", m.ID().Value()).Delete(&mealmodel.MenuItemModel{}).Error; err != nil {
			return err
		}
		return tx.Delete(&mealmodel.MealModel{}, m.ID().Value()).Error
	})
}

func (r *MealRepo) withMenu(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("MenuItems", func(db *gorm.DB) *gorm.DB {
		return db.Order("position")
	})
}

func dateToTime(d civil.Date) time.Time { return d.In(time.UTC) }

func toMealModel(m meal.Meal) mealmodel.MealModel {
	items := m.Menu().Items()
	menu := make([]mealmodel.MenuItemModel, len(items))
	for i, name := range items {
		menu[i] = mealmodel.MenuItemModel{MealID: uint64(m.ID().Value()), Position: i, Name: name}
	}
	return mealmodel.MealModel{
		ID:         uint64(m.ID().Value()),
		Date:       dateToTime(m.Date()),
		DiningTime: string(m.DiningTime()),
		Place:      m.Place(),
		Price:      m.Price().Amount(),
		Currency:   m.Price().Currency(),
		Calories:   m.Calories().Value(),
		MenuItems:  menu,
		CreatedAt:  m.CreatedAt(),
		UpdatedAt:  m.UpdatedAt(),
	}
}

func toMeal(row mealmodel.MealModel) (meal.Meal, error) {
	wrap := func(err error) error { return fmt.Errorf("meal row %d: %w", row.ID, err) }

	id, err := meal.NewID(int64(row.ID))
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	dt, err := meal.ParseDiningTime(row.DiningTime)
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	price, err := domain.NewMoney(row.Price, row.Currency)
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	cal, err := meal.NewCalories(row.Calories)
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	names := make([]string, len(row.MenuItems))
	for i, it := range row.MenuItems {
		names[i] = it.Name
	}
	menu, err := meal.NewMenu(names)
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	m, err := meal.Restore(id, meal.Params{
		Date:       civil.DateOf(row.Date),
		DiningTime: dt,
		Place:      row.Place,
		Price:      price,
		Calories:   cal,
		Menu:       menu,
	}, row.CreatedAt, row.UpdatedAt)
	if err != nil {
		return meal.Meal{}, wrap(err)
	}
	return m, nil
}

func toMeals(rows []mealmodel.MealModel) ([]meal.Meal, error) {
	out := make([]meal.Meal, 0, len(rows))
	for _, row := range rows {
		m, err := toMeal(row)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
