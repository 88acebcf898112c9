package meal

import (
	"context"

	"cloud.google.com/go/civil"
)

// Repository 餐食持久化端口。
// 同一天内的返回顺序即“仓储原生顺序”，领域层不会重排。
type Repository interface {
	Save(ctx context.Context, m Meal) (Meal, error)
	// FindByID 查不到返回 (nil, nil)
	FindByID(ctx context.Context, id ID) (*Meal, error)
	FindByDate(ctx context.Context, date civil.Date) ([]Meal, error)
	// FindByDateRange 闭区间，按日期升序
	FindByDateRange(ctx context.Context, start, end civil.Date) ([]Meal, error)
	Delete(ctx context.Context, m Meal) error
}
