package repo

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kapp-api/internal/core/cache"
	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
)

// CachedMealRepo 按日读穿缓存；写操作失效相关日期。
// 事务内不读缓存，失效推迟到提交之后
type CachedMealRepo struct {
	next    meal.Repository
	cache   cache.Loader
	ttl     time.Duration
	log     *zap.Logger
	pending *pendingKeys
}

func NewCachedMealRepo(next meal.Repository, c cache.Loader, ttl time.Duration, l *zap.Logger) *CachedMealRepo {
	if l == nil {
		l = zap.NewNop()
	}
	return &CachedMealRepo{next: next, cache: c, ttl: ttl, log: l}
}

// inTx 返回绑定到事务的副本
func (r *CachedMealRepo) inTx(p *pendingKeys) *CachedMealRepo {
	cp := *r
	cp.pending = p
	return &cp
}

func dayKey(d civil.Date) string { return "meal:date:" + d.String() }

// pendingKeys 事务期间累积的待失效 key
type pendingKeys struct {
	mu   sync.Mutex
	keys []string
	seen map[string]struct{}
}

func (p *pendingKeys) add(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.seen == nil {
		p.seen = map[string]struct{}{}
	}
	if _, ok := p.seen[key]; ok {
		return
	}
	p.seen[key] = struct{}{}
	p.keys = append(p.keys, key)
}

// flush 提交后调用；删除失败只记日志，缓存会按 TTL 自愈
func (p *pendingKeys) flush(ctx context.Context, c cache.Loader, l *zap.Logger) {
	p.mu.Lock()
	keys := p.keys
	p.keys, p.seen = nil, nil
	p.mu.Unlock()
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.Del(ctx, keys...); err != nil {
		l.Warn("meal cache invalidate after commit failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// mealSnapshot 缓存里的 JSON 形态
type mealSnapshot struct {
	ID         int64           `json:"id"`
	Date       civil.Date      `json:"date"`
	DiningTime string          `json:"diningTime"`
	Place      string          `json:"place"`
	Price      decimal.Decimal `json:"price"`
	Currency   string          `json:"currency"`
	Calories   int             `json:"calories"`
	Menu       []string        `json:"menu"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

func snapshotOf(m meal.Meal) mealSnapshot {
	return mealSnapshot{
		ID:         m.ID().Value(),
		Date:       m.Date(),
		DiningTime: string(m.DiningTime()),
		Place:      m.Place(),
		Price:      m.Price().Amount(),
		Currency:   m.Price().Currency(),
		Calories:   m.Calories().Value(),
		Menu:       m.Menu().Items(),
		CreatedAt:  m.CreatedAt(),
		UpdatedAt:  m.UpdatedAt(),
	}
}

func (s mealSnapshot) restore() (meal.Meal, error) {
	id, err := meal.NewID(s.ID)
	if err != nil {
		return meal.Meal{}, err
	}
	dt, err := meal.ParseDiningTime(s.DiningTime)
	if err != nil {
		return meal.Meal{}, err
	}
	price, err := domain.NewMoney(s.Price, s.Currency)
	if err != nil {
		return meal.Meal{}, err
	}
	cal, err := meal.NewCalories(s.Calories)
	if err != nil {
		return meal.Meal{}, err
	}
	menu, err := meal.NewMenu(s.Menu)
	if err != nil {
		return meal.Meal{}, err
	}
	return meal.Restore(id, meal.Params{
		Date: s.Date, DiningTime: dt, Place: s.Place, Price: price, Calories: cal, Menu: menu,
	}, s.CreatedAt, s.UpdatedAt)
}

func (r *CachedMealRepo) FindByDate(ctx context.Context, date civil.Date) ([]meal.Meal, error) {
	if r.pending != nil {
		return r.next.FindByDate(ctx, date)
	}
	snaps, err := cache.GetOrLoadJSON(r.cache, ctx, dayKey(date), r.ttl, func(ctx context.Context) (*[]mealSnapshot, error) {
		meals, err := r.next.FindByDate(ctx, date)
		if err != nil {
			return nil, err
		}
		out := make([]mealSnapshot, len(meals))
		for i, m := range meals {
			out[i] = snapshotOf(m)
		}
		return &out, nil
	})
	if err != nil {
		return nil, err
	}
	if snaps == nil {
		return []meal.Meal{}, nil
	}
	meals := make([]meal.Meal, 0, len(*snaps))
	for _, s := range *snaps {
		m, err := s.restore()
		if err != nil {
			// 缓存内容损坏：丢弃并回源
			r.log.Warn("drop corrupt meal cache", zap.String("key", dayKey(date)), zap.Error(err))
			r.invalidate(ctx, date)
			return r.next.FindByDate(ctx, date)
		}
		meals = append(meals, m)
	}
	return meals, nil
}

func (r *CachedMealRepo) Save(ctx context.Context, m meal.Meal) (meal.Meal, error) {
	// 更新可能改了日期，旧日期也要失效
	if !m.IsNew() {
		if old, err := r.next.FindByID(ctx, m.ID()); err == nil && old != nil {
			defer r.invalidate(ctx, old.Date())
		}
	}
	saved, err := r.next.Save(ctx, m)
	if err != nil {
		return meal.Meal{}, err
	}
	r.invalidate(ctx, saved.Date())
	return saved, nil
}

func (r *CachedMealRepo) Delete(ctx context.Context, m meal.Meal) error {
	if err := r.next.Delete(ctx, m); err != nil {
		return err
	}
	r.invalidate(ctx, m.Date())
	return nil
}

func (r *CachedMealRepo) FindByID(ctx context.Context, id meal.ID) (*meal.Meal, error) {
	return r.next.FindByID(ctx, id)
}

func (r *CachedMealRepo) FindByDateRange(ctx context.Context, start, end civil.Date) ([]meal.Meal, error) {
	return r.next.FindByDateRange(ctx, start, end)
}

func (r *CachedMealRepo) invalidate(ctx context.Context, d civil.Date) {
	if r.pending != nil {
		r.pending.add(dayKey(d))
		return
	}
	if err := r.cache.Del(ctx, dayKey(d)); err != nil {
		r.log.Warn("meal cache invalidate failed", zap.String("key", dayKey(d)), zap.Error(err))
	}
}
