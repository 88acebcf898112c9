package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
	usermodel "kapp-api/internal/feature/user"
	"kapp-api/internal/repo/memory"
)

var (
	now   = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	today = civil.DateOf(now)
)

func newMeal(t *testing.T, date civil.Date, items ...string) meal.Meal {
	t.Helper()
	price, err := domain.ParseMoney("5500.50", "")
	require.NoError(t, err)
	cal, _ := meal.NewCalories(640)
	menu, err := meal.NewMenu(items)
	require.NoError(t, err)
	m, err := meal.New(domain.FixedClock{T: now}, meal.Params{
		Date: date, DiningTime: meal.Dinner, Place: "학생식당", Price: price, Calories: cal, Menu: menu,
	})
	require.NoError(t, err)
	return m
}

func TestMealModelMapping(t *testing.T) {
	id, _ := meal.NewID(9)
	m := newMeal(t, today, "된장국", "쌀밥", "김치").WithID(id)

	row := toMealModel(m)
	assert.Equal(t, uint64(9), row.ID)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), row.Date)
	assert.Equal(t, "DINNER", row.DiningTime)
	assert.True(t, row.Price.Equal(decimal.RequireFromString("5500.5")))
	require.Len(t, row.MenuItems, 3)
	assert.Equal(t, 2, row.MenuItems[2].Position)

	back, err := toMeal(row)
	require.NoError(t, err)
	assert.Equal(t, m.Menu().Items(), back.Menu().Items())
	assert.Equal(t, m.Date(), back.Date())
	assert.True(t, m.Price().Equal(back.Price()))
}

func TestToMealRejectsCorruptRows(t *testing.T) {
	row := toMealModel(newMeal(t, today, "rice").WithID(mustMealID(1)))

	noMenu := row
	noMenu.MenuItems = nil
	_, err := toMeal(noMenu)
	assert.ErrorIs(t, err, domain.ErrEmptyMenu)

	badTime := row
	badTime.DiningTime = "SNACK"
	_, err = toMeal(badTime)
	assert.ErrorIs(t, err, domain.ErrInvalidDiningTime)

	noID := row
	noID.ID = 0
	_, err = toMeal(noID)
	assert.ErrorIs(t, err, domain.ErrNonPositiveID)

	// 存储里的历史数据可以晚于今天 + 7
	future := row
	future.Date = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err = toMeal(future)
	assert.NoError(t, err)
}

func TestUserModelMapping(t *testing.T) {
	pw, _ := user.NewHashedPassword("$2a$10$hash")
	u, err := user.New(domain.MustEmail("kim@koreatech.ac.kr"), pw, "Kim", "2020136001", now)
	require.NoError(t, err)
	id, _ := user.NewID(3)
	u = u.WithID(id)

	row := toUserModel(u)
	assert.Equal(t, usermodel.UserModel{
		ID: 3, Email: "kim@koreatech.ac.kr", Name: "Kim", PasswordHash: "$2a$10$hash",
		StudentEmployeeID: "2020136001", CreatedAt: now, UpdatedAt: now,
	}, row)

	back, err := toUser(row)
	require.NoError(t, err)
	assert.Equal(t, u, back)

	row.Email = "broken"
	_, err = toUser(row)
	assert.ErrorIs(t, err, domain.ErrInvalidEmailFormat)
}

func mustMealID(v int64) meal.ID {
	id, err := meal.NewID(v)
	if err != nil {
		panic(err)
	}
	return id
}

// countingRepo 统计穿透到底层的次数
type countingRepo struct {
	meal.Repository
	mu    sync.Mutex
	reads int
}

func (c *countingRepo) FindByDate(ctx context.Context, d civil.Date) ([]meal.Meal, error) {
	c.mu.Lock()
	c.reads++
	c.mu.Unlock()
	return c.Repository.FindByDate(ctx, d)
}

type mapLoader struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *mapLoader) GetOrLoad(ctx context.Context, key string, _ time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	m.mu.Lock()
	b, ok := m.data[key]
	m.mu.Unlock()
	if ok {
		return b, nil
	}
	b, err := load(ctx)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.data[key] = b
	m.mu.Unlock()
	return b, nil
}

func (m *mapLoader) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestCachedMealRepo(t *testing.T) {
	ctx := context.Background()
	inner := &countingRepo{Repository: memory.New().Meals()}
	loader := &mapLoader{data: map[string][]byte{}}
	repo := NewCachedMealRepo(inner, loader, time.Minute, nil)

	saved, err := repo.Save(ctx, newMeal(t, today, "콩나물국", "쌀밥"))
	require.NoError(t, err)

	first, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	second, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 1, inner.reads)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Menu().Items(), second[0].Menu().Items())
	assert.True(t, saved.Price().Equal(second[0].Price()))
	assert.Contains(t, loader.data, "meal:date:2025-03-10")

	// 写入后失效
	_, err = repo.Save(ctx, newMeal(t, today, "rice"))
	require.NoError(t, err)
	got, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, inner.reads)

	require.NoError(t, repo.Delete(ctx, saved))
	got, err = repo.FindByDate(ctx, today)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 3, inner.reads)
}

func TestCachedMealRepoMovesDate(t *testing.T) {
	ctx := context.Background()
	inner := memory.New().Meals()
	loader := &mapLoader{data: map[string][]byte{}}
	repo := NewCachedMealRepo(inner, loader, time.Minute, nil)

	saved, err := repo.Save(ctx, newMeal(t, today, "rice"))
	require.NoError(t, err)
	_, err = repo.FindByDate(ctx, today)
	require.NoError(t, err)

	p := saved.Params()
	p.Date = today.AddDays(1)
	moved, err := meal.Restore(saved.ID(), p, saved.CreatedAt(), now)
	require.NoError(t, err)
	_, err = repo.Save(ctx, moved)
	require.NoError(t, err)

	got, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCachedMealRepoCorruptEntry(t *testing.T) {
	ctx := context.Background()
	inner := memory.New().Meals()
	_, err := inner.Save(ctx, newMeal(t, today, "rice"))
	require.NoError(t, err)
	loader := &mapLoader{data: map[string][]byte{
		dayKey(today): []byte(`[{"id":0,"date":"2025-03-10","diningTime":"LUNCH"}]`),
	}}
	repo := NewCachedMealRepo(inner, loader, time.Minute, nil)

	got, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NotContains(t, loader.data, dayKey(today))
}

// recordingLoader 记录每次 Del 的 key
type recordingLoader struct {
	mapLoader
	mu   sync.Mutex
	dels []string
}

func (l *recordingLoader) Del(ctx context.Context, keys ...string) error {
	l.mu.Lock()
	l.dels = append(l.dels, keys...)
	l.mu.Unlock()
	return l.mapLoader.Del(ctx, keys...)
}

func (l *recordingLoader) deleted() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.dels...)
}

func TestTransactionInvalidatesAfterCommit(t *testing.T) {
	ctx := context.Background()
	inner := memory.New().Meals()
	loader := &recordingLoader{mapLoader: mapLoader{data: map[string][]byte{}}}
	root := NewCachedMealRepo(inner, loader, time.Minute, nil)
	s := &GormStore{cache: loader, cacheTTL: time.Minute, log: zap.NewNop()}

	// 预热：当天已有缓存
	_, err := root.FindByDate(ctx, today)
	require.NoError(t, err)
	require.Contains(t, loader.data, dayKey(today))

	err = s.afterCommit(ctx, func(p *pendingKeys) error {
		tx := root.inTx(p)
		saved, err := tx.Save(ctx, newMeal(t, today, "rice"))
		if err != nil {
			return err
		}
		// 提交前：缓存未动，事务内读取直接回源
		assert.Empty(t, loader.deleted())
		assert.Contains(t, loader.data, dayKey(today))
		got, err := tx.FindByDate(ctx, today)
		require.NoError(t, err)
		assert.Len(t, got, 1)
		return tx.Delete(ctx, saved)
	})
	require.NoError(t, err)

	assert.Equal(t, []string{dayKey(today)}, loader.deleted())
	assert.NotContains(t, loader.data, dayKey(today))
}

func TestTransactionRollbackKeepsCache(t *testing.T) {
	ctx := context.Background()
	loader := &recordingLoader{mapLoader: mapLoader{data: map[string][]byte{}}}
	root := NewCachedMealRepo(memory.New().Meals(), loader, time.Minute, nil)
	s := &GormStore{cache: loader, cacheTTL: time.Minute, log: zap.NewNop()}
	boom := errors.New("boom")

	err := s.afterCommit(ctx, func(p *pendingKeys) error {
		if _, err := root.inTx(p).Save(ctx, newMeal(t, today, "rice")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, loader.deleted())
}

func TestNestedTransactionDefersToOuter(t *testing.T) {
	ctx := context.Background()
	loader := &recordingLoader{mapLoader: mapLoader{data: map[string][]byte{}}}
	root := NewCachedMealRepo(memory.New().Meals(), loader, time.Minute, nil)
	outer := &GormStore{cache: loader, cacheTTL: time.Minute, log: zap.NewNop()}

	err := outer.afterCommit(ctx, func(p *pendingKeys) error {
		inner := &GormStore{cache: loader, cacheTTL: time.Minute, log: zap.NewNop(), pending: p}
		err := inner.afterCommit(ctx, func(p *pendingKeys) error {
			_, err := root.inTx(p).Save(ctx, newMeal(t, today, "rice"))
			return err
		})
		assert.Empty(t, loader.deleted())
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{dayKey(today)}, loader.deleted())
}
