// Package memory 进程内存储，实现用户与餐食两个仓储端口。
// 用于测试以及 db.driver=memory 的本地运行。
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"cloud.google.com/go/civil"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
	"kapp-api/internal/service"
)

type data struct {
	users      map[int64]user.User
	meals      map[int64]meal.Meal
	nextUserID int64
	nextMealID int64
}

func (d *data) clone() *data {
	c := &data{
		users:      make(map[int64]user.User, len(d.users)),
		meals:      make(map[int64]meal.Meal, len(d.meals)),
		nextUserID: d.nextUserID,
		nextMealID: d.nextMealID,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.meals {
		c.meals[k] = v
	}
	return c
}

// Store 整体一把锁；事务在快照上执行，成功后整体替换
type Store struct {
	mu *sync.Mutex
	d  *data
	// inTx 事务内的 Store 不再加锁
	inTx bool
}

func New() *Store {
	return &Store{
		mu: &sync.Mutex{},
		d:  &data{users: map[int64]user.User{}, meals: map[int64]meal.Meal{}},
	}
}

func (s *Store) Users() user.Repository { return userRepo{s} }
func (s *Store) Meals() meal.Repository { return mealRepo{s} }

func (s *Store) Transaction(ctx context.Context, fn func(service.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &Store{mu: s.mu, d: s.d.clone(), inTx: true}
	if err := fn(tx); err != nil {
		return err
	}
	s.d = tx.d
	return nil
}

func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type userRepo struct{ s *Store }

func (r userRepo) Save(_ context.Context, u user.User) (user.User, error) {
	defer r.s.lock()()
	d := r.s.d
	for id, other := range d.users {
		if other.Email().Equal(u.Email()) && id != u.ID().Value() {
			return user.User{}, domain.Errorf(domain.ErrDuplicateEmail, "%s", u.Email())
		}
	}
	if u.IsNew() {
		d.nextUserID++
		id, err := user.NewID(d.nextUserID)
		if err != nil {
			return user.User{}, err
		}
		u = u.WithID(id)
	}
	d.users[u.ID().Value()] = u
	return u, nil
}

func (r userRepo) FindByID(_ context.Context, id user.ID) (*user.User, error) {
	defer r.s.lock()()
	u, ok := r.s.d.users[id.Value()]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r userRepo) FindByEmail(_ context.Context, email domain.Email) (*user.User, error) {
	defer r.s.lock()()
	for _, u := range r.s.d.users {
		if u.Email().Equal(email) {
			return &u, nil
		}
	}
	return nil, nil
}

func (r userRepo) ExistsByEmail(ctx context.Context, email domain.Email) (bool, error) {
	u, err := r.FindByEmail(ctx, email)
	return u != nil, err
}

func (r userRepo) Delete(_ context.Context, u user.User) error {
	defer r.s.lock()()
	delete(r.s.d.users, u.ID().Value())
	return nil
}

type mealRepo struct{ s *Store }

func (r mealRepo) Save(_ context.Context, m meal.Meal) (meal.Meal, error) {
	defer r.s.lock()()
	d := r.s.d
	if m.IsNew() {
		d.nextMealID++
		id, err := meal.NewID(d.nextMealID)
		if err != nil {
			return meal.Meal{}, err
		}
		m = m.WithID(id)
	}
	d.meals[m.ID().Value()] = m
	return m, nil
}

func (r mealRepo) FindByID(_ context.Context, id meal.ID) (*meal.Meal, error) {
	defer r.s.lock()()
	m, ok := r.s.d.meals[id.Value()]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (r mealRepo) FindByDate(_ context.Context, date civil.Date) ([]meal.Meal, error) {
	return r.between(date, date), nil
}

func (r mealRepo) FindByDateRange(_ context.Context, start, end civil.Date) ([]meal.Meal, error) {
	return r.between(start, end), nil
}

// between 闭区间，按 (date, id) 排序，与 gorm 实现一致
func (r mealRepo) between(start, end civil.Date) []meal.Meal {
	defer r.s.lock()()
	out := []meal.Meal{}
	for _, m := range r.s.d.meals {
		if !m.Date().Before(start) && !m.Date().After(end) {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b meal.Meal) int {
		switch {
		case a.Date().Before(b.Date()):
			return -1
		case a.Date().After(b.Date()):
			return 1
		}
		return cmp.Compare(a.ID().Value(), b.ID().Value())
	})
	return out
}

func (r mealRepo) Delete(_ context.Context, m meal.Meal) error {
	defer r.s.lock()()
	delete(r.s.d.meals, m.ID().Value())
	return nil
}
