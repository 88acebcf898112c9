package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kapp-api/internal/domain"
	"kapp-api/internal/domain/meal"
	"kapp-api/internal/domain/user"
	"kapp-api/internal/service"
)

var (
	now   = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	today = civil.DateOf(now)
)

func newUser(t *testing.T, email string) user.User {
	t.Helper()
	pw, err := user.NewHashedPassword("hash")
	require.NoError(t, err)
	u, err := user.New(domain.MustEmail(email), pw, "Kim", "2020136001", now)
	require.NoError(t, err)
	return u
}

func newMeal(t *testing.T, date civil.Date, dt meal.DiningTime) meal.Meal {
	t.Helper()
	price, _ := domain.Won(5000)
	cal, _ := meal.NewCalories(600)
	menu, _ := meal.NewMenu([]string{"rice"})
	m, err := meal.New(domain.FixedClock{T: now}, meal.Params{
		Date: date, DiningTime: dt, Place: "Hall", Price: price, Calories: cal, Menu: menu,
	})
	require.NoError(t, err)
	return m
}

func TestUserRepo(t *testing.T) {
	ctx := context.Background()
	repo := New().Users()

	saved, err := repo.Save(ctx, newUser(t, "a@b.com"))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID().Value())

	got, err := repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, saved, *got)

	exists, err := repo.ExistsByEmail(ctx, domain.MustEmail("a@b.com"))
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.Save(ctx, newUser(t, "a@b.com"))
	assert.ErrorIs(t, err, domain.ErrDuplicateEmail)

	// 更新自身不算冲突
	renamed, err := saved.UpdateName("Lee", now)
	require.NoError(t, err)
	_, err = repo.Save(ctx, renamed)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, saved))
	got, err = repo.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Nil(t, got)
	missing, err := repo.FindByEmail(ctx, domain.MustEmail("a@b.com"))
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMealRepoOrdering(t *testing.T) {
	ctx := context.Background()
	repo := New().Meals()
	for _, off := range []int{2, 0, 1, 0} {
		_, err := repo.Save(ctx, newMeal(t, today.AddDays(off), meal.Lunch))
		require.NoError(t, err)
	}

	day, err := repo.FindByDate(ctx, today)
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, int64(2), day[0].ID().Value())
	assert.Equal(t, int64(4), day[1].ID().Value())

	rng, err := repo.FindByDateRange(ctx, today, today.AddDays(1))
	require.NoError(t, err)
	require.Len(t, rng, 3)
	assert.Equal(t, today.AddDays(1), rng[2].Date())

	empty, err := repo.FindByDate(ctx, today.AddDays(-1))
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")

	err := s.Transaction(ctx, func(tx service.Store) error {
		if _, err := tx.Users().Save(ctx, newUser(t, "a@b.com")); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	exists, err := s.Users().ExistsByEmail(ctx, domain.MustEmail("a@b.com"))
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.Transaction(ctx, func(tx service.Store) error {
		_, err := tx.Users().Save(ctx, newUser(t, "a@b.com"))
		return err
	})
	require.NoError(t, err)
	exists, err = s.Users().ExistsByEmail(ctx, domain.MustEmail("a@b.com"))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestConcurrentRegistrationSameEmail(t *testing.T) {
	ctx := context.Background()
	s := New()
	svcUsers := func(st service.Store) *user.Service {
		return user.NewService(st.Users(), plainHasher{}, domain.FixedClock{T: now})
	}

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.Transaction(ctx, func(tx service.Store) error {
				_, err := svcUsers(tx).CreateUser(ctx, domain.MustEmail("race@b.com"), "pw", "Kim", "1")
				return err
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrDuplicateEmail)
	}
	assert.Equal(t, 1, ok)
}

type plainHasher struct{}

func (plainHasher) Encode(raw string) (string, error) { return "h:" + raw, nil }
func (plainHasher) Matches(raw, hash string) bool     { return hash == "h:"+raw }
