package user

import (
	"context"
	"fmt"

	"kapp-api/internal/domain"
)

// Service 用户领域服务：注册、认证、查询、改名
type Service struct {
	repo   Repository
	hasher PasswordHasher
	clock  domain.Clock
}

func NewService(repo Repository, hasher PasswordHasher, clock domain.Clock) *Service {
	return &Service{repo: repo, hasher: hasher, clock: clock}
}

// CreateUser 注册新用户。
// “先查后插”本身不防并发，调用方需在事务内执行并依赖 email 唯一索引。
func (s *Service) CreateUser(ctx context.Context, email domain.Email, rawPassword, name, studentEmployeeID string) (User, error) {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return User{}, domain.Errorf(domain.ErrDuplicateEmail, "%s", email)
	}

	hashed, err := s.hash(rawPassword)
	if err != nil {
		return User{}, err
	}

	u, err := New(email, hashed, name, studentEmployeeID, s.clock.Now())
	if err != nil {
		return User{}, err
	}
	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}

// AuthenticateUser 用户不存在与密码错误返回同一个错误
func (s *Service) AuthenticateUser(ctx context.Context, email domain.Email, rawPassword string) (User, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return User{}, domain.ErrInvalidCredentials
	}
	if !s.hasher.Matches(rawPassword, u.password.value) {
		return User{}, domain.ErrInvalidCredentials
	}
	return *u, nil
}

func (s *Service) GetUserByID(ctx context.Context, id ID) (User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return User{}, fmt.Errorf("find user: %w", err)
	}
	if u == nil {
		return User{}, domain.Errorf(domain.ErrUserNotFound, "id %s", id)
	}
	return *u, nil
}

func (s *Service) UpdateUserName(ctx context.Context, id ID, newName string) (User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	updated, err := u.UpdateName(newName, s.clock.Now())
	if err != nil {
		return User{}, err
	}
	return s.save(ctx, updated)
}

// ChangePassword 校验旧密码后替换为新密码
func (s *Service) ChangePassword(ctx context.Context, id ID, currentRaw, newRaw string) (User, error) {
	u, err := s.GetUserByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !s.hasher.Matches(currentRaw, u.password.value) {
		return User{}, domain.ErrInvalidCredentials
	}
	hashed, err := s.hash(newRaw)
	if err != nil {
		return User{}, err
	}
	updated, err := u.UpdatePassword(hashed, s.clock.Now())
	if err != nil {
		return User{}, err
	}
	return s.save(ctx, updated)
}

func (s *Service) hash(raw string) (HashedPassword, error) {
	h, err := s.hasher.Encode(raw)
	if err != nil {
		return HashedPassword{}, fmt.Errorf("hash password: %w", err)
	}
	return NewHashedPassword(h)
}

func (s *Service) save(ctx context.Context, u User) (User, error) {
	saved, err := s.repo.Save(ctx, u)
	if err != nil {
		return User{}, fmt.Errorf("save user: %w", err)
	}
	return saved, nil
}
