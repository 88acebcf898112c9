package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"kapp-api/internal/core/auth"
	"kapp-api/internal/domain"
	"kapp-api/internal/domain/user"
)

type AuthService struct {
	users  *user.Service
	jwt    *auth.JWTer
	admins map[string]struct{}
	clock  domain.Clock
	log    *zap.Logger
}

func newAuthService(users *user.Service, d Deps) *AuthService {
	admins := make(map[string]struct{}, len(d.AdminEmails))
	for _, e := range d.AdminEmails {
		admins[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return &AuthService{users: users, jwt: d.JWT, admins: admins, clock: d.Clock, log: d.Log}
}

type RegisterInput struct {
	Email             string
	Password          string
	Name              string
	StudentEmployeeID string
}

// Register 注册；调用方应放在事务里执行
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (user.User, error) {
	email, err := domain.NewEmail(strings.TrimSpace(in.Email))
	if err != nil {
		registrationsTotal.WithLabelValues("invalid").Inc()
		return user.User{}, err
	}
	u, err := s.users.CreateUser(ctx, email, in.Password, strings.TrimSpace(in.Name), strings.TrimSpace(in.StudentEmployeeID))
	switch {
	case errors.Is(err, domain.ErrDuplicateEmail):
		registrationsTotal.WithLabelValues("duplicate").Inc()
		return user.User{}, err
	case err != nil:
		registrationsTotal.WithLabelValues("error").Inc()
		return user.User{}, err
	}
	registrationsTotal.WithLabelValues("ok").Inc()
	s.log.Info("user registered", zap.Int64("uid", u.ID().Value()))
	return u, nil
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Role      string
	User      user.User
}

// Login 校验密码并签发 JWT；格式不合法的邮箱同样按凭证错误处理
func (s *AuthService) Login(ctx context.Context, rawEmail, password string) (LoginResult, error) {
	email, err := domain.NewEmail(strings.TrimSpace(rawEmail))
	if err != nil {
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		return LoginResult{}, domain.ErrInvalidCredentials
	}
	u, err := s.users.AuthenticateUser(ctx, email, password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			loginsTotal.WithLabelValues("invalid_credentials").Inc()
		} else {
			loginsTotal.WithLabelValues("error").Inc()
		}
		return LoginResult{}, err
	}

	role := s.RoleOf(u.Email())
	tok, err := s.jwt.Issue(u.ID().Value(), u.Email().Value(), role)
	if err != nil {
		loginsTotal.WithLabelValues("error").Inc()
		return LoginResult{}, err
	}
	loginsTotal.WithLabelValues("ok").Inc()
	return LoginResult{
		Token:     tok,
		ExpiresAt: s.clock.Now().Add(s.jwt.TTL),
		Role:      role,
		User:      u,
	}, nil
}

func (s *AuthService) RoleOf(email domain.Email) string {
	if _, ok := s.admins[strings.ToLower(email.Value())]; ok {
		return auth.RoleAdmin
	}
	return auth.RoleUser
}

func (s *AuthService) Me(ctx context.Context, uid int64) (user.User, error) {
	id, err := user.NewID(uid)
	if err != nil {
		return user.User{}, err
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *AuthService) Rename(ctx context.Context, uid int64, name string) (user.User, error) {
	id, err := user.NewID(uid)
	if err != nil {
		return user.User{}, err
	}
	return s.users.UpdateUserName(ctx, id, strings.TrimSpace(name))
}

func (s *AuthService) ChangePassword(ctx context.Context, uid int64, current, next string) error {
	id, err := user.NewID(uid)
	if err != nil {
		return err
	}
	if _, err := s.users.ChangePassword(ctx, id, current, next); err != nil {
		return err
	}
	s.log.Info("password changed", zap.Int64("uid", uid))
	return nil
}
