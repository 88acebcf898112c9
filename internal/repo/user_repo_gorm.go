package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"kapp-api/internal/core/database"
	"kapp-api/internal/domain"
	"kapp-api/internal/domain/user"
	usermodel "kapp-api/internal/feature/user"
)

// UserRepo user.Repository 的 gorm 实现
type UserRepo struct{ db *gorm.DB }

func NewUserRepo(db *gorm.DB) *UserRepo { return &UserRepo{db: db} }

func (r *UserRepo) Save(ctx context.Context, u user.User) (user.User, error) {
	m := toUserModel(u)
	db := r.db.WithContext(ctx)

	var err error
	if u.IsNew() {
		err = db.Create(&m).Error
	} else {
		err = db.Save(&m).Error
	}
	if database.IsDuplicateKey(err) {
		return user.User{}, domain.Errorf(domain.ErrDuplicateEmail, "%s", u.Email())
	}
	if err != nil {
		return user.User{}, err
	}
	if !u.IsNew() {
		return u, nil
	}
	id, err := user.NewID(int64(m.ID))
	if err != nil {
		return user.User{}, err
	}
	return u.WithID(id), nil
}

func (r *UserRepo) FindByID(ctx context.Context, id user.ID) (*user.User, error) {
	return r.first(ctx, "id = ?", id.Value())
}

func (r *UserRepo) FindByEmail(ctx context.Context, email domain.Email) (*user.User, error) {
	return r.first(ctx, "email = ?", email.Value())
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email domain.Email) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&usermodel.UserModel{}).Where("email = ?", email.Value()).Count(&n).Error
	return n > 0, err
}

func (r *UserRepo) Delete(ctx context.Context, u user.User) error {
	return r.db.WithContext(ctx).Delete(&usermodel.UserModel{}, u.ID().Value()).Error
}

func (r *UserRepo) first(ctx context.Context, query string, arg any) (*user.User, error) {
	var m usermodel.UserModel
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u, err := toUser(m)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func toUserModel(u user.User) usermodel.UserModel {
	return usermodel.UserModel{
		ID:                uint64(u.ID().Value()),
		Email:             u.Email().Value(),
		Name:              u.Name(),
		PasswordHash:      u.Password().Value(),
		StudentEmployeeID: u.StudentEmployeeID(),
		CreatedAt:         u.CreatedAt(),
		UpdatedAt:         u.UpdatedAt(),
	}
}

// toUser 从行重建聚合；脏数据按错误返回，不静默丢弃
func toUser(m usermodel.UserModel) (user.User, error) {
	id, err := user.NewID(int64(m.ID))
	if err != nil {
		return user.User{}, fmt.Errorf("user row %d: %w", m.ID, err)
	}
	email, err := domain.NewEmail(m.Email)
	if err != nil {
		return user.User{}, fmt.Errorf("user row %d: %w", m.ID, err)
	}
	pw, err := user.NewHashedPassword(m.PasswordHash)
	if err != nil {
		return user.User{}, fmt.Errorf("user row %d: %w", m.ID, err)
	}
	u, err := user.Restore(id, email, pw, m.Name, m.StudentEmployeeID, m.CreatedAt, m.UpdatedAt)
	if err != nil {
		return user.User{}, fmt.Errorf("user row %d: %w", m.ID, err)
	}
	return u, nil
}
