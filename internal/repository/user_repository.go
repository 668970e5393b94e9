package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/d60-Lab/match-chat/internal/model"
)

var ErrDuplicateEmail = errors.New("email already registered")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	FindByID(ctx context.Context, id string) (*model.User, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	Exists(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, excludeID string, limit int) ([]*model.User, error)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository { return &userRepository{db: db} }

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateEmail
	}
	return translate(err)
}

func (r *userRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var u model.User
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("email = ?", email).First(&u).Error
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Exists(ctx context.Context, id string) (bool, error) {
	var cnt int64
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", id).
			Count(&cnt).Error
	})
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}

func (r *userRepository) List(ctx context.Context, excludeID string, limit int) ([]*model.User, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var res []*model.User
	err := readWithRetry(ctx, func(ctx context.Context) error {
		q := r.db.WithContext(ctx).Model(&model.User{}).Limit(limit)
		if excludeID != "" {
			q = q.Where("id != ?", excludeID)
		}
		return q.Find(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
