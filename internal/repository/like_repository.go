package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/match-chat/internal/model"
)

type LikeRepository interface {
	Create(ctx context.Context, fromID, toID string) error
	Exists(ctx context.Context, fromID, toID string) (bool, error)
}

type likeRepository struct {
	db *gorm.DB
}

func NewLikeRepository(db *gorm.DB) LikeRepository { return &likeRepository{db: db} }

func (r *likeRepository) Create(ctx context.Context, fromID, toID string) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()
	l := &model.Like{ID: uuid.New().String(), FromID: fromID, ToID: toID}
	// 幂等：重复喜欢不报错
	return translate(r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(l).Error)
}

func (r *likeRepository) Exists(ctx context.Context, fromID, toID string) (bool, error) {
	var cnt int64
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Model(&model.Like{}).
			Where("from_id = ? AND to_id = ?", fromID, toID).
			Count(&cnt).Error
	})
	if err != nil {
		return false, err
	}
	return cnt > 0, nil
}
