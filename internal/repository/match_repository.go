package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/d60-Lab/match-chat/internal/model"
)

type MatchRepository interface {
	// CreateIfAbsent 以规范化无序对为键原子地“不存在则创建”。
	// 返回该对用户的唯一 Match；created 表示本次调用是否新建。
	CreateIfAbsent(ctx context.Context, u1, u2 string) (m *model.Match, created bool, err error)
	FindByID(ctx context.Context, id string) (*model.Match, error)
	FindByPair(ctx context.Context, u1, u2 string) (*model.Match, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Match, error)
}

type matchRepository struct {
	db *gorm.DB
}

func NewMatchRepository(db *gorm.DB) MatchRepository { return &matchRepository{db: db} }

func (r *matchRepository) CreateIfAbsent(ctx context.Context, u1, u2 string) (*model.Match, bool, error) {
	a, b := u1, u2
	if a > b {
		a, b = b, a
	}
	m := &model.Match{ID: uuid.New().String(), UserA: a, UserB: b, PairKey: model.PairKeyOf(u1, u2)}
	wctx, cancel := storeCtx(ctx)
	defer cancel()
	// ux_match_pair 唯一键 + DoNothing：并发双向喜欢也只落一行
	res := r.db.WithContext(wctx).Clauses(clause.OnConflict{DoNothing: true}).Create(m)
	if res.Error != nil {
		return nil, false, translate(res.Error)
	}
	if res.RowsAffected > 0 {
		return m, true, nil
	}
	// 冲突说明已存在，读回既有的那条
	existing, err := r.FindByPair(ctx, u1, u2)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

func (r *matchRepository) FindByID(ctx context.Context, id string) (*model.Match, error) {
	var m model.Match
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("id = ?", id).First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) FindByPair(ctx context.Context, u1, u2 string) (*model.Match, error) {
	var m model.Match
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).Where("pair_key = ?", model.PairKeyOf(u1, u2)).First(&m).Error
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *matchRepository) ListByUser(ctx context.Context, userID string) ([]*model.Match, error) {
	var res []*model.Match
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Where("user_a = ? OR user_b = ?", userID, userID).
			Order("created_at DESC").
			Find(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
