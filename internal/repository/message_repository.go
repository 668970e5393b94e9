package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/match-chat/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// LastCreatedAt 返回房间内最后一条消息的时间戳（无消息时 ok=false）
	LastCreatedAt(ctx context.Context, chatID string) (ts time.Time, ok bool, err error)
	ListByChat(ctx context.Context, chatID string) ([]*model.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository { return &messageRepository{db: db} }

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()
	return translate(r.db.WithContext(ctx).Create(msg).Error)
}

func (r *messageRepository) LastCreatedAt(ctx context.Context, chatID string) (time.Time, bool, error) {
	var m model.Message
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Where("chat_id = ?", chatID).
			Order("created_at DESC, id DESC").
			First(&m).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, err
	}
	return m.CreatedAt, true, nil
}

func (r *messageRepository) ListByChat(ctx context.Context, chatID string) ([]*model.Message, error) {
	var res []*model.Message
	// 时间戳升序，自增 id 兜底同刻插入序
	err := readWithRetry(ctx, func(ctx context.Context) error {
		return r.db.WithContext(ctx).
			Where("chat_id = ?", chatID).
			Order("created_at ASC, id ASC").
			Find(&res).Error
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}
