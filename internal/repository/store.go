package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ErrStoreUnavailable 存储瞬态失败（超时、连接断开等），调用方可重试
var ErrStoreUnavailable = errors.New("store unavailable")

const (
	storeTimeout  = 3 * time.Second
	readRetryWait = 50 * time.Millisecond
)

// storeCtx 所有存储操作的统一超时上限（fail-fast）
func storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storeTimeout)
}

// translate 把非业务性的存储错误归一为瞬态错误；
// not-found 与唯一键冲突原样透传
func translate(err error) error {
	if err == nil ||
		errors.Is(err, gorm.ErrRecordNotFound) ||
		errors.Is(err, gorm.ErrDuplicatedKey) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// readWithRetry 幂等读：瞬态失败退避后重试一次
func readWithRetry(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := storeCtx(ctx)
	defer cancel()
	err := op(ctx)
	if err == nil || errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	select {
	case <-time.After(readRetryWait):
	case <-ctx.Done():
		return translate(err)
	}
	return translate(op(ctx))
}
