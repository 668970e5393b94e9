package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/match-chat/internal/event"
	"github.com/d60-Lab/match-chat/pkg/logger"
)

const userChannelPrefix = "user:"

// UserSender 将负载投递到某用户的本地连接；无在线连接时返回 false
type UserSender interface {
	SendToUser(userID string, payload []byte) bool
}

// Notifier 私有通道事件路由：经 redis pub/sub 跨实例投递，
// 订阅端把 user:<id> 频道的负载转给本进程内该用户的连接。
// 用户离线时事件直接丢弃（已记录的限制，无离线投递）。
type Notifier struct {
	rdb    *redis.Client
	sender UserSender
}

func NewNotifier(rdb *redis.Client, sender UserSender) *Notifier {
	return &Notifier{rdb: rdb, sender: sender}
}

// NotifyMatch 向 userID 的私有通道投递新匹配事件
func (n *Notifier) NotifyMatch(ctx context.Context, userID string, ev event.MatchedEvent) {
	payload, err := event.Marshal(event.TypeMatched, ev)
	if err != nil {
		logger.Error("marshal matched event", zap.Error(err))
		return
	}
	if err := n.rdb.Publish(ctx, userChannelPrefix+userID, payload).Err(); err != nil {
		// 投递失败按丢弃处理，不上抛
		logger.Warn("publish matched event", zap.String("user", userID), zap.Error(err))
	}
}

// Start 启动订阅循环，返回停止函数。
// 返回前等待订阅确认：确认失败直接报错，不在死订阅上静默丢事件。
func (n *Notifier) Start(ctx context.Context) (func(context.Context) error, error) {
	ps := n.rdb.PSubscribe(ctx, userChannelPrefix+"*")
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("subscribe %s*: %w", userChannelPrefix, err)
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for msg := range ps.Channel() {
			userID := strings.TrimPrefix(msg.Channel, userChannelPrefix)
			if !n.sender.SendToUser(userID, []byte(msg.Payload)) {
				logger.Debug("notification dropped, user offline", zap.String("user", userID))
			}
		}
	}()
	return func(context.Context) error {
		if err := ps.Close(); err != nil {
			return err
		}
		<-done
		return nil
	}, nil
}
