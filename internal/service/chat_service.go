package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/d60-Lab/match-chat/internal/event"
	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/pkg/logger"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrForbidden    = errors.New("not a participant of this chat")
	ErrEmptyMessage = errors.New("message text is empty")
)

// RoomBroadcaster 把负载按持久化顺序投递给房间内所有在线连接
type RoomBroadcaster interface {
	BroadcastRoom(chatID string, payload []byte)
}

// ChatService 房间内消息：成员校验、落库、按序扇出
type ChatService interface {
	// Authorize 校验 userID 是否为 chatID 背后 Match 的参与者
	Authorize(ctx context.Context, userID, chatID string) error
	PostMessage(ctx context.Context, chatID, senderID, text string) (*model.Message, error)
	ListMessages(ctx context.Context, chatID, requesterID string) ([]*model.Message, error)
}

type chatService struct {
	matchRepo repository.MatchRepository
	msgRepo   repository.MessageRepository
	hub       RoomBroadcaster

	// 每房间一把锁：落库 + 扇出作为一个临界区，保证投递序 == 持久化序
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewChatService(matchRepo repository.MatchRepository, msgRepo repository.MessageRepository, hub RoomBroadcaster) ChatService {
	return &chatService{matchRepo: matchRepo, msgRepo: msgRepo, hub: hub, locks: make(map[string]*sync.Mutex)}
}

func (s *chatService) Authorize(ctx context.Context, userID, chatID string) error {
	m, err := s.matchRepo.FindByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChatNotFound
		}
		return err
	}
	if !m.HasParticipant(userID) {
		// 越权访问按滥用信号记录
		logger.Warn("membership check failed", zap.String("user", userID), zap.String("chat", chatID))
		return ErrForbidden
	}
	return nil
}

func (s *chatService) PostMessage(ctx context.Context, chatID, senderID, text string) (*model.Message, error) {
	if err := s.Authorize(ctx, senderID, chatID); err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}

	lock := s.roomLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	// 房间内时间戳单调不减：新消息时间被夹到不早于上一条
	ts := time.Now()
	if last, ok, err := s.msgRepo.LastCreatedAt(ctx, chatID); err != nil {
		return nil, err
	} else if ok && ts.Before(last) {
		ts = last
	}

	msg := &model.Message{ChatID: chatID, SenderID: senderID, Text: text, CreatedAt: ts}
	if err := s.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	if s.hub != nil {
		payload, err := event.Marshal(event.TypeMessage, event.MessageEvent{
			ChatID: chatID, From: senderID, Text: text, Ts: msg.CreatedAt,
		})
		if err == nil {
			s.hub.BroadcastRoom(chatID, payload)
		}
	}
	return msg, nil
}

func (s *chatService) ListMessages(ctx context.Context, chatID, requesterID string) ([]*model.Message, error) {
	if err := s.Authorize(ctx, requesterID, chatID); err != nil {
		return nil, err
	}
	return s.msgRepo.ListByChat(ctx, chatID)
}

func (s *chatService) roomLock(chatID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[chatID] = l
	}
	return l
}
