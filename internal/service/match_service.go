package service

import (
	"context"
	"errors"

	"github.com/d60-Lab/match-chat/internal/event"
	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
)

var (
	ErrSelfLike     = errors.New("cannot like self")
	ErrUserNotFound = errors.New("user not found")
)

// LikeResult recordLike 的可观测结果
type LikeResult struct {
	Matched bool   `json:"matched"`
	MatchID string `json:"matchId,omitempty"`
}

// ChatInfo 用户的一个会话（房间即 Match）
type ChatInfo struct {
	MatchID string `json:"matchId"`
	ChatID  string `json:"chatId"`
	PeerID  string `json:"peerId"`
}

// MatchService 匹配引擎：记录喜欢、探测互喜欢、建 Match（每对至多一次）
type MatchService interface {
	RecordLike(ctx context.Context, fromID, toID string) (LikeResult, error)
	ListMatches(ctx context.Context, userID string) ([]*model.Match, error)
	ListChats(ctx context.Context, userID string) ([]ChatInfo, error)
}

type matchService struct {
	userRepo  repository.UserRepository
	likeRepo  repository.LikeRepository
	matchRepo repository.MatchRepository
	notifier  *Notifier
}

func NewMatchService(userRepo repository.UserRepository, likeRepo repository.LikeRepository, matchRepo repository.MatchRepository, notifier *Notifier) MatchService {
	return &matchService{userRepo: userRepo, likeRepo: likeRepo, matchRepo: matchRepo, notifier: notifier}
}

func (s *matchService) RecordLike(ctx context.Context, fromID, toID string) (LikeResult, error) {
	if fromID == toID {
		return LikeResult{}, ErrSelfLike
	}
	ok, err := s.userRepo.Exists(ctx, toID)
	if err != nil {
		return LikeResult{}, err
	}
	if !ok {
		return LikeResult{}, ErrUserNotFound
	}

	if err := s.likeRepo.Create(ctx, fromID, toID); err != nil {
		return LikeResult{}, err
	}

	reciprocal, err := s.likeRepo.Exists(ctx, toID, fromID)
	if err != nil {
		return LikeResult{}, err
	}
	if !reciprocal {
		return LikeResult{Matched: false}, nil
	}

	// 互喜欢成立；并发双向 RecordLike 靠 pair_key 唯一键收敛到同一条
	m, created, err := s.matchRepo.CreateIfAbsent(ctx, fromID, toID)
	if err != nil {
		return LikeResult{}, err
	}
	if created && s.notifier != nil {
		s.notifier.NotifyMatch(ctx, fromID, event.MatchedEvent{With: toID, MatchID: m.ID})
		s.notifier.NotifyMatch(ctx, toID, event.MatchedEvent{With: fromID, MatchID: m.ID})
	}
	return LikeResult{Matched: true, MatchID: m.ID}, nil
}

func (s *matchService) ListMatches(ctx context.Context, userID string) ([]*model.Match, error) {
	return s.matchRepo.ListByUser(ctx, userID)
}

func (s *matchService) ListChats(ctx context.Context, userID string) ([]ChatInfo, error) {
	matches, err := s.matchRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	res := make([]ChatInfo, len(matches))
	for i, m := range matches {
		// chat_id 即 match id（房间派生自 Match）
		res[i] = ChatInfo{MatchID: m.ID, ChatID: m.ID, PeerID: m.PeerOf(userID)}
	}
	return res, nil
}
