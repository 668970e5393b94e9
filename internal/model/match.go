package model

import (
	"strings"
	"time"
)

// Match 双向匹配（无序对 {a,b}，UserA < UserB 规范序）
// ChatRoom 与 Match 同生命周期：chat_id 即 match id，不单独落表
type Match struct {
	ID    string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserA string `gorm:"type:varchar(36);index:idx_match_a;not null" json:"a"`
	UserB string `gorm:"type:varchar(36);index:idx_match_b;not null" json:"b"`
	// 规范化无序对唯一键："<lo>:<hi>"，同一对用户至多一条 Match
	PairKey   string    `gorm:"type:varchar(80);uniqueIndex:ux_match_pair;not null" json:"-"`
	CreatedAt time.Time `json:"ts"`
}

func (Match) TableName() string { return "matches" }

// PairKeyOf 无序对规范化
func PairKeyOf(u1, u2 string) string {
	lo, hi := u1, u2
	if strings.Compare(lo, hi) > 0 {
		lo, hi = hi, lo
	}
	return lo + ":" + hi
}

// HasParticipant 判断 user 是否为该 Match 的参与者
func (m *Match) HasParticipant(userID string) bool {
	return m.UserA == userID || m.UserB == userID
}

// PeerOf 返回对端用户 id（user 不是参与者时返回空串）
func (m *Match) PeerOf(userID string) string {
	switch userID {
	case m.UserA:
		return m.UserB
	case m.UserB:
		return m.UserA
	}
	return ""
}
