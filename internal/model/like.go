package model

import "time"

// Like 单向喜欢（A 喜欢 B）
type Like struct {
	ID     string `gorm:"primaryKey;type:varchar(36)"`
	FromID string `gorm:"type:varchar(36);index:idx_like_from;index:idx_like_pair,unique;not null"`
	ToID   string `gorm:"type:varchar(36);not null;index:idx_like_pair,unique"`
	// 复合唯一键，重复喜欢不落重复行
	// idx_like_pair = (from_id, to_id)
	CreatedAt time.Time
}

func (Like) TableName() string { return "likes" }
