package model

import "time"

// Message 聊天消息（append-only，自增 id 作同时间戳的插入序）
type Message struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	ChatID    string    `gorm:"type:varchar(36);index:idx_msg_chat_time;not null" json:"chatId"`
	SenderID  string    `gorm:"type:varchar(36);not null" json:"fromId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `gorm:"index:idx_msg_chat_time" json:"ts"`
}

func (Message) TableName() string { return "messages" }
