package service

import (
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
)

type testRepos struct {
	db    *gorm.DB
	user  repository.UserRepository
	like  repository.LikeRepository
	match repository.MatchRepository
	msg   repository.MessageRepository
}

func setupTestRepos(t *testing.T) *testRepos {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&model.User{}, &model.Like{}, &model.Match{}, &model.Message{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return &testRepos{
		db:    db,
		user:  repository.NewUserRepository(db),
		like:  repository.NewLikeRepository(db),
		match: repository.NewMatchRepository(db),
		msg:   repository.NewMessageRepository(db),
	}
}

func seedUser(t *testing.T, db *gorm.DB, id string) {
	t.Helper()
	u := model.User{ID: id, Name: id, Email: id + "@example.com", Password: "p", Age: 20}
	if err := db.Create(&u).Error; err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

// recordingHub 记录扇出顺序的 RoomBroadcaster 假件
type recordingHub struct {
	mu       sync.Mutex
	payloads map[string][][]byte // chatID -> 按投递顺序
}

func newRecordingHub() *recordingHub {
	return &recordingHub{payloads: make(map[string][][]byte)}
}

func (h *recordingHub) BroadcastRoom(chatID string, payload []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.payloads[chatID] = append(h.payloads[chatID], payload)
}

func (h *recordingHub) delivered(chatID string) [][]byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([][]byte(nil), h.payloads[chatID]...)
}
