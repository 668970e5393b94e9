package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/d60-Lab/match-chat/internal/api"
	"github.com/d60-Lab/match-chat/internal/api/handler"
	"github.com/d60-Lab/match-chat/internal/event"
	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/internal/ws"
)

type env struct {
	srv *httptest.Server
	hub *ws.Hub
	db  *gorm.DB
}

func setupEnv(t *testing.T) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Like{}, &model.Match{}, &model.Message{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	msgRepo := repository.NewMessageRepository(db)

	hub := ws.NewHub()
	notifier := service.NewNotifier(rdb, hub)
	stop, err := notifier.Start(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = stop(context.Background()) })

	authSvc := service.NewAuthService(userRepo, "test-secret", time.Hour)
	matchSvc := service.NewMatchService(userRepo, likeRepo, matchRepo, notifier)
	chatSvc := service.NewChatService(matchRepo, msgRepo, hub)

	h := handler.New(authSvc, matchSvc, chatSvc, userRepo, hub)
	srv := httptest.NewServer(api.NewRouter(h, authSvc, false))
	t.Cleanup(srv.Close)

	return &env{srv: srv, hub: hub, db: db}
}

type apiResponse struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (e *env) do(t *testing.T, method, path, token string, body any) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out apiResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *env) register(t *testing.T, name string) (token, userID string) {
	t.Helper()
	status, resp := e.do(t, http.MethodPost, "/api/register", "", gin.H{
		"name":     name,
		"email":    strings.ToLower(name) + "@example.com",
		"password": "secret123",
		"age":      22,
	})
	require.Equal(t, http.StatusOK, status)
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	return data.Token, data.User.ID
}

func (e *env) like(t *testing.T, token, to string) (int, service.LikeResult) {
	t.Helper()
	status, resp := e.do(t, http.MethodPost, "/api/like", token, gin.H{"to": to})
	var res service.LikeResult
	if status == http.StatusOK {
		require.NoError(t, json.Unmarshal(resp.Data, &res))
	}
	return status, res
}

func (e *env) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	payload, err := event.Marshal(typ, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, payload))
}

func readEnvelope(t *testing.T, conn *websocket.Conn, timeout time.Duration) event.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var ev event.Envelope
	require.NoError(t, json.Unmarshal(raw, &ev))
	return ev
}

func TestScenario_LikeMatchChat(t *testing.T) {
	e := setupEnv(t)

	tokenA, idA := e.register(t, "Ana")
	tokenB, idB := e.register(t, "Bea")

	// A 喜欢 B：尚无匹配
	status, res := e.like(t, tokenA, idB)
	require.Equal(t, http.StatusOK, status)
	require.False(t, res.Matched)

	// B 喜欢 A：成双
	status, res = e.like(t, tokenB, idA)
	require.Equal(t, http.StatusOK, status)
	require.True(t, res.Matched)
	require.NotEmpty(t, res.MatchID)
	matchID := res.MatchID

	// A 发 "hola"
	status, _ = e.do(t, http.MethodPost, "/api/messages/"+matchID, tokenA, gin.H{"text": "hola"})
	require.Equal(t, http.StatusOK, status)

	// B 读历史
	status, resp := e.do(t, http.MethodGet, "/api/messages/"+matchID, tokenB, nil)
	require.Equal(t, http.StatusOK, status)
	var msgs []model.Message
	require.NoError(t, json.Unmarshal(resp.Data, &msgs))
	require.Len(t, msgs, 1)
	require.Equal(t, idA, msgs[0].SenderID)
	require.Equal(t, "hola", msgs[0].Text)

	// 双方的 matches / chats 都能看到
	for _, token := range []string{tokenA, tokenB} {
		status, resp = e.do(t, http.MethodGet, "/api/matches", token, nil)
		require.Equal(t, http.StatusOK, status)
		var matches []model.Match
		require.NoError(t, json.Unmarshal(resp.Data, &matches))
		require.Len(t, matches, 1)
		require.Equal(t, matchID, matches[0].ID)

		status, resp = e.do(t, http.MethodGet, "/api/chats", token, nil)
		require.Equal(t, http.StatusOK, status)
		var chats []service.ChatInfo
		require.NoError(t, json.Unmarshal(resp.Data, &chats))
		require.Len(t, chats, 1)
		require.Equal(t, matchID, chats[0].ChatID)
	}
}

func TestHTTP_ErrorMapping(t *testing.T) {
	e := setupEnv(t)

	tokenA, idA := e.register(t, "Ana")
	tokenB, idB := e.register(t, "Bea")
	tokenC, _ := e.register(t, "Caro")

	// 自我喜欢
	status, _ := e.like(t, tokenA, idA)
	require.Equal(t, http.StatusBadRequest, status)

	// 未知用户
	status, _ = e.like(t, tokenA, "ghost")
	require.Equal(t, http.StatusNotFound, status)

	// 未带令牌
	status, _ = e.do(t, http.MethodGet, "/api/matches", "", nil)
	require.Equal(t, http.StatusUnauthorized, status)

	// 非参与者访问房间
	e.like(t, tokenA, idB)
	_, res := e.like(t, tokenB, idA)
	require.True(t, res.Matched)

	status, _ = e.do(t, http.MethodGet, "/api/messages/"+res.MatchID, tokenC, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = e.do(t, http.MethodPost, "/api/messages/"+res.MatchID, tokenC, gin.H{"text": "hi"})
	require.Equal(t, http.StatusForbidden, status)

	// 不存在的房间
	status, _ = e.do(t, http.MethodGet, "/api/messages/nope", tokenA, nil)
	require.Equal(t, http.StatusNotFound, status)

	// 空消息
	status, _ = e.do(t, http.MethodPost, "/api/messages/"+res.MatchID, tokenA, gin.H{"text": "   "})
	require.Equal(t, http.StatusBadRequest, status)
}

func TestWS_BadTokenRejected(t *testing.T) {
	e := setupEnv(t)
	url := "ws" + strings.TrimPrefix(e.srv.URL, "http") + "/ws?token=garbage"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.Nil(t, conn)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWS_JoinSendReceive(t *testing.T) {
	e := setupEnv(t)

	tokenA, idA := e.register(t, "Ana")
	tokenB, idB := e.register(t, "Bea")
	e.like(t, tokenA, idB)
	_, res := e.like(t, tokenB, idA)
	require.True(t, res.Matched)
	chatID := res.MatchID

	connB := e.dial(t, tokenB)
	require.Eventually(t, func() bool { return e.hub.UserOnline(idB) }, 2*time.Second, 10*time.Millisecond)

	sendEvent(t, connB, event.TypeJoinChat, chatID)
	require.Eventually(t, func() bool { return e.hub.RoomSize(chatID) == 1 }, 2*time.Second, 10*time.Millisecond)

	// A 走 HTTP 兜底发消息，B 的连接实时收到
	status, _ := e.do(t, http.MethodPost, "/api/messages/"+chatID, tokenA, gin.H{"text": "hola"})
	require.Equal(t, http.StatusOK, status)

	got := readEnvelope(t, connB, 2*time.Second)
	require.Equal(t, event.TypeMessage, got.Type)
	var ev event.MessageEvent
	require.NoError(t, json.Unmarshal(got.Data, &ev))
	require.Equal(t, chatID, ev.ChatID)
	require.Equal(t, idA, ev.From)
	require.Equal(t, "hola", ev.Text)

	// B 经实时通道发送，自己也在房间内收到回放
	sendEvent(t, connB, event.TypeSendMessage, event.SendMessagePayload{ChatID: chatID, Text: "que tal"})
	got = readEnvelope(t, connB, 2*time.Second)
	require.Equal(t, event.TypeMessage, got.Type)
	require.NoError(t, json.Unmarshal(got.Data, &ev))
	require.Equal(t, idB, ev.From)
	require.Equal(t, "que tal", ev.Text)
}

func TestWS_OutsiderGetsNoDelivery(t *testing.T) {
	e := setupEnv(t)

	tokenA, idA := e.register(t, "Ana")
	tokenB, idB := e.register(t, "Bea")
	tokenC, idC := e.register(t, "Caro")
	e.like(t, tokenA, idB)
	_, res := e.like(t, tokenB, idA)
	chatID := res.MatchID

	connC := e.dial(t, tokenC)
	require.Eventually(t, func() bool { return e.hub.UserOnline(idC) }, 2*time.Second, 10*time.Millisecond)

	// 非参与者加入被拒
	sendEvent(t, connC, event.TypeJoinChat, chatID)
	got := readEnvelope(t, connC, 2*time.Second)
	require.Equal(t, event.TypeError, got.Type)
	var ee event.ErrorEvent
	require.NoError(t, json.Unmarshal(got.Data, &ee))
	require.Equal(t, "forbidden", ee.Code)

	// 房间消息不会飘到 C 的连接
	status, _ := e.do(t, http.MethodPost, "/api/messages/"+chatID, tokenA, gin.H{"text": "privado"})
	require.Equal(t, http.StatusOK, status)

	require.NoError(t, connC.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	_, _, err := connC.ReadMessage()
	require.Error(t, err) // 只会超时
}

func TestWS_MatchedNotification(t *testing.T) {
	e := setupEnv(t)

	tokenB, idB := e.register(t, "Bea")
	tokenD, idD := e.register(t, "Dana")

	connB := e.dial(t, tokenB)
	require.Eventually(t, func() bool { return e.hub.UserOnline(idB) }, 2*time.Second, 10*time.Millisecond)

	_, res := e.like(t, tokenD, idB)
	require.False(t, res.Matched)
	_, res = e.like(t, tokenB, idD)
	require.True(t, res.Matched)

	got := readEnvelope(t, connB, 2*time.Second)
	require.Equal(t, event.TypeMatched, got.Type)
	var ev event.MatchedEvent
	require.NoError(t, json.Unmarshal(got.Data, &ev))
	require.Equal(t, idD, ev.With)
	require.Equal(t, res.MatchID, ev.MatchID)
}

func TestProfiles_ExcludeAndNoSecrets(t *testing.T) {
	e := setupEnv(t)
	_, idA := e.register(t, "Ana")
	e.register(t, "Bea")

	status, resp := e.do(t, http.MethodGet, fmt.Sprintf("/api/profiles?exclude=%s", idA), "", nil)
	require.Equal(t, http.StatusOK, status)

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(resp.Data, &raw))
	require.Len(t, raw, 1)
	require.NotEqual(t, idA, raw[0]["id"])
	require.NotContains(t, raw[0], "email")
	require.NotContains(t, raw[0], "password")
}

func TestHTTP_StoreOutageMapsToServiceUnavailable(t *testing.T) {
	e := setupEnv(t)
	tokenA, _ := e.register(t, "Ana")
	_, idB := e.register(t, "Bea")

	// 模拟存储故障：关闭底层连接池
	sqlDB, err := e.db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	// 读与写都按瞬态 503 上报，而不是 500
	status, resp := e.do(t, http.MethodGet, "/api/matches", tokenA, nil)
	require.Equal(t, http.StatusServiceUnavailable, status)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)

	status, _ = e.do(t, http.MethodPost, "/api/like", tokenA, gin.H{"to": idB})
	require.Equal(t, http.StatusServiceUnavailable, status)
}
