package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/d60-Lab/match-chat/config"
	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
	"github.com/d60-Lab/match-chat/internal/service"
	"github.com/d60-Lab/match-chat/pkg/database"
	"github.com/d60-Lab/match-chat/pkg/logger"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(key string, def int) int {
	if s := os.Getenv(key); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// 压测喜欢风暴：N 个用户随机互相喜欢，校验 Match 行数且统计延迟分位
func main() {
	cfg := must(config.Load())
	_ = logger.Init("release")
	db := must(database.InitDB(cfg))

	userRepo := repository.NewUserRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	matchSvc := service.NewMatchService(userRepo, likeRepo, matchRepo, nil)

	ctx := context.Background()

	N := envInt("N", 2000)
	CONC := envInt("CONC", 8)

	// seed users
	users := make([]model.User, N)
	batch := 1000
	for i := 0; i < N; i++ {
		id := uuid.New().String()
		users[i] = model.User{ID: id, Name: "u" + id[:8], Email: id[:8] + "@example.com", Password: "p", Age: 20}
		if (i+1)%batch == 0 {
			sub := users[i+1-batch : i+1]
			_ = db.Create(&sub).Error
		}
	}
	if N%batch != 0 {
		sub := users[N-N%batch:]
		_ = db.Create(&sub).Error
	}

	// 每个用户喜欢若干随机对象，天然产生双向对
	type pair struct{ from, to string }
	ops := make([]pair, 0, N*4)
	for i := 0; i < N; i++ {
		for k := 0; k < 4; k++ {
			j := rand.Intn(N)
			if j == i {
				continue
			}
			ops = append(ops, pair{users[i].ID, users[j].ID})
		}
	}

	recs := make([]time.Duration, 0, len(ops))
	recCh := make(chan time.Duration, len(ops))
	feed := make(chan pair, len(ops))
	for _, op := range ops {
		feed <- op
	}
	close(feed)

	t0 := time.Now()
	doneCh := make(chan struct{}, CONC)
	for w := 0; w < CONC; w++ {
		go func() {
			for op := range feed {
				st := time.Now()
				_, _ = matchSvc.RecordLike(ctx, op.from, op.to)
				recCh <- time.Since(st)
			}
			doneCh <- struct{}{}
		}()
	}
	for w := 0; w < CONC; w++ {
		<-doneCh
	}
	close(recCh)
	for d := range recCh {
		recs = append(recs, d)
	}
	total := time.Since(t0)

	// 校验：matches 行数不超过去重后的无序对数
	var likeCnt, matchCnt int64
	_ = db.Model(&model.Like{}).Count(&likeCnt).Error
	_ = db.Model(&model.Match{}).Count(&matchCnt).Error
	var dupPairs int64
	_ = db.Model(&model.Match{}).Select("count(*) - count(distinct pair_key)").Scan(&dupPairs).Error

	pct := func(vs []time.Duration, p float64) time.Duration {
		if len(vs) == 0 {
			return 0
		}
		xs := append([]time.Duration(nil), vs...)
		sort.Slice(xs, func(i, j int) bool { return xs[i] < xs[j] })
		k := int(math.Ceil(p*float64(len(xs)))) - 1
		if k < 0 {
			k = 0
		}
		if k >= len(xs) {
			k = len(xs) - 1
		}
		return xs[k]
	}

	fmt.Printf("N=%d, CONC=%d, ops=%d\n", N, CONC, len(ops))
	fmt.Printf("RecordLike total: %v, per op: %v, p50: %v, p95: %v, p99: %v\n",
		total, total/time.Duration(len(ops)), pct(recs, 0.50), pct(recs, 0.95), pct(recs, 0.99))
	fmt.Printf("likes=%d matches=%d duplicate-pair rows=%d\n", likeCnt, matchCnt, dupPairs)
}
