package repository

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/d60-Lab/match-chat/internal/model"
)

func TestMatchCreateIfAbsent_OncePerPair(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "ua", "ub")
	repo := NewMatchRepository(db)
	ctx := context.Background()

	m1, created, err := repo.CreateIfAbsent(ctx, "ua", "ub")
	require.NoError(t, err)
	require.True(t, created)

	// 反向顺序命中同一条
	m2, created, err := repo.CreateIfAbsent(ctx, "ub", "ua")
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, m1.ID, m2.ID)

	var cnt int64
	require.NoError(t, db.Model(&model.Match{}).Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestMatchCreateIfAbsent_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "ua", "ub")
	repo := NewMatchRepository(db)
	ctx := context.Background()

	// 并发双向创建只允许落一行
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%2 == 0 {
				_, _, _ = repo.CreateIfAbsent(ctx, "ua", "ub")
			} else {
				_, _, _ = repo.CreateIfAbsent(ctx, "ub", "ua")
			}
		}(i)
	}
	wg.Wait()

	var cnt int64
	require.NoError(t, db.Model(&model.Match{}).Count(&cnt).Error)
	require.EqualValues(t, 1, cnt)
}

func TestMatchCanonicalOrderAndLookups(t *testing.T) {
	db := setupTestDB(t)
	seedUsers(t, db, "ua", "ub", "uc")
	repo := NewMatchRepository(db)
	ctx := context.Background()

	m, _, err := repo.CreateIfAbsent(ctx, "ub", "ua")
	require.NoError(t, err)
	require.Equal(t, "ua", m.UserA)
	require.Equal(t, "ub", m.UserB)
	require.Equal(t, model.PairKeyOf("ua", "ub"), m.PairKey)

	got, err := repo.FindByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, m.PairKey, got.PairKey)

	_, err = repo.FindByID(ctx, "nope")
	require.Error(t, err)

	listA, err := repo.ListByUser(ctx, "ua")
	require.NoError(t, err)
	require.Len(t, listA, 1)

	listC, err := repo.ListByUser(ctx, "uc")
	require.NoError(t, err)
	require.Empty(t, listC)
}
