package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/settleup/internal/cache"
	"github.com/mmynk/settleup/internal/calculator"
	"github.com/mmynk/settleup/internal/models"
	"github.com/mmynk/settleup/internal/storage"
)

// interleavingStore runs afterRead once, right after the next GroupRecords
// call has taken its snapshot.
type interleavingStore struct {
	storage.Store
	afterRead func()
}

func (s *interleavingStore) GroupRecords(ctx context.Context, groupID string) ([]*models.Expense, []*models.Settlement, error) {
	expenses, settlements, err := s.Store.GroupRecords(ctx, groupID)
	if hook := s.afterRead; hook != nil {
		s.afterRead = nil
		hook()
	}
	return expenses, settlements, err
}

func newTestLedger(t *testing.T, env *testEnv, store storage.Store) *Ledger {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{Addr: env.redis.Addr()})
	t.Cleanup(func() { rdb.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewLedger(store, cache.NewRedisCache(rdb, time.Minute), logger)
}

func TestLedger_WriteDuringComputeIsNotCached(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	groupID := env.createGroup(t, alice, bob)

	store := &interleavingStore{Store: env.store}
	ledger := newTestLedger(t, env, store)
	store.afterRead = func() {
		err := env.store.CreateExpense(ctx, &models.Expense{
			GroupID: groupID,
			PayerID: alice.ID,
			Amount:  dec("100"),
			Splits:  []models.Split{{UserID: bob.ID, Share: dec("100")}},
		})
		require.NoError(t, err)
		ledger.Invalidate(ctx, groupID)
	}

	// The in-flight computation saw the group before the expense.
	transfers, err := ledger.Transfers(ctx, groupID)
	require.NoError(t, err)
	assert.Empty(t, transfers)
	assert.False(t, env.redis.Exists("settleup:settlement:"+groupID), "result computed before the write was cached")

	transfers, err = ledger.Transfers(ctx, groupID)
	require.NoError(t, err)
	require.Len(t, transfers, 1)
	assert.Equal(t, calculator.MemberID(bob.ID), transfers[0].From)
	assert.Equal(t, calculator.MemberID(alice.ID), transfers[0].To)
	assert.True(t, transfers[0].Amount.Equal(dec("100")))

	// With no concurrent write the result is cached and served from Redis.
	assert.True(t, env.redis.Exists("settleup:settlement:"+groupID))
	cached, err := ledger.Transfers(ctx, groupID)
	require.NoError(t, err)
	assert.Equal(t, transfers[0].From, cached[0].From)
}

func TestLedger_SettleBalancesMatchTransfers(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")
	groupID := env.createGroup(t, alice, bob)

	ledger := newTestLedger(t, env, env.store)
	require.NoError(t, env.store.CreateExpense(ctx, &models.Expense{
		GroupID: groupID,
		PayerID: alice.ID,
		Amount:  dec("60"),
		Splits: []models.Split{
			{UserID: alice.ID, Share: dec("30")},
			{UserID: bob.ID, Share: dec("30")},
		},
	}))

	// Prime the cache, then change the group without invalidating it. Settle
	// must not mix the stale cached transfers with fresh balances.
	_, err := ledger.Transfers(ctx, groupID)
	require.NoError(t, err)
	require.NoError(t, env.store.CreateSettlement(ctx, &models.Settlement{
		GroupID: groupID, FromUserID: bob.ID, ToUserID: alice.ID,
		Amount: dec("30"), CreatedBy: bob.ID,
	}))

	records, transfers, err := ledger.Settle(ctx, groupID)
	require.NoError(t, err)
	for _, b := range calculator.CalculateBalances(records) {
		assert.True(t, b.Net.IsZero(), "%s net %s", b.Member, b.Net)
	}
	assert.Empty(t, transfers)
}

func TestLedger_NoopCache(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "alice")
	groupID := env.createGroup(t, alice)

	ledger := NewLedger(env.store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	transfers, err := ledger.Transfers(ctx, groupID)
	require.NoError(t, err)
	assert.NotNil(t, transfers)
	assert.Empty(t, transfers)
}
