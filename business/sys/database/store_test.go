package database_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	addrB = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

func openDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "faucet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMetaUpsert(t *testing.T) {
	db := openDB(t)

	_, found, err := db.GetMeta("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, db.SetMeta("currentBlockNumber", "1"))
	require.NoError(t, db.SetMeta("currentBlockNumber", "2"))

	value, found, err := db.GetMeta("currentBlockNumber")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "2", value)
}

func TestInsertBlock(t *testing.T) {
	db := openDB(t)

	require.NoError(t, db.InsertBlock(1, "aabb"))
	assert.Error(t, db.InsertBlock(1, "ccdd"))

	block, err := db.GetBlock(1)
	require.NoError(t, err)
	assert.Equal(t, "aabb", block.SeedHex)
	assert.Nil(t, block.ProcessedAt)
}

func TestMarkBlockProcessedIdempotent(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.InsertBlock(1, "aabb"))

	first := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, db.MarkBlockProcessed(1, first))
	require.NoError(t, db.MarkBlockProcessed(1, first.Add(time.Hour)))

	block, err := db.GetBlock(1)
	require.NoError(t, err)
	require.NotNil(t, block.ProcessedAt)
	assert.True(t, first.Equal(*block.ProcessedAt), "second mark must keep the original timestamp")
}

func TestInsertShareUniqueness(t *testing.T) {
	db := openDB(t)

	inserted, err := db.InsertShare(1, addrA, "nonce1", "00ff")
	require.NoError(t, err)
	assert.True(t, inserted)

	// Same (block, address, nonce) triple is refused without error.
	inserted, err = db.InsertShare(1, addrA, "nonce1", "00ff")
	require.NoError(t, err)
	assert.False(t, inserted)

	// Same nonce in another block or for another address is fine.
	inserted, err = db.InsertShare(2, addrA, "nonce1", "00ff")
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = db.InsertShare(1, addrB, "nonce1", "00ff")
	require.NoError(t, err)
	assert.True(t, inserted)

	count, err := db.ShareCount(1, addrA)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	shares, err := db.SharesForBlock(1)
	require.NoError(t, err)
	assert.Len(t, shares, 2)
}

func TestBalanceCreditDebit(t *testing.T) {
	db := openDB(t)

	balance, err := db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Zero(t, balance)

	require.NoError(t, db.CreditBalance(addrA, 100))
	require.NoError(t, db.CreditBalance(addrA, 50))

	balance, err = db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(150), balance)

	ok, err := db.DebitBalance(addrA, 200)
	require.NoError(t, err)
	assert.False(t, ok, "debit past zero must be refused")

	ok, err = db.DebitBalance(addrA, 150)
	require.NoError(t, err)
	assert.True(t, ok)

	balance, err = db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Zero(t, balance)
}

func TestApplyRewards(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.InsertBlock(1, "aabb"))

	processedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rewards := map[string]uint64{addrA: 90_000_000, addrB: 10_000_000}
	require.NoError(t, db.ApplyRewards(1, rewards, processedAt))

	balance, err := db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(90_000_000), balance)

	balance, err = db.GetBalance(addrB)
	require.NoError(t, err)
	assert.Equal(t, uint64(10_000_000), balance)

	block, err := db.GetBlock(1)
	require.NoError(t, err)
	require.NotNil(t, block.ProcessedAt)
}

func TestWithdraw(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.CreditBalance(addrA, 3_000_000_000))

	payout, ok, err := db.Withdraw(addrA, 2_000_000_000, 1_000_000_000)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, uint64(1_000_000_000), payout.AmountMicro)
	assert.Equal(t, uint64(1_000_000_000), payout.FeeMicro)
	assert.Equal(t, database.PayoutStatusPending, payout.Status)

	balance, err := db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), balance)

	// A second identical request no longer covers the amount; nothing
	// may change.
	_, ok, err = db.Withdraw(addrA, 2_000_000_000, 1_000_000_000)
	require.NoError(t, err)
	assert.False(t, ok)

	balance, err = db.GetBalance(addrA)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000_000_000), balance)

	pending, err := db.ListPendingPayouts()
	require.NoError(t, err)
	assert.Len(t, pending, 1)
}

func TestPayoutStatusTransitions(t *testing.T) {
	db := openDB(t)
	require.NoError(t, db.CreditBalance(addrA, 100))

	payout, ok, err := db.Withdraw(addrA, 100, 10)
	require.NoError(t, err)
	require.True(t, ok)

	txHash := "0xdeadbeef"
	require.NoError(t, db.SetPayoutStatus(payout.ID, database.PayoutStatusSent, &txHash))

	// Terminal states stay terminal.
	assert.Error(t, db.SetPayoutStatus(payout.ID, database.PayoutStatusFailed, nil))

	// Only the documented statuses are accepted.
	assert.Error(t, db.SetPayoutStatus(payout.ID, "refunded", nil))

	pending, err := db.ListPendingPayouts()
	require.NoError(t, err)
	assert.Empty(t, pending)
}
