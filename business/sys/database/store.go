package database

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetMeta returns the value for a meta key. A missing key reports found
// false rather than an error.
func (d *DB) GetMeta(key string) (string, bool, error) {
	var m Meta
	if err := d.db.First(&m, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reading meta %q: %w", key, err)
	}
	return m.Value, true, nil
}

// SetMeta upserts a meta key.
func (d *DB) SetMeta(key string, value string) error {
	m := Meta{Key: key, Value: value}
	err := d.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("writing meta %q: %w", key, err)
	}
	return nil
}

// InsertBlock creates the record for a newly opened block. It fails when
// the block number already exists.
func (d *DB) InsertBlock(blockNumber uint64, seedHex string) error {
	b := Block{BlockNumber: blockNumber, SeedHex: seedHex}
	if err := d.db.Create(&b).Error; err != nil {
		return fmt.Errorf("inserting block %d: %w", blockNumber, err)
	}
	return nil
}

// MarkBlockProcessed sets processed_at for a finalized block. The update
// is idempotent: a block already marked keeps its original timestamp.
func (d *DB) MarkBlockProcessed(blockNumber uint64, ts time.Time) error {
	err := d.db.Model(&Block{}).
		Where("block_number = ? AND processed_at IS NULL", blockNumber).
		Update("processed_at", ts).Error
	if err != nil {
		return fmt.Errorf("marking block %d processed: %w", blockNumber, err)
	}
	return nil
}

// GetBlock returns one block record.
func (d *DB) GetBlock(blockNumber uint64) (Block, error) {
	var b Block
	if err := d.db.First(&b, "block_number = ?", blockNumber).Error; err != nil {
		return Block{}, fmt.Errorf("reading block %d: %w", blockNumber, err)
	}
	return b, nil
}

// ListBlocks returns the most recent blocks, newest first.
func (d *DB) ListBlocks(limit int) ([]Block, error) {
	var blocks []Block
	if err := d.db.Order("block_number DESC").Limit(limit).Find(&blocks).Error; err != nil {
		return nil, fmt.Errorf("listing blocks: %w", err)
	}
	return blocks, nil
}

// OpenBlock persists the advance to a new epoch: both meta keys and the
// new block row commit together so a crash cannot leave them disagreeing.
func (d *DB) OpenBlock(blockNumber uint64, seedHex string) error {
	return d.Tx(func(tx *gorm.DB) error {
		for key, value := range map[string]string{
			MetaCurrentBlockNumber: fmt.Sprintf("%d", blockNumber),
			MetaCurrentSeedHex:     seedHex,
		} {
			m := Meta{Key: key, Value: value}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "key"}},
				DoUpdates: clause.AssignmentColumns([]string{"value"}),
			}).Create(&m).Error
			if err != nil {
				return fmt.Errorf("writing meta %q: %w", key, err)
			}
		}

		b := Block{BlockNumber: blockNumber, SeedHex: seedHex}
		if err := tx.Create(&b).Error; err != nil {
			return fmt.Errorf("inserting block %d: %w", blockNumber, err)
		}
		return nil
	})
}

// =============================================================================

// InsertShare appends one share to the ledger. It reports false when the
// (block, address, nonce) triple already exists; any other failure is
// surfaced as an error.
func (d *DB) InsertShare(blockNumber uint64, address string, nonce string, hashHex string) (bool, error) {
	s := Share{
		BlockNumber: blockNumber,
		Address:     address,
		Nonce:       nonce,
		HashHex:     hashHex,
	}
	if err := d.db.Create(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, fmt.Errorf("inserting share: %w", err)
	}
	return true, nil
}

// ShareCount returns the number of shares an address holds in a block.
func (d *DB) ShareCount(blockNumber uint64, address string) (int, error) {
	var count int64
	err := d.db.Model(&Share{}).
		Where("block_number = ? AND address = ?", blockNumber, address).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("counting shares: %w", err)
	}
	return int(count), nil
}

// SharesForBlock returns every share recorded for a block.
func (d *DB) SharesForBlock(blockNumber uint64) ([]Share, error) {
	var shares []Share
	if err := d.db.Where("block_number = ?", blockNumber).Find(&shares).Error; err != nil {
		return nil, fmt.Errorf("reading shares for block %d: %w", blockNumber, err)
	}
	return shares, nil
}

// =============================================================================

// GetBalance returns the micro-token balance for an address; zero when the
// address has never been credited.
func (d *DB) GetBalance(address string) (uint64, error) {
	var b Balance
	if err := d.db.First(&b, "address = ?", address).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading balance for %s: %w", address, err)
	}
	return b.BalanceMicro, nil
}

// ListBalances returns every balance row ordered by address.
func (d *DB) ListBalances() ([]Balance, error) {
	var balances []Balance
	if err := d.db.Order("address").Find(&balances).Error; err != nil {
		return nil, fmt.Errorf("listing balances: %w", err)
	}
	return balances, nil
}

// creditBalance adds delta to an address inside the provided transaction,
// creating the row on first credit.
func creditBalance(tx *gorm.DB, address string, delta uint64) error {
	b := Balance{Address: address, BalanceMicro: delta}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]any{
			"balance_micro": gorm.Expr("balance_micro + ?", delta),
		}),
	}).Create(&b).Error
	if err != nil {
		return fmt.Errorf("crediting %s: %w", address, err)
	}
	return nil
}

// CreditBalance adds delta micro-tokens to an address.
func (d *DB) CreditBalance(address string, delta uint64) error {
	return creditBalance(d.db, address, delta)
}

// debitBalance subtracts amount from an address inside the provided
// transaction. It reports false when the balance would go negative.
func debitBalance(tx *gorm.DB, address string, amount uint64) (bool, error) {
	res := tx.Model(&Balance{}).
		Where("address = ? AND balance_micro >= ?", address, amount).
		Update("balance_micro", gorm.Expr("balance_micro - ?", amount))
	if res.Error != nil {
		return false, fmt.Errorf("debiting %s: %w", address, res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DebitBalance subtracts amount micro-tokens from an address, refusing a
// debit that would go negative.
func (d *DB) DebitBalance(address string, amount uint64) (bool, error) {
	return debitBalance(d.db, address, amount)
}

// =============================================================================

// ApplyRewards credits every reward and marks the block processed in one
// transaction so partial reward application never occurs.
func (d *DB) ApplyRewards(blockNumber uint64, rewards map[string]uint64, processedAt time.Time) error {
	addresses := make([]string, 0, len(rewards))
	for addr := range rewards {
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	return d.Tx(func(tx *gorm.DB) error {
		for _, addr := range addresses {
			if err := creditBalance(tx, addr, rewards[addr]); err != nil {
				return err
			}
		}

		err := tx.Model(&Block{}).
			Where("block_number = ? AND processed_at IS NULL", blockNumber).
			Update("processed_at", processedAt).Error
		if err != nil {
			return fmt.Errorf("marking block %d processed: %w", blockNumber, err)
		}
		return nil
	})
}

// Withdraw atomically debits the gross amount and queues a payout for the
// net amount. It reports false without mutating anything when the balance
// is insufficient.
func (d *DB) Withdraw(address string, amountMicro uint64, feeMicro uint64) (Payout, bool, error) {
	var payout Payout

	err := d.Tx(func(tx *gorm.DB) error {
		ok, err := debitBalance(tx, address, amountMicro)
		if err != nil {
			return err
		}
		if !ok {
			return errInsufficientFunds
		}

		payout = Payout{
			Address:     address,
			AmountMicro: amountMicro - feeMicro,
			FeeMicro:    feeMicro,
			Status:      PayoutStatusPending,
		}
		if err := tx.Create(&payout).Error; err != nil {
			return fmt.Errorf("creating payout: %w", err)
		}
		return nil
	})

	if errors.Is(err, errInsufficientFunds) {
		return Payout{}, false, nil
	}
	if err != nil {
		return Payout{}, false, err
	}
	return payout, true, nil
}

// errInsufficientFunds aborts the withdraw transaction; it never escapes
// this package.
var errInsufficientFunds = errors.New("insufficient funds")

// =============================================================================

// ListPendingPayouts returns the payouts still waiting on the dispatcher,
// oldest first.
func (d *DB) ListPendingPayouts() ([]Payout, error) {
	var payouts []Payout
	err := d.db.Where("status = ?", PayoutStatusPending).
		Order("id").
		Find(&payouts).Error
	if err != nil {
		return nil, fmt.Errorf("listing pending payouts: %w", err)
	}
	return payouts, nil
}

// SetPayoutStatus moves a payout out of pending. The guard on the current
// status keeps terminal states terminal.
func (d *DB) SetPayoutStatus(id uint64, status string, txHash *string) error {
	if status != PayoutStatusSent && status != PayoutStatusFailed {
		return fmt.Errorf("invalid payout status %q", status)
	}

	res := d.db.Model(&Payout{}).
		Where("id = ? AND status = ?", id, PayoutStatusPending).
		Updates(map[string]any{"status": status, "tx_hash": txHash})
	if res.Error != nil {
		return fmt.Errorf("updating payout %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("payout %d is not pending", id)
	}
	return nil
}
