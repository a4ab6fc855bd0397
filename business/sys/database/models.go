package database

import "time"

// Meta keys owned by the block engine.
const (
	MetaCurrentBlockNumber = "currentBlockNumber"
	MetaCurrentSeedHex     = "currentSeedHex"
)

// Payout statuses. Transitions only ever leave pending.
const (
	PayoutStatusPending = "pending"
	PayoutStatusSent    = "sent"
	PayoutStatusFailed  = "failed"
)

// Meta is a key/value row for engine state that must survive restarts.
type Meta struct {
	Key   string `gorm:"primaryKey;size:64"`
	Value string `gorm:"size:256"`
}

// Block records one epoch. ProcessedAt is set exactly once when the block
// is finalized.
type Block struct {
	BlockNumber uint64 `gorm:"primaryKey;autoIncrement:false"`
	SeedHex     string `gorm:"size:32;not null"`
	ProcessedAt *time.Time
}

// Share is one accepted proof-of-work submission. The composite unique
// index enforces at most one row per (block, address, nonce).
type Share struct {
	ID          uint64    `gorm:"primaryKey"`
	BlockNumber uint64    `gorm:"index;uniqueIndex:uniq_share;not null"`
	Address     string    `gorm:"index;uniqueIndex:uniq_share;size:42;not null"`
	Nonce       string    `gorm:"uniqueIndex:uniq_share;size:256;not null"`
	HashHex     string    `gorm:"size:64;not null"`
	CreatedAt   time.Time `gorm:"not null"`
}

// Balance is the accumulated micro-token balance for one address.
type Balance struct {
	Address      string `gorm:"primaryKey;size:42"`
	BalanceMicro uint64 `gorm:"not null;default:0"`
}

// Payout is a queued withdrawal. AmountMicro is the net amount to send
// after the fee was taken.
type Payout struct {
	ID          uint64  `gorm:"primaryKey"`
	Address     string  `gorm:"size:42;not null"`
	AmountMicro uint64  `gorm:"not null"`
	FeeMicro    uint64  `gorm:"not null"`
	Status      string  `gorm:"index;size:16;not null"`
	TxHash      *string `gorm:"size:128"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
