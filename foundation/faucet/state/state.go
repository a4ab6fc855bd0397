// Package state is the core API for the faucet block engine. It owns the
// current block number, seed and epoch start time, and implements share
// acceptance, block finalization and withdrawal accounting against them.
package state

import (
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/lottery"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and payouts.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for block ticking and payout dispatch.
type Worker interface {
	Shutdown()
}

// =============================================================================

// Config represents the configuration required to start the block engine.
type Config struct {
	DB                *database.DB
	BlockTime         time.Duration
	DifficultyBits    int
	MaxSharesPerBlock int
	WithdrawFeeMicro  uint64
	PoolAMicro        uint64
	PoolBMicro        uint64
	PoolCMicro        uint64
	Lottery           lottery.Source
	EvHandler         EventHandler

	// OnBlockFinalized is an optional hook invoked after a block commits,
	// used by the application to count closures.
	OnBlockFinalized func()
}

// State manages the faucet block engine.
type State struct {
	db                *database.DB
	blockTime         time.Duration
	difficultyBits    int
	maxSharesPerBlock int
	withdrawFeeMicro  uint64
	poolAMicro        uint64
	poolBMicro        uint64
	poolCMicro        uint64
	lottery           lottery.Source
	evHandler         EventHandler
	onBlockFinalized  func()
	startedAt         time.Time

	// mu guards the epoch fields. Share submission holds it in read mode
	// from snapshot through insert; the tick holds it in write mode through
	// the whole finalization, so a share always lands in the block it was
	// verified against.
	mu           sync.RWMutex
	currentBlock uint64
	currentSeed  string
	blockStart   time.Time

	// closing serializes finalization; a tick arriving while one is in
	// flight is dropped.
	closing atomic.Bool

	Worker Worker
}

// New constructs the block engine, restoring the current block number and
// seed from storage or initializing a fresh chain of epochs.
func New(cfg Config) (*State, error) {
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	src := cfg.Lottery
	if src == nil {
		src = lottery.CryptoSource{}
	}

	s := State{
		db:                cfg.DB,
		blockTime:         cfg.BlockTime,
		difficultyBits:    cfg.DifficultyBits,
		maxSharesPerBlock: cfg.MaxSharesPerBlock,
		withdrawFeeMicro:  cfg.WithdrawFeeMicro,
		poolAMicro:        cfg.PoolAMicro,
		poolBMicro:        cfg.PoolBMicro,
		poolCMicro:        cfg.PoolCMicro,
		lottery:           src,
		evHandler:         ev,
		onBlockFinalized:  cfg.OnBlockFinalized,
		startedAt:         time.Now().UTC(),
	}

	if err := s.boot(); err != nil {
		return nil, err
	}

	// The Worker is not set here. The call to worker.Run will assign
	// itself and start the tick and dispatch goroutines.

	return &s, nil
}

// boot loads the engine state from the meta table or initializes block 1
// with a fresh seed.
func (s *State) boot() error {
	blockValue, haveBlock, err := s.db.GetMeta(database.MetaCurrentBlockNumber)
	if err != nil {
		return fmt.Errorf("loading current block: %w", err)
	}
	seedValue, haveSeed, err := s.db.GetMeta(database.MetaCurrentSeedHex)
	if err != nil {
		return fmt.Errorf("loading current seed: %w", err)
	}

	switch {
	case haveBlock && haveSeed:
		blockNumber, err := strconv.ParseUint(blockValue, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing current block %q: %w", blockValue, err)
		}
		s.currentBlock = blockNumber
		s.currentSeed = seedValue
		s.evHandler("state: boot: resumed: block[%d]", blockNumber)

	default:
		seed, err := pow.GenerateSeed()
		if err != nil {
			return err
		}
		if err := s.db.OpenBlock(1, seed); err != nil {
			return fmt.Errorf("opening first block: %w", err)
		}
		s.currentBlock = 1
		s.currentSeed = seed
		s.evHandler("state: boot: initialized: block[1]")
	}

	s.blockStart = time.Now()
	return nil
}

// Shutdown cleanly brings the engine down.
func (s *State) Shutdown() error {
	defer func() {
		s.db.Close()
	}()

	// Stop the tick and dispatch goroutines before closing storage.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// =============================================================================

// CurrentBlockNumber returns the block currently accepting shares.
func (s *State) CurrentBlockNumber() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentBlock
}

// CurrentSeedHex returns the seed for the block currently accepting shares.
func (s *State) CurrentSeedHex() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentSeed
}

// MSLeft returns the milliseconds remaining before the current block is
// scheduled to close, floored at zero.
func (s *State) MSLeft() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	left := s.blockTime - time.Since(s.blockStart)
	if left < 0 {
		left = 0
	}
	return left.Milliseconds()
}

// BlockTime returns the configured epoch duration.
func (s *State) BlockTime() time.Duration {
	return s.blockTime
}

// DifficultyBits returns the required leading zero bits.
func (s *State) DifficultyBits() int {
	return s.difficultyBits
}

// Uptime returns how long the engine has been running.
func (s *State) Uptime() time.Duration {
	return time.Since(s.startedAt)
}
