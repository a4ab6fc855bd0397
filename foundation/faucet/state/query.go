package state

import (
	"fmt"
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
)

// Challenge is a consistent snapshot of the puzzle a miner works against.
type Challenge struct {
	BlockNumber    uint64
	SeedHex        string
	DifficultyBits int
	BlockTimeMS    int64
	MSLeft         int64
}

// QueryChallenge returns the current mining challenge.
func (s *State) QueryChallenge() Challenge {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Challenge{
		BlockNumber:    s.currentBlock,
		SeedHex:        s.currentSeed,
		DifficultyBits: s.difficultyBits,
		BlockTimeMS:    s.blockTime.Milliseconds(),
		MSLeft:         s.msLeftLocked(),
	}
}

// msLeftLocked computes the remaining epoch time; callers hold mu.
func (s *State) msLeftLocked() int64 {
	left := s.blockTime - time.Since(s.blockStart)
	if left < 0 {
		left = 0
	}
	return left.Milliseconds()
}

// AccountStatus combines the challenge snapshot with one address's
// balance and the public reward budgets.
type AccountStatus struct {
	Challenge
	BalanceMicro     uint64
	PoolARewardMicro uint64
	PoolBRewardMicro uint64
}

// QueryStatus returns the mining status for one address.
func (s *State) QueryStatus(address string) (AccountStatus, error) {
	addr, err := pow.ToAddress(address)
	if err != nil {
		return AccountStatus{}, ErrInvalidAddress
	}

	balance, err := s.db.GetBalance(addr)
	if err != nil {
		return AccountStatus{}, fmt.Errorf("reading balance: %w", err)
	}

	return AccountStatus{
		Challenge:        s.QueryChallenge(),
		BalanceMicro:     balance,
		PoolARewardMicro: s.poolAMicro,
		PoolBRewardMicro: s.poolBMicro,
	}, nil
}

// QueryPendingPayouts returns the payouts the dispatcher has not yet
// resolved.
func (s *State) QueryPendingPayouts() ([]database.Payout, error) {
	return s.db.ListPendingPayouts()
}

// HealthConfig is the configuration snapshot surfaced by the health
// endpoint.
type HealthConfig struct {
	BlockTimeMS       int64
	DifficultyBits    int
	MaxSharesPerBlock int
	WithdrawFeeMicro  uint64
	PoolAMicro        uint64
	PoolBMicro        uint64
	PoolCMicro        uint64
}

// Health reports the engine status.
type Health struct {
	BlockNumber    uint64
	UptimeSeconds  int64
	BlockProcessor string
	Config         HealthConfig
}

// QueryHealth returns the engine status and configuration snapshot.
func (s *State) QueryHealth() Health {
	processor := "idle"
	if s.closing.Load() {
		processor = "finalizing"
	}

	return Health{
		BlockNumber:    s.CurrentBlockNumber(),
		UptimeSeconds:  int64(s.Uptime().Seconds()),
		BlockProcessor: processor,
		Config: HealthConfig{
			BlockTimeMS:       s.blockTime.Milliseconds(),
			DifficultyBits:    s.difficultyBits,
			MaxSharesPerBlock: s.maxSharesPerBlock,
			WithdrawFeeMicro:  s.withdrawFeeMicro,
			PoolAMicro:        s.poolAMicro,
			PoolBMicro:        s.poolBMicro,
			PoolCMicro:        s.poolCMicro,
		},
	}
}
