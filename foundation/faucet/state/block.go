package state

import (
	"fmt"
	"time"

	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/reward"
)

// AdvanceBlock closes the current block and opens the next one. A tick
// that arrives while a closure is still in flight is dropped. The engine
// always advances, even when finalization fails: a stalled epoch clock
// would be worse than one unprocessed block, which is logged for the
// operator and not retried.
func (s *State) AdvanceBlock() {
	if !s.closing.CompareAndSwap(false, true) {
		s.evHandler("state: AdvanceBlock: tick dropped: finalization in progress")
		return
	}
	defer s.closing.Store(false)

	s.mu.Lock()
	defer s.mu.Unlock()

	closed := s.currentBlock

	if err := s.finalizeBlock(closed); err != nil {
		s.evHandler("state: AdvanceBlock: ERROR: finalizing block[%d]: %s", closed, err)
	} else if s.onBlockFinalized != nil {
		s.onBlockFinalized()
	}

	seed, err := pow.GenerateSeed()
	if err != nil {

		// Keeping the previous seed weakens unpredictability for one
		// epoch but keeps the clock alive.
		s.evHandler("state: AdvanceBlock: ERROR: generating seed: %s", err)
		seed = s.currentSeed
	}

	next := closed + 1
	if err := s.db.OpenBlock(next, seed); err != nil {
		s.evHandler("state: AdvanceBlock: ERROR: persisting block[%d]: %s", next, err)
	}

	s.currentBlock = next
	s.currentSeed = seed
	s.blockStart = time.Now()

	s.evHandler("state: AdvanceBlock: block[%d] open", next)
}

// finalizeBlock groups the closed block's shares, computes the three pool
// rewards and applies credits plus the processed marker in one
// transaction. Closure is commit-only: shares are never deleted.
func (s *State) finalizeBlock(blockNumber uint64) error {
	shares, err := s.db.SharesForBlock(blockNumber)
	if err != nil {
		return fmt.Errorf("reading shares: %w", err)
	}

	processedAt := time.Now().UTC()

	if len(shares) == 0 {
		if err := s.db.MarkBlockProcessed(blockNumber, processedAt); err != nil {
			return err
		}
		s.evHandler("state: finalizeBlock: block[%d] empty", blockNumber)
		return nil
	}

	sharesByAddress := make(map[string]uint64)
	for _, share := range shares {
		sharesByAddress[share.Address]++
	}

	budgets := reward.Budgets{
		PoolAMicro: s.poolAMicro,
		PoolBMicro: s.poolBMicro,
		PoolCMicro: s.poolCMicro,
	}

	rewards, winner, err := reward.Calculate(sharesByAddress, budgets, s.lottery)
	if err != nil {
		return fmt.Errorf("computing rewards: %w", err)
	}

	if err := s.db.ApplyRewards(blockNumber, rewards, processedAt); err != nil {
		return fmt.Errorf("applying rewards: %w", err)
	}

	var distributed uint64
	for _, amount := range rewards {
		distributed += amount
	}

	s.evHandler("state: finalizeBlock: block[%d] closed: shares[%d] miners[%d] winner[%s] distributed[%d]",
		blockNumber, len(shares), len(sharesByAddress), winner, distributed)

	return nil
}
