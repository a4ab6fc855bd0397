// Package reward implements the three pool reward policy applied when a
// block closes. The calculation is pure: shares in, micro-token deltas out,
// with all randomness injected through a lottery source.
package reward

import (
	"fmt"
	"sort"

	"github.com/DavidBacZit/nadfaucet/foundation/faucet/lottery"
)

// Budgets carries the per-block reward budgets in micro-tokens.
type Budgets struct {
	PoolAMicro uint64
	PoolBMicro uint64
	PoolCMicro uint64
}

// Calculate distributes the block budgets across the contributing
// addresses. It returns the per-address micro-token deltas and the lottery
// winner ("" when the block had no shares). The total distributed never
// exceeds the sum of the budgets; deficits come only from integer
// truncation in pool A and from skipped pools.
func Calculate(sharesByAddress map[string]uint64, budgets Budgets, src lottery.Source) (map[string]uint64, string, error) {
	rewards := make(map[string]uint64)

	// Addresses are processed in sorted order so a deterministic source
	// yields a deterministic outcome.
	addresses := make([]string, 0, len(sharesByAddress))
	for addr, count := range sharesByAddress {
		if count == 0 {
			continue
		}
		addresses = append(addresses, addr)
	}
	sort.Strings(addresses)

	if len(addresses) == 0 {
		return rewards, "", nil
	}

	var total uint64
	weights := make([]uint64, len(addresses))
	for i, addr := range addresses {
		weights[i] = sharesByAddress[addr]
		total += weights[i]
	}

	// Pool B: a single winner weighted by raw share count.
	winnerIdx, err := lottery.PickWeighted(weights, src)
	if err != nil {
		return nil, "", fmt.Errorf("picking lottery winner: %w", err)
	}

	var winner string
	if winnerIdx >= 0 {
		winner = addresses[winnerIdx]
		if budgets.PoolBMicro > 0 {
			rewards[winner] += budgets.PoolBMicro
		}
	}

	// Pool A: proportional by adjusted share count. The winner's count is
	// penalized so pool B cannot compound with a full proportional cut.
	var totalAdjusted uint64
	adjusted := make(map[string]uint64, len(addresses))
	for i, addr := range addresses {
		count := weights[i]
		if addr == winner {
			loserShares := total - count
			penalty := loserShares
			if half := total / 2; half < penalty {
				penalty = half
			}
			if count > penalty {
				count = (count - penalty) / 2
			} else {
				count = 0
			}
		}
		if count == 0 {
			continue
		}
		adjusted[addr] = count
		totalAdjusted += count
	}

	if totalAdjusted > 0 && budgets.PoolAMicro > 0 {
		for _, addr := range addresses {
			count, ok := adjusted[addr]
			if !ok {
				continue
			}

			// Integer truncation burns up to totalAdjusted-1 micro.
			rewards[addr] += count * budgets.PoolAMicro / totalAdjusted
		}
	}

	// Pool C: flat compensation across the lowest earning non-winners.
	applyPoolC(rewards, addresses, winner, budgets.PoolCMicro)

	for addr, amount := range rewards {
		if amount == 0 {
			delete(rewards, addr)
		}
	}

	return rewards, winner, nil
}

// applyPoolC spreads the compensation budget across the lowest earning
// non-winners. The covered prefix extends tier by tier and stops only when
// the next tier is strictly higher and an even fill of the current prefix
// would push past it.
func applyPoolC(rewards map[string]uint64, addresses []string, winner string, budget uint64) {
	if budget == 0 {
		return
	}

	type earner struct {
		addr  string
		total uint64
	}

	var earners []earner
	for _, addr := range addresses {
		if addr == winner {
			continue
		}
		earners = append(earners, earner{addr: addr, total: rewards[addr]})
	}

	numC := len(earners)
	if numC == 0 {
		return
	}

	sort.SliceStable(earners, func(i, j int) bool {
		return earners[i].total < earners[j].total
	})

	m := numC
	for i := 1; i < numC; i++ {
		fill := ceilDiv(budget, uint64(i))
		if earners[i].total > earners[i-1].total && earners[i-1].total+fill > earners[i].total {
			m = i
			break
		}
	}

	each := budget / uint64(m)
	remainder := budget % uint64(m)
	for i := 0; i < m; i++ {
		amount := each
		if uint64(i) < remainder {
			amount++
		}
		rewards[earners[i].addr] += amount
	}
}

func ceilDiv(a, b uint64) uint64 {
	return (a + b - 1) / b
}
