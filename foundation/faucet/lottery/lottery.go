// Package lottery provides weighted random selection backed by a
// cryptographically secure source of randomness.
package lottery

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Source produces a uniformly distributed integer in [0, n). The reward
// calculator takes a Source so tests can force selections; production code
// uses CryptoSource.
type Source interface {
	Intn(n uint64) (uint64, error)
}

// CryptoSource draws from crypto/rand. General purpose pseudo-random
// sources must not be used for winner selection.
type CryptoSource struct{}

// Intn implements the Source interface using crypto/rand.
func (CryptoSource) Intn(n uint64) (uint64, error) {
	if n == 0 {
		return 0, fmt.Errorf("intn: zero bound")
	}

	v, err := rand.Int(rand.Reader, new(big.Int).SetUint64(n))
	if err != nil {
		return 0, fmt.Errorf("reading random int: %w", err)
	}

	return v.Uint64(), nil
}

// =============================================================================

// PickWeighted returns an index with probability proportional to its
// weight. A zero weight sum yields -1. Ties between cumulative boundaries
// favor the lower index by construction of the cumulative scan.
func PickWeighted(weights []uint64, src Source) (int, error) {
	var sum uint64
	for _, w := range weights {
		sum += w
	}
	if sum == 0 {
		return -1, nil
	}

	target, err := src.Intn(sum)
	if err != nil {
		return -1, err
	}

	var cumulative uint64
	for i, w := range weights {
		cumulative += w
		if target < cumulative {
			return i, nil
		}
	}

	// Unreachable while the weights are non-negative and sum > 0.
	return len(weights) - 1, nil
}
