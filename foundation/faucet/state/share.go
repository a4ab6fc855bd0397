package state

import (
	"fmt"

	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
)

// maxNonceLength caps the nonce so the canonical input stays small.
const maxNonceLength = 256

// ShareReceipt reports an accepted share back to the submitter.
type ShareReceipt struct {
	BlockNumber     uint64
	LeadingZeroBits int
	Hash            string
}

// SubmitShare verifies a proof-of-work submission against the current
// block and appends it to the share ledger. The engine read lock is held
// from the snapshot of the current block through the insert, so the block
// used for the difficulty check is the block recorded in the share row.
func (s *State) SubmitShare(address string, nonce string) (ShareReceipt, error) {
	addr, err := pow.ToAddress(address)
	if err != nil {
		return ShareReceipt{}, ErrInvalidAddress
	}

	if nonce == "" || len(nonce) > maxNonceLength {
		return ShareReceipt{}, ErrInvalidNonce
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blockNumber := s.currentBlock
	seed := s.currentSeed

	count, err := s.db.ShareCount(blockNumber, addr)
	if err != nil {
		return ShareReceipt{}, fmt.Errorf("counting shares: %w", err)
	}
	if count >= s.maxSharesPerBlock {
		return ShareReceipt{}, ErrQuotaExceeded
	}

	hash := pow.HashShare(addr, blockNumber, seed, nonce)
	bits := pow.LeadingZeroBits(hash)
	if bits < s.difficultyBits {
		return ShareReceipt{}, ErrInsufficientWork
	}

	inserted, err := s.db.InsertShare(blockNumber, addr, nonce, hash)
	if err != nil {
		return ShareReceipt{}, fmt.Errorf("inserting share: %w", err)
	}
	if !inserted {
		return ShareReceipt{}, ErrDuplicateShare
	}

	return ShareReceipt{
		BlockNumber:     blockNumber,
		LeadingZeroBits: bits,
		Hash:            hash,
	}, nil
}
