package state

import (
	"fmt"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
)

// Withdraw debits the gross amount from the address and queues a payout
// for the net amount. The debit and the payout insert commit together; the
// actual send happens asynchronously in the payout dispatcher.
func (s *State) Withdraw(address string, amountMicro uint64) (database.Payout, error) {
	addr, err := pow.ToAddress(address)
	if err != nil {
		return database.Payout{}, ErrInvalidAddress
	}

	if amountMicro == 0 {
		return database.Payout{}, ErrInvalidAmount
	}
	if amountMicro <= s.withdrawFeeMicro {
		return database.Payout{}, ErrAmountBelowFee
	}

	payout, ok, err := s.db.Withdraw(addr, amountMicro, s.withdrawFeeMicro)
	if err != nil {
		return database.Payout{}, fmt.Errorf("withdrawing: %w", err)
	}
	if !ok {
		return database.Payout{}, ErrInsufficientBalance
	}

	s.evHandler("state: Withdraw: queued: payout[%d] address[%s] net[%d] fee[%d]",
		payout.ID, addr, payout.AmountMicro, payout.FeeMicro)

	return payout, nil
}
