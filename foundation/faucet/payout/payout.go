// Package payout defines the capability the dispatcher uses to move
// tokens. The concrete on-chain sender lives outside this repository; the
// engine only needs the Send contract.
package payout

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Sender moves the net amount to an address and returns the transaction
// hash once the transfer is submitted.
type Sender interface {
	Send(ctx context.Context, address string, amountMicro uint64) (txHash string, err error)
}

// =============================================================================

// LogSender is the default wiring: it performs no transfer, logs the
// request and fabricates a transaction id so the payout pipeline can be
// exercised end to end without a chain connection.
type LogSender struct {
	Ev func(v string, args ...any)
}

// Send implements the Sender interface.
func (ls LogSender) Send(ctx context.Context, address string, amountMicro uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	id := make([]byte, 32)
	if _, err := rand.Read(id); err != nil {
		return "", fmt.Errorf("generating tx id: %w", err)
	}
	txHash := "0x" + hex.EncodeToString(id)

	if ls.Ev != nil {
		ls.Ev("payout: LogSender: address[%s] amount[%d] tx[%s]", address, amountMicro, txHash)
	}

	return txHash, nil
}
