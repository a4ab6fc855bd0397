package worker

import (
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/jpillora/backoff"
	"go.uber.org/ratelimit"
)

// payoutOperations polls the payout queue and resolves each pending row
// to sent or failed. Sends are paced so a burst of withdrawals cannot
// flood the external sender.
func (w *Worker) payoutOperations() {
	w.evHandler("worker: payoutOperations: G started")
	defer w.evHandler("worker: payoutOperations: G completed")

	sends := w.cfg.SendsPerSecond
	if sends <= 0 {
		sends = 1
	}
	pace := ratelimit.New(sends)

	for {
		if !w.sleep(w.cfg.PollInterval) {
			w.evHandler("worker: payoutOperations: received shut signal")
			return
		}

		pending, err := w.db.ListPendingPayouts()
		if err != nil {
			w.evHandler("worker: payoutOperations: ERROR: listing pending: %s", err)
			continue
		}

		for _, p := range pending {
			if w.isShutdown() {
				return
			}

			pace.Take()
			w.dispatch(p)
		}
	}
}

// dispatch attempts one payout with capped exponential backoff between
// attempts. After the final failure the payout is marked failed and left
// for the operator to reconcile; the balance is not refunded.
func (w *Worker) dispatch(p database.Payout) {
	b := &backoff.Backoff{
		Factor: 2,
		Min:    500 * time.Millisecond,
		Max:    8 * time.Second,
	}

	attempts := w.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		txHash, err := w.sender.Send(w.ctx, p.Address, p.AmountMicro)
		if err == nil {
			if err := w.db.SetPayoutStatus(p.ID, database.PayoutStatusSent, &txHash); err != nil {
				w.evHandler("worker: dispatch: ERROR: payout[%d]: marking sent: %s", p.ID, err)
				return
			}
			w.evHandler("worker: dispatch: payout[%d] sent: tx[%s]", p.ID, txHash)
			if w.cfg.OnPayoutResolved != nil {
				w.cfg.OnPayoutResolved(database.PayoutStatusSent)
			}
			return
		}

		w.evHandler("worker: dispatch: payout[%d] attempt[%d/%d] failed: %s", p.ID, attempt, attempts, err)

		if attempt < attempts && !w.sleep(b.Duration()) {
			return
		}
	}

	if err := w.db.SetPayoutStatus(p.ID, database.PayoutStatusFailed, nil); err != nil {
		w.evHandler("worker: dispatch: ERROR: payout[%d]: marking failed: %s", p.ID, err)
		return
	}
	w.evHandler("worker: dispatch: payout[%d] marked failed", p.ID)
	if w.cfg.OnPayoutResolved != nil {
		w.cfg.OnPayoutResolved(database.PayoutStatusFailed)
	}
}
