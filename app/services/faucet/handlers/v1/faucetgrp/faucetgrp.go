// Package faucetgrp maintains the group of handlers for the mining
// faucet: challenge, proof submission, status, withdrawal and health.
package faucetgrp

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/DavidBacZit/nadfaucet/business/web/errs"
	"github.com/DavidBacZit/nadfaucet/business/web/metrics"
	"github.com/DavidBacZit/nadfaucet/foundation/events"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
	"github.com/DavidBacZit/nadfaucet/foundation/validate"
	"github.com/DavidBacZit/nadfaucet/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of faucet endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// trust converts an engine error into a trusted web error with the right
// HTTP status for its kind.
func trust(err error) error {
	status := http.StatusInternalServerError

	switch state.ErrorKind(err) {
	case state.KindValidation, state.KindPolicy:
		status = http.StatusBadRequest
		if errors.Is(err, state.ErrQuotaExceeded) {
			status = http.StatusTooManyRequests
		}
	case state.KindConflict:
		status = http.StatusConflict
	case state.KindTransient:
		status = http.StatusServiceUnavailable
	}

	return errs.NewTrusted(err, status)
}

// Challenge returns the current mining challenge snapshotted from the
// engine.
func (h Handlers) Challenge(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, toChallengeResponse(h.State.QueryChallenge()), http.StatusOK)
}

// SubmitProof verifies and records a mined share against the current
// block.
func (h Handlers) SubmitProof(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitProofRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(state.ErrMissingFields, http.StatusBadRequest)
	}

	if req.Address == "" || req.Nonce == "" {
		return errs.NewTrusted(state.ErrMissingFields, http.StatusBadRequest)
	}
	if err := validate.Check(req); err != nil {
		return errs.NewTrusted(state.ErrInvalidNonce, http.StatusBadRequest)
	}

	receipt, err := h.State.SubmitShare(req.Address, req.Nonce)
	if err != nil {
		metrics.ObserveShare(shareOutcome(err))
		return trust(err)
	}
	metrics.ObserveShare("accepted")

	resp := submitProofResponse{
		OK:              true,
		Accepted:        true,
		BlockNumber:     receipt.BlockNumber,
		LeadingZeroBits: receipt.LeadingZeroBits,
		Hash:            receipt.Hash,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// shareOutcome names the rejection for the share counter.
func shareOutcome(err error) string {
	switch {
	case errors.Is(err, state.ErrDuplicateShare):
		return "duplicate"
	case errors.Is(err, state.ErrQuotaExceeded):
		return "quota"
	case errors.Is(err, state.ErrInsufficientWork):
		return "insufficient_work"
	default:
		return "rejected"
	}
}

// Status returns the mining status and balance for one address.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	address := r.URL.Query().Get("address")
	if address == "" {
		return errs.NewTrusted(state.ErrMissingFields, http.StatusBadRequest)
	}

	status, err := h.State.QueryStatus(address)
	if err != nil {
		return trust(err)
	}

	resp := statusResponse{
		challengeResponse: toChallengeResponse(status.Challenge),
		BalanceMicro:      status.BalanceMicro,
		PoolARewardMicro:  status.PoolARewardMicro,
		PoolBRewardMicro:  status.PoolBRewardMicro,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// WithdrawRequest debits the caller's balance and queues a payout. The
// actual send happens asynchronously in the dispatcher.
func (h Handlers) WithdrawRequest(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var req withdrawRequest
	if err := web.Decode(r, &req); err != nil {
		return errs.NewTrusted(state.ErrMissingFields, http.StatusBadRequest)
	}

	if req.Address == "" || req.AmountMicro == nil {
		return errs.NewTrusted(state.ErrMissingFields, http.StatusBadRequest)
	}
	if *req.AmountMicro <= 0 {
		return errs.NewTrusted(state.ErrInvalidAmount, http.StatusBadRequest)
	}

	payout, err := h.State.Withdraw(req.Address, uint64(*req.AmountMicro))
	if err != nil {
		return trust(err)
	}

	h.Log.Infow("withdraw queued", "traceid", v.TraceID, "payout", payout.ID,
		"address", payout.Address, "net", payout.AmountMicro, "fee", payout.FeeMicro)

	resp := withdrawResponse{
		OK:        true,
		Status:    "queued",
		PayoutID:  payout.ID,
		NetAmount: payout.AmountMicro,
		Fee:       payout.FeeMicro,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Payouts returns the payouts the dispatcher has not yet resolved.
func (h Handlers) Payouts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending, err := h.State.QueryPendingPayouts()
	if err != nil {
		return trust(err)
	}

	resp := payoutsResponse{
		OK:      true,
		Payouts: make([]payout, len(pending)),
	}
	for i, p := range pending {
		resp.Payouts[i] = toPayout(p)
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Health returns the engine status and configuration snapshot.
func (h Handlers) Health(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	health := h.State.QueryHealth()

	resp := healthResponse{
		OK:             true,
		BlockNumber:    health.BlockNumber,
		UptimeSeconds:  health.UptimeSeconds,
		BlockProcessor: health.BlockProcessor,
		Config: healthConfig{
			BlockTimeMS:       health.Config.BlockTimeMS,
			DifficultyBits:    health.Config.DifficultyBits,
			MaxSharesPerBlock: health.Config.MaxSharesPerBlock,
			WithdrawFeeMicro:  health.Config.WithdrawFeeMicro,
			PoolAMicro:        health.Config.PoolAMicro,
			PoolBMicro:        health.Config.PoolBMicro,
			PoolCMicro:        health.Config.PoolCMicro,
		},
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Events handles a web socket to provide engine events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
