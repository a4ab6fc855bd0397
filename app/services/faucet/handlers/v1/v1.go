// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/DavidBacZit/nadfaucet/app/services/faucet/handlers/v1/faucetgrp"
	"github.com/DavidBacZit/nadfaucet/business/web/v1/mid"
	"github.com/DavidBacZit/nadfaucet/foundation/events"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/limiter"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
	"github.com/DavidBacZit/nadfaucet/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log         *zap.SugaredLogger
	State       *state.State
	Evts        *events.Events
	SubmitLimit *limiter.Limiter
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	fgh := faucetgrp.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		Evts:  cfg.Evts,
	}

	// The submission endpoint carries its own tighter rate limit on top
	// of the general one.
	submitLimit := mid.RateLimit(cfg.SubmitLimit, "Too many submissions")

	// The browser miner uses the unversioned paths; both forms route to
	// the same handlers.
	for _, group := range []string{version, ""} {
		app.Handle(http.MethodGet, group, "/challenge", fgh.Challenge)
		app.Handle(http.MethodPost, group, "/submit-proof", fgh.SubmitProof, submitLimit)
		app.Handle(http.MethodGet, group, "/status", fgh.Status)
		app.Handle(http.MethodPost, group, "/withdraw-request", fgh.WithdrawRequest)
		app.Handle(http.MethodGet, group, "/payouts", fgh.Payouts)
		app.Handle(http.MethodGet, group, "/health", fgh.Health)
	}

	app.Handle(http.MethodGet, version, "/events", fgh.Events)
}
