package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/DavidBacZit/nadfaucet/app/services/faucet/handlers"
	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/business/web/metrics"
	"github.com/DavidBacZit/nadfaucet/foundation/events"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/limiter"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/payout"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/worker"
	"github.com/DavidBacZit/nadfaucet/foundation/logger"
	"github.com/ardanlabs/conf/v3"
	"go.uber.org/zap"
)

// build is the git version of this program. It is set at build time with
// -ldflags "-X main.build=...".
var build = "develop"

// microPerToken converts whole token configuration values to micro-tokens.
const microPerToken = 1_000_000

func main() {

	// Construct the application logger.
	log, err := logger.New("FAUCET")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	// Perform the startup and shutdown sequence.
	if err := run(log); err != nil {
		log.Errorw("startup", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(log *zap.SugaredLogger) error {

	// =========================================================================
	// Configuration

	cfg := struct {
		conf.Version
		Web struct {
			ReadTimeout     time.Duration `conf:"default:5s"`
			WriteTimeout    time.Duration `conf:"default:10s"`
			IdleTimeout     time.Duration `conf:"default:120s"`
			ShutdownTimeout time.Duration `conf:"default:20s"`
			DebugHost       string        `conf:"default:0.0.0.0:7080"`
			PublicHost      string        `conf:"default:0.0.0.0:8080"`
		}
		Faucet struct {
			DBPath            string `conf:"default:zfaucet/faucet.db"`
			BlockTimeMS       int    `conf:"default:400"`
			DifficultyBits    int    `conf:"default:18"`
			MaxSharesPerBlock int    `conf:"default:500"`
			WithdrawFeeTokens uint64 `conf:"default:1000"`
			PoolARewardTokens uint64 `conf:"default:50"`
			PoolBRewardTokens uint64 `conf:"default:50"`
			PoolCRewardTokens uint64 `conf:"default:0"`
		}
		RateLimit struct {
			GeneralWindow time.Duration `conf:"default:1m"`
			GeneralMax    int           `conf:"default:600"`
			SubmitWindow  time.Duration `conf:"default:10s"`
			SubmitMax     int           `conf:"default:60"`
		}
		Payout struct {
			PollInterval   time.Duration `conf:"default:5s"`
			MaxAttempts    int           `conf:"default:5"`
			SendsPerSecond int           `conf:"default:2"`
		}
	}{
		Version: conf.Version{
			Build: build,
			Desc:  "copyright information here",
		},
	}

	const prefix = "FAUCET"
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	// =========================================================================
	// App Starting

	log.Infow("starting service", "version", build)
	defer log.Infow("shutdown complete")

	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	// =========================================================================
	// Storage Support

	log.Infow("startup", "status", "opening database", "path", cfg.Faucet.DBPath)

	db, err := database.New(cfg.Faucet.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	// =========================================================================
	// Block Engine Support

	// The engine and the workers log through this handler. The raw
	// messages are also sent to any websocket client connected into the
	// system through the events package.
	evts := events.New()
	ev := func(v string, args ...any) {
		s := fmt.Sprintf(v, args...)
		log.Infow(s, "traceid", "00000000-0000-0000-0000-000000000000")
		evts.Send(s)
	}

	st, err := state.New(state.Config{
		DB:                db,
		BlockTime:         time.Duration(cfg.Faucet.BlockTimeMS) * time.Millisecond,
		DifficultyBits:    cfg.Faucet.DifficultyBits,
		MaxSharesPerBlock: cfg.Faucet.MaxSharesPerBlock,
		WithdrawFeeMicro:  cfg.Faucet.WithdrawFeeTokens * microPerToken,
		PoolAMicro:        cfg.Faucet.PoolARewardTokens * microPerToken,
		PoolBMicro:        cfg.Faucet.PoolBRewardTokens * microPerToken,
		PoolCMicro:        cfg.Faucet.PoolCRewardTokens * microPerToken,
		EvHandler:         ev,
		OnBlockFinalized:  metrics.ObserveBlockFinalized,
	})
	if err != nil {
		return fmt.Errorf("constructing engine: %w", err)
	}
	defer st.Shutdown()

	// The worker runs the block tick and the payout dispatcher. It will
	// register itself with the state.
	worker.Run(st, worker.Config{
		DB:               db,
		Sender:           payout.LogSender{Ev: ev},
		PollInterval:     cfg.Payout.PollInterval,
		MaxAttempts:      cfg.Payout.MaxAttempts,
		SendsPerSecond:   cfg.Payout.SendsPerSecond,
		OnPayoutResolved: metrics.ObservePayout,
	}, ev)

	// =========================================================================
	// Start Debug Service

	log.Infow("startup", "status", "debug router started", "host", cfg.Web.DebugHost)

	// The DebugMux function returns a mux to listen and serve on for all the
	// debug related endpoints. This includes the standard library
	// endpoints, the prometheus scrape endpoint and the check endpoints.
	debugMux := handlers.DebugMux(build, log, st)

	// Start the service listening for debug requests.
	// Not concerned with shutting this down with load shedding.
	go func() {
		if err := http.ListenAndServe(cfg.Web.DebugHost, debugMux); err != nil {
			log.Errorw("shutdown", "status", "debug router closed", "host", cfg.Web.DebugHost, "ERROR", err)
		}
	}()

	// =========================================================================
	// Start Public Service

	log.Infow("startup", "status", "initializing V1 public API support")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	// Construct the mux for the public API calls.
	publicMux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:     shutdown,
		Log:          log,
		State:        st,
		Evts:         evts,
		GeneralLimit: limiter.New(cfg.RateLimit.GeneralWindow, cfg.RateLimit.GeneralMax),
		SubmitLimit:  limiter.New(cfg.RateLimit.SubmitWindow, cfg.RateLimit.SubmitMax),
	})

	// Construct a server to service the requests against the mux.
	public := http.Server{
		Addr:         cfg.Web.PublicHost,
		Handler:      publicMux,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	// Start the service listening for api requests.
	go func() {
		log.Infow("startup", "status", "public api router started", "host", public.Addr)
		serverErrors <- public.ListenAndServe()
	}()

	// =========================================================================
	// Shutdown

	// Blocking main and waiting for shutdown.
	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		// Release any web sockets that are currently active.
		log.Infow("shutdown", "status", "shutdown web socket channels")
		evts.Shutdown()

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and shed load.
		log.Infow("shutdown", "status", "shutdown public API started")
		if err := public.Shutdown(ctx); err != nil {
			public.Close()
			return fmt.Errorf("could not stop public service gracefully: %w", err)
		}
	}

	return nil
}
