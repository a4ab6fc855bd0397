package faucetgrp_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DavidBacZit/nadfaucet/app/services/faucet/handlers"
	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/events"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/limiter"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	addrA = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"

	testDifficulty = 4
)

type testServer struct {
	srv *httptest.Server
	st  *state.State
	db  *database.DB
}

func newTestServer(t *testing.T, submitCap int) testServer {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "faucet.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st, err := state.New(state.Config{
		DB:                db,
		BlockTime:         time.Hour,
		DifficultyBits:    testDifficulty,
		MaxSharesPerBlock: 500,
		WithdrawFeeMicro:  1_000_000_000,
		PoolAMicro:        50_000_000,
		PoolBMicro:        50_000_000,
	})
	require.NoError(t, err)

	mux := handlers.PublicMux(handlers.MuxConfig{
		Shutdown:     make(chan os.Signal, 1),
		Log:          zap.NewNop().Sugar(),
		State:        st,
		Evts:         events.New(),
		GeneralLimit: limiter.New(time.Minute, 10_000),
		SubmitLimit:  limiter.New(time.Minute, submitCap),
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return testServer{srv: srv, st: st, db: db}
}

func (ts testServer) get(t *testing.T, path string) (int, map[string]any) {
	t.Helper()

	res, err := http.Get(ts.srv.URL + path)
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func (ts testServer) post(t *testing.T, path string, payload string) (int, map[string]any) {
	t.Helper()

	res, err := http.Post(ts.srv.URL+path, "application/json", bytes.NewBufferString(payload))
	require.NoError(t, err)
	defer res.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	return res.StatusCode, body
}

func mineNonce(t *testing.T, st *state.State, address string, prefix string) string {
	t.Helper()

	blockNumber := st.CurrentBlockNumber()
	seed := st.CurrentSeedHex()

	for i := 0; i < 1_000_000; i++ {
		nonce := fmt.Sprintf("%s-%d", prefix, i)
		if pow.IsHashSolved(testDifficulty, pow.HashShare(address, blockNumber, seed, nonce)) {
			return nonce
		}
	}

	t.Fatal("no nonce found")
	return ""
}

func mineFailingNonce(t *testing.T, st *state.State, address string) string {
	t.Helper()

	blockNumber := st.CurrentBlockNumber()
	seed := st.CurrentSeedHex()

	for i := 0; i < 1_000_000; i++ {
		nonce := fmt.Sprintf("bad-%d", i)
		if !pow.IsHashSolved(testDifficulty, pow.HashShare(address, blockNumber, seed, nonce)) {
			return nonce
		}
	}

	t.Fatal("no failing nonce found")
	return ""
}

func TestChallenge(t *testing.T) {
	ts := newTestServer(t, 100)

	status, body := ts.get(t, "/v1/challenge")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["blockNumber"])
	assert.Equal(t, ts.st.CurrentSeedHex(), body["seedHex"])
	assert.Equal(t, float64(testDifficulty), body["difficultyBits"])
	assert.NotZero(t, body["serverTimeMs"])

	// The unversioned alias used by the browser miner routes the same.
	status, _ = ts.get(t, "/challenge")
	assert.Equal(t, http.StatusOK, status)
}

func TestSubmitProof(t *testing.T) {
	ts := newTestServer(t, 100)

	nonce := mineNonce(t, ts.st, addrA, "s")
	payload := fmt.Sprintf(`{"address":%q,"nonce":%q}`, addrA, nonce)

	status, body := ts.post(t, "/v1/submit-proof", payload)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, true, body["accepted"])
	assert.Equal(t, float64(1), body["blockNumber"])

	// The same nonce against the same block conflicts.
	status, body = ts.post(t, "/v1/submit-proof", payload)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, body["ok"])
	assert.Equal(t, "Duplicate share", body["error"])
}

func TestSubmitProofValidation(t *testing.T) {
	ts := newTestServer(t, 100)

	status, body := ts.post(t, "/v1/submit-proof", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])

	status, body = ts.post(t, "/v1/submit-proof", `{"address":"bogus","nonce":"n"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid Ethereum address format", body["error"])

	status, body = ts.post(t, "/v1/submit-proof",
		fmt.Sprintf(`{"address":%q,"nonce":%q}`, addrA, mineFailingNonce(t, ts.st, addrA)))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient proof-of-work", body["error"])

	// Unknown fields are rejected outright, which also covers a
	// client-declared block number.
	status, body = ts.post(t, "/v1/submit-proof", fmt.Sprintf(`{"address":%q,"nonce":"n","blockNumber":9}`, addrA))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])
}

func TestSubmitRateLimit(t *testing.T) {
	ts := newTestServer(t, 2)

	for i := 0; i < 2; i++ {
		status, _ := ts.post(t, "/v1/submit-proof", `{"address":"bogus","nonce":"n"}`)
		assert.Equal(t, http.StatusBadRequest, status)
	}

	status, body := ts.post(t, "/v1/submit-proof", `{"address":"bogus","nonce":"n"}`)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many submissions", body["error"])
}

func TestStatus(t *testing.T) {
	ts := newTestServer(t, 100)

	status, body := ts.get(t, "/v1/status")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Missing required fields", body["error"])

	require.NoError(t, ts.db.CreditBalance(addrA, 123))

	status, body = ts.get(t, "/v1/status?address="+addrA)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(123), body["balanceMicro"])
	assert.Equal(t, float64(50_000_000), body["poolARewardMicro"])
	assert.Equal(t, float64(50_000_000), body["poolBRewardMicro"])
}

func TestWithdrawRequest(t *testing.T) {
	ts := newTestServer(t, 100)

	payload := fmt.Sprintf(`{"address":%q,"amountMicro":2000000000}`, addrA)

	status, body := ts.post(t, "/v1/withdraw-request", payload)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient balance", body["error"])

	require.NoError(t, ts.db.CreditBalance(addrA, 3_000_000_000))

	status, body = ts.post(t, "/v1/withdraw-request", payload)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "queued", body["status"])
	assert.Equal(t, float64(1_000_000_000), body["netAmount"])
	assert.Equal(t, float64(1_000_000_000), body["fee"])

	// The queued payout is visible on the admin list.
	status, body = ts.get(t, "/v1/payouts")
	assert.Equal(t, http.StatusOK, status)
	payouts, ok := body["payouts"].([]any)
	require.True(t, ok)
	assert.Len(t, payouts, 1)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, 100)

	status, body := ts.get(t, "/v1/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, float64(1), body["blockNumber"])
	assert.Equal(t, "idle", body["blockProcessor"])

	cfg, ok := body["config"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(testDifficulty), cfg["difficultyBits"])
}
