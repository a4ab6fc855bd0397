package faucetgrp

import (
	"time"

	"github.com/DavidBacZit/nadfaucet/business/sys/database"
	"github.com/DavidBacZit/nadfaucet/foundation/faucet/state"
)

type challengeResponse struct {
	OK             bool   `json:"ok"`
	BlockNumber    uint64 `json:"blockNumber"`
	SeedHex        string `json:"seedHex"`
	DifficultyBits int    `json:"difficultyBits"`
	BlockTimeMS    int64  `json:"blockTimeMs"`
	ServerTimeMS   int64  `json:"serverTimeMs"`
	MSLeft         int64  `json:"msLeft"`
}

func toChallengeResponse(c state.Challenge) challengeResponse {
	return challengeResponse{
		OK:             true,
		BlockNumber:    c.BlockNumber,
		SeedHex:        c.SeedHex,
		DifficultyBits: c.DifficultyBits,
		BlockTimeMS:    c.BlockTimeMS,
		ServerTimeMS:   time.Now().UnixMilli(),
		MSLeft:         c.MSLeft,
	}
}

type submitProofRequest struct {
	Address string `json:"address" validate:"required"`
	Nonce   string `json:"nonce" validate:"required,max=256"`
}

type submitProofResponse struct {
	OK              bool   `json:"ok"`
	Accepted        bool   `json:"accepted"`
	BlockNumber     uint64 `json:"blockNumber"`
	LeadingZeroBits int    `json:"leadingZeroBits"`
	Hash            string `json:"hash"`
}

type statusResponse struct {
	challengeResponse
	BalanceMicro     uint64 `json:"balanceMicro"`
	PoolARewardMicro uint64 `json:"poolARewardMicro"`
	PoolBRewardMicro uint64 `json:"poolBRewardMicro"`
}

type withdrawRequest struct {
	Address     string `json:"address" validate:"required"`
	AmountMicro *int64 `json:"amountMicro" validate:"required"`
}

type withdrawResponse struct {
	OK        bool   `json:"ok"`
	Status    string `json:"status"`
	PayoutID  uint64 `json:"payoutId"`
	NetAmount uint64 `json:"netAmount"`
	Fee       uint64 `json:"fee"`
}

type payout struct {
	ID          uint64     `json:"id"`
	Address     string     `json:"address"`
	AmountMicro uint64     `json:"amountMicro"`
	FeeMicro    uint64     `json:"feeMicro"`
	Status      string     `json:"status"`
	TxHash      *string    `json:"txHash"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func toPayout(p database.Payout) payout {
	return payout{
		ID:          p.ID,
		Address:     p.Address,
		AmountMicro: p.AmountMicro,
		FeeMicro:    p.FeeMicro,
		Status:      p.Status,
		TxHash:      p.TxHash,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

type payoutsResponse struct {
	OK      bool     `json:"ok"`
	Payouts []payout `json:"payouts"`
}

type healthResponse struct {
	OK             bool               `json:"ok"`
	BlockNumber    uint64             `json:"blockNumber"`
	UptimeSeconds  int64              `json:"uptime"`
	BlockProcessor string             `json:"blockProcessor"`
	Config         healthConfig       `json:"config"`
}

type healthConfig struct {
	BlockTimeMS       int64  `json:"blockTimeMs"`
	DifficultyBits    int    `json:"difficultyBits"`
	MaxSharesPerBlock int    `json:"maxSharesPerBlock"`
	WithdrawFeeMicro  uint64 `json:"withdrawFeeMicro"`
	PoolAMicro        uint64 `json:"poolAMicro"`
	PoolBMicro        uint64 `json:"poolBMicro"`
	PoolCMicro        uint64 `json:"poolCMicro"`
}
