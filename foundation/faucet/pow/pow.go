// Package pow implements the share verification primitives for the faucet:
// the canonical share input, the SHA-256 digest over it, the leading zero
// bit difficulty check, and seed generation.
package pow

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// seedLength is the number of random bytes in a block seed.
const seedLength = 16

// CanonicalInput builds the exact byte sequence the browser miner hashes:
// lowercase hex address, decimal block number, seed hex and nonce
// concatenated with no separators. This form is part of the wire protocol
// and must not change.
func CanonicalInput(address string, blockNumber uint64, seedHex string, nonce string) string {
	return address + strconv.FormatUint(blockNumber, 10) + seedHex + nonce
}

// HashShare computes the SHA-256 digest over the canonical input and
// returns it as lowercase hex.
func HashShare(address string, blockNumber uint64, seedHex string, nonce string) string {
	digest := sha256.Sum256([]byte(CanonicalInput(address, blockNumber, seedHex, nonce)))
	return hex.EncodeToString(digest[:])
}

// LeadingZeroBits counts the leading zero bits of a lowercase hex digest,
// treating the digest as a big-endian bit string.
func LeadingZeroBits(hexDigest string) int {
	bits := 0
	for i := 0; i < len(hexDigest); i++ {
		nibble, err := strconv.ParseUint(hexDigest[i:i+1], 16, 8)
		if err != nil {
			return bits
		}
		if nibble == 0 {
			bits += 4
			continue
		}

		// The first non-zero nibble contributes its own leading zeros.
		for mask := uint64(0x8); mask > 0; mask >>= 1 {
			if nibble&mask != 0 {
				return bits
			}
			bits++
		}
	}
	return bits
}

// IsHashSolved reports whether the digest satisfies the difficulty.
func IsHashSolved(difficultyBits int, hexDigest string) bool {
	return LeadingZeroBits(hexDigest) >= difficultyBits
}

// GenerateSeed returns a fresh block seed: 16 cryptographically secure
// random bytes, hex-encoded.
func GenerateSeed() (string, error) {
	seed := make([]byte, seedLength)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("generating seed: %w", err)
	}
	return hex.EncodeToString(seed), nil
}

// =============================================================================

// ToAddress validates the 0x-prefixed 20 byte hex form and returns the
// lowercased address used for all storage keys and hash input. The 0x
// prefix is required; IsHexAddress alone would accept the bare form.
func ToAddress(hexAddr string) (string, error) {
	if !strings.HasPrefix(hexAddr, "0x") || !common.IsHexAddress(hexAddr) {
		return "", fmt.Errorf("invalid address format: %q", hexAddr)
	}
	return strings.ToLower(hexAddr), nil
}
