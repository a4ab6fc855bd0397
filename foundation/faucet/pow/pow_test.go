package pow_test

import (
	"testing"

	"github.com/DavidBacZit/nadfaucet/foundation/faucet/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

const (
	testAddr = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	testSeed = "00112233445566778899aabbccddeeff"
)

func TestCanonicalInput(t *testing.T) {
	t.Log("Given the need to build the exact input the browser miner hashes.")
	{
		got := pow.CanonicalInput(testAddr, 7, testSeed, "hello")
		want := testAddr + "7" + testSeed + "hello"

		if got != want {
			t.Fatalf("\t%s\tShould concatenate with no separators: got %q, want %q", failed, got, want)
		}
		t.Logf("\t%s\tShould concatenate with no separators.", success)
	}
}

func TestHashShare(t *testing.T) {
	t.Log("Given the need to compute the SHA-256 digest over the canonical input.")
	{
		got := pow.HashShare(testAddr, 7, testSeed, "hello")
		want := "8469202e40ceadeacb921c905511bde089844a3cff711047e6918cb6bc124494"

		if got != want {
			t.Fatalf("\t%s\tShould match the known digest: got %s, want %s", failed, got, want)
		}
		t.Logf("\t%s\tShould match the known digest.", success)
	}
}

func TestLeadingZeroBits(t *testing.T) {
	tt := []struct {
		name   string
		digest string
		bits   int
	}{
		{"no zeros", "ffffffff", 0},
		{"high bit set", "80000000", 0},
		{"one zero bit", "40000000", 1},
		{"one zero nibble", "0fffffff", 4},
		{"mixed nibble", "06d78c76", 5},
		{"three nibbles", "0001ffff", 15},
		{"all zeros", "00000000", 32},
	}

	t.Log("Given the need to count leading zero bits of a digest.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen checking digest %q.", testID, tst.digest)
			{
				if got := pow.LeadingZeroBits(tst.digest); got != tst.bits {
					t.Fatalf("\t%s\tTest %d:\tShould count %d bits: got %d", failed, testID, tst.bits, got)
				}
				t.Logf("\t%s\tTest %d:\tShould count %d bits.", success, testID, tst.bits)
			}
		}
	}
}

func TestIsHashSolved(t *testing.T) {
	t.Log("Given the need to validate a digest against a difficulty.")
	{
		if !pow.IsHashSolved(4, "0fffffff") {
			t.Fatalf("\t%s\tShould accept a digest meeting the difficulty.", failed)
		}
		t.Logf("\t%s\tShould accept a digest meeting the difficulty.", success)

		if pow.IsHashSolved(5, "0fffffff") {
			t.Fatalf("\t%s\tShould reject a digest below the difficulty.", failed)
		}
		t.Logf("\t%s\tShould reject a digest below the difficulty.", success)
	}
}

func TestGenerateSeed(t *testing.T) {
	t.Log("Given the need to generate unpredictable block seeds.")
	{
		seed1, err := pow.GenerateSeed()
		if err != nil {
			t.Fatalf("\t%s\tShould generate a seed: %s", failed, err)
		}
		if len(seed1) != 32 {
			t.Fatalf("\t%s\tShould encode 16 bytes as 32 hex characters: got %d", failed, len(seed1))
		}
		t.Logf("\t%s\tShould encode 16 bytes as 32 hex characters.", success)

		seed2, err := pow.GenerateSeed()
		if err != nil {
			t.Fatalf("\t%s\tShould generate a second seed: %s", failed, err)
		}
		if seed1 == seed2 {
			t.Fatalf("\t%s\tShould not repeat seeds.", failed)
		}
		t.Logf("\t%s\tShould not repeat seeds.", success)
	}
}

func TestToAddress(t *testing.T) {
	tt := []struct {
		name  string
		input string
		want  string
		valid bool
	}{
		{"lowercase", testAddr, testAddr, true},
		{"mixed case", "0xAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaaAAaa", testAddr, true},
		{"missing prefix", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", false},
		{"too short", "0xaaaa", "", false},
		{"bad characters", "0xzzaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", "", false},
		{"empty", "", "", false},
	}

	t.Log("Given the need to validate and normalize addresses.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen checking address %q.", testID, tst.input)
			{
				got, err := pow.ToAddress(tst.input)

				if tst.valid {
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould accept the address: %s", failed, testID, err)
					}
					if got != tst.want {
						t.Fatalf("\t%s\tTest %d:\tShould lowercase to %q: got %q", failed, testID, tst.want, got)
					}
					t.Logf("\t%s\tTest %d:\tShould accept and lowercase the address.", success, testID)
					continue
				}

				if err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject the address.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould reject the address.", success, testID)
			}
		}
	}
}
