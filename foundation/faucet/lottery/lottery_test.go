package lottery_test

import (
	"testing"

	"github.com/DavidBacZit/nadfaucet/foundation/faucet/lottery"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// fixedSource always returns the same value, for deterministic selection.
type fixedSource uint64

func (f fixedSource) Intn(n uint64) (uint64, error) {
	return uint64(f) % n, nil
}

func TestPickWeighted(t *testing.T) {
	weights := []uint64{1, 2, 3}

	tt := []struct {
		target uint64
		index  int
	}{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 2},
		{5, 2},
	}

	t.Log("Given the need to select an index proportionally to its weight.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the source draws %d.", testID, tst.target)
			{
				got, err := lottery.PickWeighted(weights, fixedSource(tst.target))
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould pick without error: %s", failed, testID, err)
				}
				if got != tst.index {
					t.Fatalf("\t%s\tTest %d:\tShould pick index %d: got %d", failed, testID, tst.index, got)
				}
				t.Logf("\t%s\tTest %d:\tShould pick index %d.", success, testID, tst.index)
			}
		}
	}
}

func TestPickWeightedZeroSum(t *testing.T) {
	t.Log("Given the need to handle an empty lottery.")
	{
		got, err := lottery.PickWeighted([]uint64{0, 0, 0}, lottery.CryptoSource{})
		if err != nil {
			t.Fatalf("\t%s\tShould not error on zero weights: %s", failed, err)
		}
		if got != -1 {
			t.Fatalf("\t%s\tShould return -1 on zero weights: got %d", failed, got)
		}
		t.Logf("\t%s\tShould return -1 on zero weights.", success)

		got, err = lottery.PickWeighted(nil, lottery.CryptoSource{})
		if err != nil {
			t.Fatalf("\t%s\tShould not error on no weights: %s", failed, err)
		}
		if got != -1 {
			t.Fatalf("\t%s\tShould return -1 on no weights: got %d", failed, got)
		}
		t.Logf("\t%s\tShould return -1 on no weights.", success)
	}
}

func TestCryptoSourceBounds(t *testing.T) {
	t.Log("Given the need for secure draws inside the bound.")
	{
		src := lottery.CryptoSource{}
		for i := 0; i < 100; i++ {
			v, err := src.Intn(10)
			if err != nil {
				t.Fatalf("\t%s\tShould draw without error: %s", failed, err)
			}
			if v >= 10 {
				t.Fatalf("\t%s\tShould stay inside the bound: got %d", failed, v)
			}
		}
		t.Logf("\t%s\tShould stay inside the bound.", success)
	}
}
