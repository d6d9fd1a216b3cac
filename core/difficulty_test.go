package core

import (
	"math/big"
	"testing"

	"github.com/hayesgm/exthereum/core/types"
)

func parentHeader(number, difficulty int64, time uint64) *types.Header {
	return &types.Header{
		Number:     big.NewInt(number),
		Difficulty: big.NewInt(difficulty),
		Time:       time,
	}
}

func TestFrontierDifficultyAdjustment(t *testing.T) {
	parent := parentHeader(100, 1_000_000, 1000)
	step := int64(1_000_000 / 2048)

	// Fast block (under 13 seconds): difficulty rises.
	up := CalcDifficulty(MainnetChainConfig, 1012, parent)
	if up.Int64() != 1_000_000+step {
		t.Fatalf("fast block difficulty = %v, want %d", up, 1_000_000+step)
	}
	// Slow block: difficulty falls.
	down := CalcDifficulty(MainnetChainConfig, 1013, parent)
	if down.Int64() != 1_000_000-step {
		t.Fatalf("slow block difficulty = %v, want %d", down, 1_000_000-step)
	}
}

func TestHomesteadDifficultyAdjustment(t *testing.T) {
	parent := parentHeader(2_000_000, 1_000_000, 1000)
	step := int64(1_000_000 / 2048)
	// period count 20 -> bomb term 2^18.
	bomb := int64(1) << 18

	tests := []struct {
		dt   uint64
		mult int64
	}{
		{1, 1},    // 1 - 0 = 1
		{9, 1},    // still under 10 seconds
		{10, 0},   // exactly one period: no adjustment
		{25, -1},  // 1 - 2
		{5000, -99}, // clamped
	}
	for _, tt := range tests {
		got := CalcDifficulty(MainnetChainConfig, 1000+tt.dt, parent)
		want := 1_000_000 + step*tt.mult + bomb
		if got.Int64() != want {
			t.Errorf("dt=%d: difficulty = %v, want %d", tt.dt, got, want)
		}
	}
}

func TestDifficultyFloor(t *testing.T) {
	parent := parentHeader(100, int64(MinimumDifficulty), 1000)
	got := CalcDifficulty(MainnetChainConfig, 2000, parent)
	if got.Uint64() != MinimumDifficulty {
		t.Fatalf("difficulty = %v, want floor %d", got, MinimumDifficulty)
	}
}

func TestDifficultyBombInactiveEarly(t *testing.T) {
	// Below 200000 the bomb term is zero.
	parent := parentHeader(150_000, 1_000_000, 1000)
	got := CalcDifficulty(MainnetChainConfig, 1012, parent)
	step := int64(1_000_000 / 2048)
	if got.Int64() != 1_000_000+step {
		t.Fatalf("difficulty = %v, want %d", got, 1_000_000+step)
	}
}

func TestGasLimitWindow(t *testing.T) {
	parent := uint64(3_000_000)
	bound := parent / GasLimitBoundDivisor

	if err := ValidateGasLimit(parent, parent+bound); err != nil {
		t.Fatalf("upper bound rejected: %v", err)
	}
	if err := ValidateGasLimit(parent, parent-bound); err != nil {
		t.Fatalf("lower bound rejected: %v", err)
	}
	if err := ValidateGasLimit(parent, parent+bound+1); err == nil {
		t.Fatal("over upper bound accepted")
	}
	if err := ValidateGasLimit(parent, parent-bound-1); err == nil {
		t.Fatal("under lower bound accepted")
	}
	if err := ValidateGasLimit(parent, MinGasLimit); err == nil {
		t.Fatal("minimum gas limit accepted (must be strictly above)")
	}
}

func TestCalcGasLimitConverges(t *testing.T) {
	limit := uint64(3_000_000)
	target := uint64(4_000_000)
	for i := 0; i < 500; i++ {
		next := CalcGasLimit(limit, target)
		if err := ValidateGasLimit(limit, next); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		limit = next
	}
	if limit != target {
		t.Fatalf("limit = %d, did not converge to %d", limit, target)
	}
}
