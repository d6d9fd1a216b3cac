package core

import (
	"math/big"

	"github.com/hayesgm/exthereum/core/types"
)

var (
	bigMinDifficulty = new(big.Int).SetUint64(MinimumDifficulty)
	big1             = big.NewInt(1)
	big2             = big.NewInt(2)
	big10            = big.NewInt(10)
	bigMinus99       = big.NewInt(-99)
)

// CalcDifficulty derives the difficulty of a block at the given time with
// the given parent. The adjustment step is parent.difficulty / 2048; its
// sign depends on the parent's block time, with the pre- and post-Homestead
// rules differing in how the sign is computed. A slow exponential term (the
// difficulty bomb) doubles every 100000 blocks, and the result never drops
// below the minimum difficulty.
func CalcDifficulty(config *ChainConfig, time uint64, parent *types.Header) *big.Int {
	number := new(big.Int).Add(parent.Number, big1)
	if config.IsHomestead(number) {
		return calcDifficultyHomestead(time, parent, number)
	}
	return calcDifficultyFrontier(time, parent, number)
}

// calcDifficultyFrontier adjusts by a fixed step: up when the parent was
// sealed less than 13 seconds ago, down otherwise.
func calcDifficultyFrontier(time uint64, parent *types.Header, number *big.Int) *big.Int {
	adjust := new(big.Int).Div(parent.Difficulty, new(big.Int).SetUint64(DifficultyBoundDivisor))
	diff := new(big.Int)
	if time < parent.Time+DurationLimit {
		diff.Add(parent.Difficulty, adjust)
	} else {
		diff.Sub(parent.Difficulty, adjust)
	}
	if diff.Cmp(bigMinDifficulty) < 0 {
		diff.Set(bigMinDifficulty)
	}
	return addDifficultyBomb(diff, number)
}

// calcDifficultyHomestead scales the step with how late the block is:
// step multiplier is max(1 - (time - parent.time) / 10, -99).
func calcDifficultyHomestead(time uint64, parent *types.Header, number *big.Int) *big.Int {
	// 1 - (time - parent.time) // 10
	x := new(big.Int).SetUint64(time - parent.Time)
	x.Div(x, big10)
	x.Sub(big1, x)
	if x.Cmp(bigMinus99) < 0 {
		x.Set(bigMinus99)
	}

	// parent.difficulty + parent.difficulty/2048 * x
	y := new(big.Int).Div(parent.Difficulty, new(big.Int).SetUint64(DifficultyBoundDivisor))
	x.Mul(y, x)
	diff := new(big.Int).Add(parent.Difficulty, x)

	if diff.Cmp(bigMinDifficulty) < 0 {
		diff.Set(bigMinDifficulty)
	}
	return addDifficultyBomb(diff, number)
}

// addDifficultyBomb adds 2^(number/100000 - 2) once the exponent is
// non-negative.
func addDifficultyBomb(diff, number *big.Int) *big.Int {
	periodCount := new(big.Int).Div(number, new(big.Int).SetUint64(ExpDiffPeriod))
	if periodCount.Cmp(big1) > 0 {
		bomb := new(big.Int).Sub(periodCount, big2)
		bomb.Exp(big2, bomb, nil)
		diff.Add(diff, bomb)
	}
	return diff
}
