// Package core glues the engine together: it validates and executes
// transactions against the world state, assembles and validates blocks,
// derives header fields and maintains the block tree.
package core

// Protocol constants of the Homestead chain rules.
const (
	// TxGas is the intrinsic cost of every transaction.
	TxGas uint64 = 21000

	// TxCreateGas is the additional intrinsic cost of a contract-creation
	// transaction.
	TxCreateGas uint64 = 32000

	// TxDataZeroGas and TxDataNonZeroGas price each byte of call data or
	// init code.
	TxDataZeroGas    uint64 = 4
	TxDataNonZeroGas uint64 = 68

	// RefundQuotient caps the refund at half the gas consumed.
	RefundQuotient uint64 = 2

	// MinGasLimit is the lowest admissible block gas limit.
	MinGasLimit uint64 = 125000

	// GasLimitBoundDivisor bounds how far a block's gas limit may move
	// from its parent's.
	GasLimitBoundDivisor uint64 = 1024

	// MinimumDifficulty is the difficulty floor (also the genesis
	// difficulty).
	MinimumDifficulty uint64 = 131072

	// DifficultyBoundDivisor scales per-block difficulty adjustments.
	DifficultyBoundDivisor uint64 = 2048

	// DurationLimit is the block-time threshold (seconds) below which
	// pre-Homestead difficulty adjusts upward.
	DurationLimit uint64 = 13

	// ExpDiffPeriod is the difficulty-bomb doubling period in blocks.
	ExpDiffPeriod uint64 = 100000

	// HomesteadBlock is the default activation height of the Homestead
	// rules.
	HomesteadBlock uint64 = 1150000
)
