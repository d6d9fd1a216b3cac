package core

import (
	"errors"
	"fmt"

	"github.com/hayesgm/exthereum/core/types"
)

// Block-level faults.
var (
	ErrUnknownParent       = errors.New("core: unknown parent")
	ErrInvalidNumber       = errors.New("core: invalid block number")
	ErrInvalidTimestamp    = errors.New("core: timestamp not after parent")
	ErrInvalidDifficulty   = errors.New("core: invalid difficulty")
	ErrGasUsedExceedsLimit = errors.New("core: gas used exceeds gas limit")
	ErrInvalidTxRoot       = errors.New("core: transaction root mismatch")
	ErrInvalidReceiptRoot  = errors.New("core: receipt root mismatch")
	ErrInvalidStateRoot    = errors.New("core: state root mismatch")
	ErrInvalidBloom        = errors.New("core: logs bloom mismatch")
	ErrInvalidGasUsed      = errors.New("core: gas used mismatch")
	ErrExtraTooLong        = errors.New("core: extra data too long")
)

// MaxExtraDataSize bounds the header's extra-data field.
const MaxExtraDataSize = 32

// BlockValidator checks headers against their parents and execution
// results against header commitments.
type BlockValidator struct {
	config *ChainConfig
}

// NewBlockValidator creates a validator for the given chain rules.
func NewBlockValidator(config *ChainConfig) *BlockValidator {
	return &BlockValidator{config: config}
}

// ValidateHeader checks the derivable header fields against the parent.
// Proof-of-work (mix-hash) validation is out of scope for the engine.
func (v *BlockValidator) ValidateHeader(header, parent *types.Header) error {
	if header.Number == nil || parent.Number == nil ||
		header.Number.Uint64() != parent.Number.Uint64()+1 {
		return ErrInvalidNumber
	}
	if header.Time <= parent.Time {
		return ErrInvalidTimestamp
	}
	if len(header.Extra) > MaxExtraDataSize {
		return fmt.Errorf("%w: %d bytes", ErrExtraTooLong, len(header.Extra))
	}
	expected := CalcDifficulty(v.config, header.Time, parent)
	if header.Difficulty == nil || header.Difficulty.Cmp(expected) != 0 {
		return fmt.Errorf("%w: have %v, want %v", ErrInvalidDifficulty, header.Difficulty, expected)
	}
	if err := ValidateGasLimit(parent.GasLimit, header.GasLimit); err != nil {
		return err
	}
	if header.GasUsed > header.GasLimit {
		return fmt.Errorf("%w: used %d, limit %d", ErrGasUsedExceedsLimit, header.GasUsed, header.GasLimit)
	}
	return nil
}

// ValidateBody checks that the header's list commitments match the block
// body.
func (v *BlockValidator) ValidateBody(block *types.Block) error {
	header := block.Header()
	txRoot, _ := DeriveListRoots(block.Transactions(), nil)
	if txRoot != header.TxHash {
		return fmt.Errorf("%w: have %s, want %s", ErrInvalidTxRoot, txRoot.Hex(), header.TxHash.Hex())
	}
	return nil
}

// ValidateState checks a processing result against the header: state root,
// receipt root, bloom and total gas.
func (v *BlockValidator) ValidateState(block *types.Block, result *ProcessResult) error {
	header := block.Header()
	if result.GasUsed != header.GasUsed {
		return fmt.Errorf("%w: have %d, want %d", ErrInvalidGasUsed, result.GasUsed, header.GasUsed)
	}
	_, receiptRoot := DeriveListRoots(nil, result.Receipts)
	if receiptRoot != header.ReceiptHash {
		return fmt.Errorf("%w: have %s, want %s", ErrInvalidReceiptRoot, receiptRoot.Hex(), header.ReceiptHash.Hex())
	}
	if bloom := types.CreateBloom(result.Receipts); bloom != header.Bloom {
		return ErrInvalidBloom
	}
	if result.StateRoot != header.Root {
		return fmt.Errorf("%w: have %s, want %s", ErrInvalidStateRoot, result.StateRoot.Hex(), header.Root.Hex())
	}
	return nil
}
