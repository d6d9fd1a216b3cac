package core

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/core/vm"
	"github.com/hayesgm/exthereum/log"
)

// Transaction-level failures: the transaction is rejected before execution
// and no state is modified.
var (
	ErrInvalidSignature  = errors.New("core: invalid transaction signature")
	ErrNonceTooLow       = errors.New("core: nonce too low")
	ErrNonceTooHigh      = errors.New("core: nonce too high")
	ErrInsufficientFunds = errors.New("core: insufficient funds for gas")
	ErrIntrinsicGas      = errors.New("core: intrinsic gas too low")
	ErrGasLimitReached   = errors.New("core: block gas limit reached")
)

// GasPool tracks the gas still available to the transactions of a block.
type GasPool uint64

// AddGas makes gas available in the pool.
func (gp *GasPool) AddGas(amount uint64) *GasPool {
	*gp += GasPool(amount)
	return gp
}

// SubGas withdraws gas from the pool.
func (gp *GasPool) SubGas(amount uint64) error {
	if uint64(*gp) < amount {
		return ErrGasLimitReached
	}
	*gp -= GasPool(amount)
	return nil
}

// Gas returns the remaining pool.
func (gp *GasPool) Gas() uint64 { return uint64(*gp) }

// ExecutionResult is the outcome of one executed transaction.
type ExecutionResult struct {
	UsedGas         uint64
	Failed          bool // the top-level frame halted exceptionally
	Output          []byte
	ContractAddress types.Address // set for contract creations
	Logs            []*types.Log
	Suicides        []types.Address
}

// IntrinsicGas is the gas a transaction consumes before any VM execution:
// the base fee, the per-byte data fees and (under Homestead) the creation
// surcharge.
func IntrinsicGas(data []byte, isCreate, isHomestead bool) uint64 {
	gas := TxGas
	if isCreate && isHomestead {
		gas += TxCreateGas
	}
	for _, b := range data {
		if b == 0 {
			gas += TxDataZeroGas
		} else {
			gas += TxDataNonZeroGas
		}
	}
	return gas
}

// ApplyTransaction runs a transaction against the state:
//
//  1. recover the sender and validate nonce, balance and gas,
//  2. pre-debit the full gas purchase and take the gas from the block pool,
//  3. dispatch to contract creation or message call,
//  4. refund remaining gas plus the capped substate refund counter,
//  5. pay the beneficiary the gas actually burned.
//
// Suicided accounts are removed when the caller commits the state. The
// substate (logs, suicides) is returned in the result; the per-transaction
// journal is reset.
func ApplyTransaction(config *ChainConfig, statedb *state.StateDB, header *types.Header, tx *types.Transaction, gp *GasPool) (*ExecutionResult, error) {
	signer := types.HomesteadSigner{}
	sender, err := signer.Sender(tx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	// Up-front validation; nothing is mutated before these pass.
	nonce := statedb.GetNonce(sender)
	if tx.Nonce() < nonce {
		return nil, fmt.Errorf("%w: tx %d, account %d", ErrNonceTooLow, tx.Nonce(), nonce)
	}
	if tx.Nonce() > nonce {
		return nil, fmt.Errorf("%w: tx %d, account %d", ErrNonceTooHigh, tx.Nonce(), nonce)
	}
	gasPrice := tx.GasPrice()
	mgval := new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(tx.Gas()))
	if statedb.GetBalance(sender).Cmp(mgval) < 0 {
		return nil, fmt.Errorf("%w: need %s", ErrInsufficientFunds, mgval)
	}
	isHomestead := config.IsHomestead(header.Number)
	intrinsic := IntrinsicGas(tx.Data(), tx.IsContractCreation(), isHomestead)
	if tx.Gas() < intrinsic {
		return nil, fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, tx.Gas(), intrinsic)
	}
	if err := gp.SubGas(tx.Gas()); err != nil {
		return nil, err
	}

	// Pre-debit the whole gas purchase.
	statedb.SubBalance(sender, mgval)

	evm := vm.NewEVM(NewEVMBlockContext(header, nil), vm.TxContext{
		Origin:   sender,
		GasPrice: gasPrice,
	}, statedb)
	if !isHomestead {
		evm.SetInstructionSet(vm.NewFrontierInstructionSet())
	}

	var (
		gas       = tx.Gas() - intrinsic
		result    = &ExecutionResult{}
		remaining uint64
		vmerr     error
	)
	if tx.IsContractCreation() {
		// The creator's nonce increments inside Create; the contract
		// address derives from the pre-increment nonce.
		var created types.Address
		result.Output, created, remaining, vmerr = evm.Create(sender, tx.Data(), gas, tx.Value())
		result.ContractAddress = created
	} else {
		statedb.SetNonce(sender, nonce+1)
		result.Output, remaining, vmerr = evm.Call(sender, *tx.To(), tx.Data(), gas, tx.Value())
	}
	if vmerr != nil {
		log.Default().Module("core").Debug("tx execution failed", "tx", tx.Hash().Hex(), "err", vmerr)
		result.Failed = true
	}

	// Refund: remaining gas plus the substate counter, capped at half of
	// what was consumed.
	refund := (tx.Gas() - remaining) / RefundQuotient
	if sc := statedb.GetRefund(); sc < refund {
		refund = sc
	}
	remaining += refund
	statedb.AddBalance(sender, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(remaining)))
	gp.AddGas(remaining)

	result.UsedGas = tx.Gas() - remaining
	statedb.AddBalance(header.Coinbase, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(result.UsedGas)))

	// Capture the substate before clearing the per-transaction buffers.
	result.Logs = statedb.Logs()
	result.Suicides = statedb.Suicides()
	statedb.TxFinalise()

	return result, nil
}

// NewEVMBlockContext builds the VM's view of a block. getHash resolves
// ancestor hashes for BLOCKHASH; a nil function yields zero hashes.
func NewEVMBlockContext(header *types.Header, getHash vm.GetHashFunc) vm.BlockContext {
	if getHash == nil {
		getHash = func(uint64) types.Hash { return types.Hash{} }
	}
	number := new(big.Int)
	if header.Number != nil {
		number.Set(header.Number)
	}
	difficulty := new(big.Int)
	if header.Difficulty != nil {
		difficulty.Set(header.Difficulty)
	}
	return vm.BlockContext{
		GetHash:     getHash,
		Coinbase:    header.Coinbase,
		BlockNumber: number,
		Time:        header.Time,
		Difficulty:  difficulty,
		GasLimit:    header.GasLimit,
	}
}
