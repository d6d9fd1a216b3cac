package vm

import (
	"math/big"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
)

// GetHashFunc returns the hash of the n'th block, for BLOCKHASH.
type GetHashFunc func(uint64) types.Hash

// BlockContext carries the block-level values visible to contracts.
type BlockContext struct {
	GetHash     GetHashFunc
	Coinbase    types.Address
	BlockNumber *big.Int
	Time        uint64
	Difficulty  *big.Int
	GasLimit    uint64
}

// TxContext carries the transaction-level values visible to contracts.
type TxContext struct {
	Origin   types.Address
	GasPrice *big.Int
}

// StateDB is the world-state surface the VM executes against. It is
// defined here to keep vm free of a dependency on core/state; that
// package's StateDB satisfies it.
type StateDB interface {
	CreateAccount(addr types.Address)
	GetBalance(addr types.Address) *big.Int
	AddBalance(addr types.Address, amount *big.Int)
	SubBalance(addr types.Address, amount *big.Int)
	GetNonce(addr types.Address) uint64
	SetNonce(addr types.Address, nonce uint64)
	GetCode(addr types.Address) []byte
	SetCode(addr types.Address, code []byte)
	GetCodeHash(addr types.Address) types.Hash
	GetCodeSize(addr types.Address) int

	GetState(addr types.Address, key types.Hash) types.Hash
	SetState(addr types.Address, key, value types.Hash)
	GetCommittedState(addr types.Address, key types.Hash) types.Hash

	Suicide(addr types.Address) bool
	HasSuicided(addr types.Address) bool

	Exist(addr types.Address) bool
	Empty(addr types.Address) bool

	Snapshot() int
	RevertToSnapshot(id int)

	AddLog(l *types.Log)
	AddRefund(gas uint64)
	GetRefund() uint64
}

// EVM executes contract bytecode against a StateDB under the Homestead
// rules. One EVM instance serves one transaction; nested frames share it.
type EVM struct {
	Context   BlockContext
	TxContext TxContext
	StateDB   StateDB

	depth       int
	jumpTable   JumpTable
	callGasTemp uint64 // requested gas of the pending CALL, set by gas_table
	log         *log.Logger
}

// NewEVM creates an EVM for a single transaction.
func NewEVM(blockCtx BlockContext, txCtx TxContext, statedb StateDB) *EVM {
	return &EVM{
		Context:   blockCtx,
		TxContext: txCtx,
		StateDB:   statedb,
		jumpTable: NewHomesteadInstructionSet(),
		log:       log.Default().Module("vm"),
	}
}

// SetInstructionSet replaces the jump table, e.g. to run Frontier rules.
func (evm *EVM) SetInstructionSet(tbl JumpTable) {
	evm.jumpTable = tbl
}

// Depth returns the current call nesting depth.
func (evm *EVM) Depth() int { return evm.depth }

// Run executes the frame's bytecode to completion: the fetch-decode-execute
// cycle with gas metering. A returned error is a frame exception; the
// caller reverts the frame's state changes and consumes its gas.
func (evm *EVM) Run(contract *Contract, input []byte) ([]byte, error) {
	if len(contract.Code) == 0 {
		return nil, nil
	}
	contract.Input = input

	var (
		pc    uint64
		stack = newStack()
		mem   = NewMemory()
	)
	for {
		op := contract.GetOp(pc)
		operation := evm.jumpTable[op]
		if operation == nil {
			return nil, ErrInvalidOpcode
		}

		// Stack arity validation.
		if sLen := stack.len(); sLen < operation.minStack {
			return nil, ErrStackUnderflow
		} else if sLen > operation.maxStack {
			return nil, ErrStackOverflow
		}

		if !contract.UseGas(operation.constantGas) {
			return nil, ErrOutOfGas
		}

		// Memory range the operation touches, rounded to words.
		var memorySize uint64
		if operation.memorySize != nil {
			memSize, overflow := operation.memorySize(stack)
			if overflow {
				return nil, ErrGasUintOverflow
			}
			if memorySize, overflow = safeMul(toWords(memSize), 32); overflow {
				return nil, ErrGasUintOverflow
			}
		}

		if operation.dynamicGas != nil {
			cost, err := operation.dynamicGas(evm, contract, stack, mem, memorySize)
			if err != nil {
				return nil, ErrOutOfGas
			}
			if !contract.UseGas(cost) {
				return nil, ErrOutOfGas
			}
		}
		if memorySize > 0 {
			mem.Resize(memorySize)
		}

		ret, err := operation.execute(&pc, evm, contract, mem, stack)
		if err != nil {
			return nil, err
		}
		if operation.halts {
			return ret, nil
		}
		if !operation.jumps {
			pc++
		}
	}
}

// canTransfer reports whether from can pay amount.
func (evm *EVM) canTransfer(from types.Address, amount *big.Int) bool {
	return evm.StateDB.GetBalance(from).Cmp(amount) >= 0
}

// transfer moves amount between accounts.
func (evm *EVM) transfer(from, to types.Address, amount *big.Int) {
	evm.StateDB.SubBalance(from, amount)
	evm.StateDB.AddBalance(to, amount)
}

// Call runs a message call against addr: optional value transfer, then the
// recipient's code (or a precompile) in a child frame. Call failures
// (depth, balance) return the gas untouched; frame exceptions consume it
// and revert the child's state changes.
func (evm *EVM) Call(caller, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !evm.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()
	if !evm.StateDB.Exist(addr) {
		evm.StateDB.CreateAccount(addr)
	}
	if value.Sign() > 0 {
		evm.transfer(caller, addr, value)
	}

	if p, ok := precompiled[addr]; ok {
		ret, leftGas, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, leftGas, err
	}

	contract := NewContract(caller, addr, value, gas)
	contract.Code = evm.StateDB.GetCode(addr)
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	return ret, contract.Gas, nil
}

// CallCode runs addr's code against the caller's own account. Value is
// checked but stays with the caller.
func (evm *EVM) CallCode(caller, addr types.Address, input []byte, gas uint64, value *big.Int) ([]byte, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !evm.canTransfer(caller, value) {
		return nil, gas, ErrInsufficientBalance
	}

	snapshot := evm.StateDB.Snapshot()

	if p, ok := precompiled[addr]; ok {
		ret, leftGas, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, leftGas, err
	}

	contract := NewContract(caller, caller, value, gas)
	contract.Code = evm.StateDB.GetCode(addr)
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	return ret, contract.Gas, nil
}

// DelegateCall runs addr's code in the parent frame's full context: same
// account, same caller, same value.
func (evm *EVM) DelegateCall(parent *Contract, addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, gas, ErrDepth
	}

	snapshot := evm.StateDB.Snapshot()

	if p, ok := precompiled[addr]; ok {
		ret, leftGas, err := runPrecompile(p, input, gas)
		if err != nil {
			evm.StateDB.RevertToSnapshot(snapshot)
		}
		return ret, leftGas, err
	}

	contract := NewContract(parent.CallerAddress, parent.Address, parent.Value, gas)
	contract.Code = evm.StateDB.GetCode(addr)
	contract.CodeHash = evm.StateDB.GetCodeHash(addr)

	evm.depth++
	ret, err := evm.Run(contract, input)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, 0, err
	}
	return ret, contract.Gas, nil
}

// Create deploys a contract: derive the address from the creator's nonce,
// transfer the endowment, run the init code and install its return value
// as the account's code. Under Homestead rules a failed code deposit fails
// the whole creation.
func (evm *EVM) Create(caller types.Address, code []byte, gas uint64, value *big.Int) ([]byte, types.Address, uint64, error) {
	if evm.depth > MaxCallDepth {
		return nil, types.Address{}, gas, ErrDepth
	}
	if value == nil {
		value = new(big.Int)
	}
	if value.Sign() > 0 && !evm.canTransfer(caller, value) {
		return nil, types.Address{}, gas, ErrInsufficientBalance
	}

	// The creator's nonce increments first; the address derives from the
	// pre-increment value. The increment survives a failed creation.
	nonce := evm.StateDB.GetNonce(caller)
	evm.StateDB.SetNonce(caller, nonce+1)
	contractAddr := types.CreateAddress(caller, nonce)

	snapshot := evm.StateDB.Snapshot()
	evm.StateDB.CreateAccount(contractAddr)
	if value.Sign() > 0 {
		evm.transfer(caller, contractAddr, value)
	}

	contract := NewContract(caller, contractAddr, value, gas)
	contract.Code = code

	evm.depth++
	ret, err := evm.Run(contract, nil)
	evm.depth--

	if err != nil {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, types.Address{}, 0, err
	}

	// Code deposit. Homestead treats an unaffordable deposit as a failed
	// creation rather than an empty contract.
	depositGas := uint64(len(ret)) * GasCreateData
	if !contract.UseGas(depositGas) {
		evm.StateDB.RevertToSnapshot(snapshot)
		return nil, types.Address{}, 0, ErrOutOfGas
	}
	if len(ret) > 0 {
		evm.StateDB.SetCode(contractAddr, ret)
	}
	evm.log.Debug("created contract", "address", contractAddr.Hex(), "codeLen", len(ret))
	return ret, contractAddr, contract.Gas, nil
}
