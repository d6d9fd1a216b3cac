package vm

import (
	"github.com/holiman/uint256"

	"github.com/hayesgm/exthereum/core/types"
)

// dynamicGasFunc computes the input-dependent part of an operation's cost.
// It runs after the constant cost is charged and before execution, with
// memorySize already rounded up to a word multiple.
type dynamicGasFunc func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error)

// memorySizeFunc returns the highest memory byte an operation touches plus
// one. The second return signals offset/length overflow, on which the
// interpreter halts the frame with ErrGasUintOverflow.
type memorySizeFunc func(stack *Stack) (uint64, bool)

func safeAdd(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}

func safeMul(a, b uint64) (uint64, bool) {
	if a == 0 || b == 0 {
		return 0, false
	}
	prod := a * b
	return prod, prod/a != b
}

// toWords rounds a byte count up to 32-byte words.
func toWords(size uint64) uint64 {
	return (size + 31) / 32
}

// calcMemSize computes offset+size with overflow detection; a zero size
// never extends memory.
func calcMemSize(offset *uint256.Int, size uint64) (uint64, bool) {
	if size == 0 {
		return 0, false
	}
	off, overflow := offset.Uint64WithOverflow()
	if overflow {
		return 0, true
	}
	return safeAdd(off, size)
}

// calcMemSize2 is calcMemSize with the size taken from the stack.
func calcMemSize2(offset, size *uint256.Int) (uint64, bool) {
	if size.IsZero() {
		return 0, false
	}
	s, overflow := size.Uint64WithOverflow()
	if overflow {
		return 0, true
	}
	return calcMemSize(offset, s)
}

// memoryGasCost charges for growth of the active word count: 3 per word
// plus words²/512, billed on the increase only.
func memoryGasCost(mem *Memory, newSize uint64) (uint64, error) {
	if newSize == 0 {
		return 0, nil
	}
	// Cap far above any affordable size so the squaring cannot overflow.
	if newSize > 0x1FFFFFFFE0 {
		return 0, ErrGasUintOverflow
	}
	words := toWords(newSize)
	newCost := words*GasMemoryWord + words*words/MemoryQuadDivisor
	oldWords := uint64(mem.Len()) / 32
	oldCost := oldWords*GasMemoryWord + oldWords*oldWords/MemoryQuadDivisor
	if newCost > oldCost {
		return newCost - oldCost, nil
	}
	return 0, nil
}

// --- memory size functions ---

func memoryMload(stack *Stack) (uint64, bool)   { return calcMemSize(stack.Back(0), 32) }
func memoryMstore(stack *Stack) (uint64, bool)  { return calcMemSize(stack.Back(0), 32) }
func memoryMstore8(stack *Stack) (uint64, bool) { return calcMemSize(stack.Back(0), 1) }

func memorySha3(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(0), stack.Back(1))
}

func memoryReturn(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(0), stack.Back(1))
}

func memoryLog(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(0), stack.Back(1))
}

func memoryCalldataCopy(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(0), stack.Back(2))
}

func memoryCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(0), stack.Back(2))
}

func memoryExtCodeCopy(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(1), stack.Back(3))
}

func memoryCreate(stack *Stack) (uint64, bool) {
	return calcMemSize2(stack.Back(1), stack.Back(2))
}

// memoryCall covers both the argument and the return regions.
// Stack: gas, to, value, inOffset, inSize, retOffset, retSize.
func memoryCall(stack *Stack) (uint64, bool) {
	in, overflow := calcMemSize2(stack.Back(3), stack.Back(4))
	if overflow {
		return 0, true
	}
	ret, overflow := calcMemSize2(stack.Back(5), stack.Back(6))
	if overflow {
		return 0, true
	}
	if in > ret {
		return in, false
	}
	return ret, false
}

// memoryDelegateCall is memoryCall without the value argument.
// Stack: gas, to, inOffset, inSize, retOffset, retSize.
func memoryDelegateCall(stack *Stack) (uint64, bool) {
	in, overflow := calcMemSize2(stack.Back(2), stack.Back(3))
	if overflow {
		return 0, true
	}
	ret, overflow := calcMemSize2(stack.Back(4), stack.Back(5))
	if overflow {
		return 0, true
	}
	if in > ret {
		return in, false
	}
	return ret, false
}

// --- dynamic gas functions ---

// gasMemExpansion charges memory growth only.
func gasMemExpansion(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return memoryGasCost(mem, memorySize)
}

// gasExp charges per byte of exponent.
func gasExp(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	expBytes := uint64((stack.Back(1).BitLen() + 7) / 8)
	return GasExpByte * expBytes, nil
}

// gasSha3 charges per word hashed plus memory growth.
func gasSha3(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	size, overflow := stack.Back(1).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	wordGas, overflow := safeMul(toWords(size), GasSha3Word)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	gas, overflow = safeAdd(gas, wordGas)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

// makeGasCopy charges per word copied plus memory growth, with the length
// at the given stack depth.
func makeGasCopy(lengthPos int) dynamicGasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		length, overflow := stack.Back(lengthPos).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		wordGas, overflow := safeMul(toWords(length), GasCopyWord)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, overflow = safeAdd(gas, wordGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

// makeGasLog charges the topic and data costs plus memory growth.
func makeGasLog(topics uint64) dynamicGasFunc {
	return func(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
		gas, err := memoryGasCost(mem, memorySize)
		if err != nil {
			return 0, err
		}
		size, overflow := stack.Back(1).Uint64WithOverflow()
		if overflow {
			return 0, ErrGasUintOverflow
		}
		dataGas, overflow := safeMul(size, GasLogByte)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, overflow = safeAdd(gas, GasLogTopic*topics)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		gas, overflow = safeAdd(gas, dataGas)
		if overflow {
			return 0, ErrGasUintOverflow
		}
		return gas, nil
	}
}

// gasSstore implements the zero/non-zero pricing: 20000 to fill an empty
// slot, 5000 otherwise, with a 15000 refund for clearing a non-zero slot.
func gasSstore(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var (
		key     = types.Hash(stack.Back(0).Bytes32())
		value   = types.Hash(stack.Back(1).Bytes32())
		current = evm.StateDB.GetState(contract.Address, key)
	)
	switch {
	case current == (types.Hash{}) && value != (types.Hash{}):
		return GasSstoreSet, nil
	case current != (types.Hash{}) && value == (types.Hash{}):
		evm.StateDB.AddRefund(GasSstoreRefund)
		return GasSstoreReset, nil
	default:
		return GasSstoreReset, nil
	}
}

// callExtraGas is the shared surcharge logic of the CALL family: the
// requested gas is itself charged to the caller (there is no forwarding
// cap), plus the value-transfer and new-account surcharges where they
// apply.
func callExtraGas(evm *EVM, stack *Stack, mem *Memory, memorySize uint64, extra uint64) (uint64, error) {
	gas, err := memoryGasCost(mem, memorySize)
	if err != nil {
		return 0, err
	}
	gas, overflow := safeAdd(gas, extra)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	requested, overflow := stack.Back(0).Uint64WithOverflow()
	if overflow {
		return 0, ErrGasUintOverflow
	}
	evm.callGasTemp = requested
	gas, overflow = safeAdd(gas, requested)
	if overflow {
		return 0, ErrGasUintOverflow
	}
	return gas, nil
}

func gasCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	var extra uint64
	addr := types.Address(stack.Back(1).Bytes20())
	if !evm.StateDB.Exist(addr) {
		extra += GasCallNewAccount
	}
	if !stack.Back(2).IsZero() {
		extra += GasCallValueTransfer
	}
	return callExtraGas(evm, stack, mem, memorySize, extra)
}

func gasCallCode(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	// The callee's code runs against the caller's own account, so no
	// new-account surcharge applies.
	var extra uint64
	if !stack.Back(2).IsZero() {
		extra += GasCallValueTransfer
	}
	return callExtraGas(evm, stack, mem, memorySize, extra)
}

func gasDelegateCall(evm *EVM, contract *Contract, stack *Stack, mem *Memory, memorySize uint64) (uint64, error) {
	return callExtraGas(evm, stack, mem, memorySize, 0)
}
