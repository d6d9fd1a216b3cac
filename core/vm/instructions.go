package vm

import (
	"github.com/holiman/uint256"

	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
)

// executionFunc runs one opcode. Most handlers mutate the stack in place
// and return no data; RETURN-style handlers return the frame's output.
type executionFunc func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error)

// getData returns a zero-padded copy of data[start : start+size].
// Out-of-range reads yield zeros.
func getData(data []byte, start, size uint64) []byte {
	length := uint64(len(data))
	if start > length {
		start = length
	}
	end := start + size
	if end < start || end > length {
		end = length
	}
	out := make([]byte, size)
	copy(out, data[start:end])
	return out
}

// clampUint64 converts a word to uint64, saturating on overflow. Only used
// where a saturated value is immediately out of range anyway.
func clampUint64(v *uint256.Int) uint64 {
	n, overflow := v.Uint64WithOverflow()
	if overflow {
		return ^uint64(0)
	}
	return n
}

// --- arithmetic (all modulo 2^256) ---

func opAdd(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Add(&x, y)
	return nil, nil
}

func opMul(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Mul(&x, y)
	return nil, nil
}

func opSub(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Sub(&x, y)
	return nil, nil
}

// opDiv is unsigned truncated division; division by zero yields zero.
func opDiv(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Div(&x, y)
	return nil, nil
}

// opSdiv is two's-complement division rounding toward zero;
// MinInt256 / -1 wraps back to MinInt256.
func opSdiv(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.SDiv(&x, y)
	return nil, nil
}

func opMod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Mod(&x, y)
	return nil, nil
}

func opSmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.SMod(&x, y)
	return nil, nil
}

// opAddmod reduces in unbounded precision; a zero modulus yields zero.
func opAddmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y, z := stack.pop(), stack.pop(), stack.peek()
	z.AddMod(&x, &y, z)
	return nil, nil
}

func opMulmod(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y, z := stack.pop(), stack.pop(), stack.peek()
	z.MulMod(&x, &y, z)
	return nil, nil
}

func opExp(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	base, exponent := stack.pop(), stack.peek()
	exponent.Exp(&base, exponent)
	return nil, nil
}

func opSignExtend(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	back, num := stack.pop(), stack.peek()
	num.ExtendSign(num, &back)
	return nil, nil
}

// --- comparison and bitwise ---

func opLt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	if x.Lt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opGt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	if x.Gt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSlt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	if x.Slt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opSgt(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	if x.Sgt(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opEq(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	if x.Eq(y) {
		y.SetOne()
	} else {
		y.Clear()
	}
	return nil, nil
}

func opIszero(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.peek()
	if x.IsZero() {
		x.SetOne()
	} else {
		x.Clear()
	}
	return nil, nil
}

func opAnd(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.And(&x, y)
	return nil, nil
}

func opOr(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Or(&x, y)
	return nil, nil
}

func opXor(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x, y := stack.pop(), stack.peek()
	y.Xor(&x, y)
	return nil, nil
}

func opNot(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.peek()
	x.Not(x)
	return nil, nil
}

func opByte(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	th, val := stack.pop(), stack.peek()
	val.Byte(&th)
	return nil, nil
}

// --- hashing ---

func opSha3(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, size := stack.pop(), stack.peek()
	data := memory.GetPtr(offset.Uint64(), size.Uint64())
	size.SetBytes(crypto.Keccak256(data))
	return nil, nil
}

// --- environment ---

func opAddress(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetBytes(contract.Address.Bytes()))
	return nil, nil
}

func opBalance(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	slot := stack.peek()
	addr := types.Address(slot.Bytes20())
	balance, _ := uint256.FromBig(evm.StateDB.GetBalance(addr))
	slot.Set(balance)
	return nil, nil
}

func opOrigin(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetBytes(evm.TxContext.Origin.Bytes()))
	return nil, nil
}

func opCaller(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetBytes(contract.CallerAddress.Bytes()))
	return nil, nil
}

func opCallValue(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(contract.Value)
	stack.push(v)
	return nil, nil
}

func opCalldataLoad(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	x := stack.peek()
	x.SetBytes(getData(contract.Input, clampUint64(x), 32))
	return nil, nil
}

func opCalldataSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(uint64(len(contract.Input))))
	return nil, nil
}

func opCalldataCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	memOffset, dataOffset, length := stack.pop(), stack.pop(), stack.pop()
	if length.IsZero() {
		return nil, nil
	}
	memory.Set(memOffset.Uint64(), length.Uint64(),
		getData(contract.Input, clampUint64(&dataOffset), length.Uint64()))
	return nil, nil
}

func opCodeSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(uint64(len(contract.Code))))
	return nil, nil
}

func opCodeCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	memOffset, codeOffset, length := stack.pop(), stack.pop(), stack.pop()
	if length.IsZero() {
		return nil, nil
	}
	memory.Set(memOffset.Uint64(), length.Uint64(),
		getData(contract.Code, clampUint64(&codeOffset), length.Uint64()))
	return nil, nil
}

func opGasPrice(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	price, _ := uint256.FromBig(evm.TxContext.GasPrice)
	stack.push(price)
	return nil, nil
}

func opExtcodeSize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	slot := stack.peek()
	addr := types.Address(slot.Bytes20())
	slot.SetUint64(uint64(evm.StateDB.GetCodeSize(addr)))
	return nil, nil
}

func opExtcodeCopy(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	a, memOffset, codeOffset, length := stack.pop(), stack.pop(), stack.pop(), stack.pop()
	if length.IsZero() {
		return nil, nil
	}
	addr := types.Address(a.Bytes20())
	code := evm.StateDB.GetCode(addr)
	memory.Set(memOffset.Uint64(), length.Uint64(),
		getData(code, clampUint64(&codeOffset), length.Uint64()))
	return nil, nil
}

// --- block information ---

func opBlockhash(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	num := stack.peek()
	num64, overflow := num.Uint64WithOverflow()
	if overflow {
		num.Clear()
		return nil, nil
	}
	current := evm.Context.BlockNumber.Uint64()
	// Only the 256 most recent blocks (excluding the current one) are
	// addressable.
	if num64 < current && num64+256 >= current {
		num.SetBytes(evm.Context.GetHash(num64).Bytes())
	} else {
		num.Clear()
	}
	return nil, nil
}

func opCoinbase(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetBytes(evm.Context.Coinbase.Bytes()))
	return nil, nil
}

func opTimestamp(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(evm.Context.Time))
	return nil, nil
}

func opNumber(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(evm.Context.BlockNumber)
	stack.push(v)
	return nil, nil
}

func opDifficulty(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v, _ := uint256.FromBig(evm.Context.Difficulty)
	stack.push(v)
	return nil, nil
}

func opGasLimit(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(evm.Context.GasLimit))
	return nil, nil
}

// --- stack, memory, storage, flow ---

func opPop(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.pop()
	return nil, nil
}

func opMload(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	v := stack.peek()
	offset := v.Uint64()
	v.SetBytes(memory.GetPtr(offset, 32))
	return nil, nil
}

func opMstore(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, val := stack.pop(), stack.pop()
	memory.Set32(offset.Uint64(), &val)
	return nil, nil
}

func opMstore8(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, val := stack.pop(), stack.pop()
	memory.Set(offset.Uint64(), 1, []byte{byte(val.Uint64())})
	return nil, nil
}

func opSload(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	loc := stack.peek()
	value := evm.StateDB.GetState(contract.Address, types.Hash(loc.Bytes32()))
	loc.SetBytes(value.Bytes())
	return nil, nil
}

func opSstore(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	loc, val := stack.pop(), stack.pop()
	evm.StateDB.SetState(contract.Address, types.Hash(loc.Bytes32()), types.Hash(val.Bytes32()))
	return nil, nil
}

func opJump(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	dest := stack.pop()
	if !contract.validJumpdest(&dest) {
		return nil, ErrInvalidJump
	}
	*pc = dest.Uint64()
	return nil, nil
}

func opJumpi(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	dest, cond := stack.pop(), stack.pop()
	if !cond.IsZero() {
		if !contract.validJumpdest(&dest) {
			return nil, ErrInvalidJump
		}
		*pc = dest.Uint64()
	} else {
		*pc++
	}
	return nil, nil
}

func opPc(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(*pc))
	return nil, nil
}

func opMsize(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(uint64(memory.Len())))
	return nil, nil
}

func opGas(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.push(new(uint256.Int).SetUint64(contract.Gas))
	return nil, nil
}

func opJumpdest(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

// makePush builds the handler for PUSHn. Operand bytes past the end of the
// code read as zero.
func makePush(size uint64) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		stack.push(new(uint256.Int).SetBytes(getData(contract.Code, *pc+1, size)))
		*pc += size
		return nil, nil
	}
}

// makeDup builds the handler for DUPn.
func makeDup(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		stack.dup(n)
		return nil, nil
	}
}

// makeSwap builds the handler for SWAPn.
func makeSwap(n int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		stack.swap(n)
		return nil, nil
	}
}

// makeLog builds the handler for LOGn.
func makeLog(topics int) executionFunc {
	return func(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
		offset, size := stack.pop(), stack.pop()
		l := &types.Log{
			Address: contract.Address,
			Data:    memory.GetCopy(offset.Uint64(), size.Uint64()),
		}
		for i := 0; i < topics; i++ {
			topic := stack.pop()
			l.Topics = append(l.Topics, types.Hash(topic.Bytes32()))
		}
		evm.StateDB.AddLog(l)
		return nil, nil
	}
}

// --- halting ---

func opStop(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	return nil, nil
}

func opReturn(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	offset, size := stack.pop(), stack.pop()
	return memory.GetCopy(offset.Uint64(), size.Uint64()), nil
}

func opSuicide(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	beneficiary := stack.pop()
	addr := types.Address(beneficiary.Bytes20())
	// Refund only the first scheduling of this contract's destruction.
	if !evm.StateDB.HasSuicided(contract.Address) {
		evm.StateDB.AddRefund(GasSuicideRefund)
	}
	evm.StateDB.AddBalance(addr, evm.StateDB.GetBalance(contract.Address))
	evm.StateDB.Suicide(contract.Address)
	return nil, nil
}

// --- calls and creation ---

func opCreate(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	value, offset, size := stack.pop(), stack.pop(), stack.pop()
	input := memory.GetCopy(offset.Uint64(), size.Uint64())

	// All remaining gas goes to the init frame; unspent gas comes back.
	gas := contract.Gas
	contract.Gas = 0

	_, addr, leftGas, err := evm.Create(contract.Address, input, gas, value.ToBig())
	contract.RefundGas(leftGas)

	res := new(uint256.Int)
	if err == nil {
		res.SetBytes(addr.Bytes())
	}
	stack.push(res)
	return nil, nil
}

func opCall(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	// Stack: gas, to, value, inOffset, inSize, retOffset, retSize.
	stack.pop() // gas amount already folded into callGasTemp
	to, value := stack.pop(), stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	addr := types.Address(to.Bytes20())
	input := memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	gas := evm.callGasTemp
	if !value.IsZero() {
		gas += GasCallStipend
	}
	ret, leftGas, err := evm.Call(contract.Address, addr, input, gas, value.ToBig())
	contract.RefundGas(leftGas)

	pushCallResult(stack, err)
	copyCallOutput(memory, &retOffset, &retSize, ret)
	return nil, nil
}

func opCallCode(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	stack.pop() // gas amount already folded into callGasTemp
	to, value := stack.pop(), stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	addr := types.Address(to.Bytes20())
	input := memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	gas := evm.callGasTemp
	if !value.IsZero() {
		gas += GasCallStipend
	}
	ret, leftGas, err := evm.CallCode(contract.Address, addr, input, gas, value.ToBig())
	contract.RefundGas(leftGas)

	pushCallResult(stack, err)
	copyCallOutput(memory, &retOffset, &retSize, ret)
	return nil, nil
}

func opDelegateCall(pc *uint64, evm *EVM, contract *Contract, memory *Memory, stack *Stack) ([]byte, error) {
	// Stack: gas, to, inOffset, inSize, retOffset, retSize. Caller and
	// value are inherited from the current frame.
	stack.pop() // gas amount already folded into callGasTemp
	to := stack.pop()
	inOffset, inSize := stack.pop(), stack.pop()
	retOffset, retSize := stack.pop(), stack.pop()

	addr := types.Address(to.Bytes20())
	input := memory.GetCopy(inOffset.Uint64(), inSize.Uint64())

	ret, leftGas, err := evm.DelegateCall(contract, addr, input, evm.callGasTemp)
	contract.RefundGas(leftGas)

	pushCallResult(stack, err)
	copyCallOutput(memory, &retOffset, &retSize, ret)
	return nil, nil
}

// pushCallResult pushes 1 for success, 0 for failure.
func pushCallResult(stack *Stack, err error) {
	res := new(uint256.Int)
	if err == nil {
		res.SetOne()
	}
	stack.push(res)
}

// copyCallOutput copies up to retSize bytes of the child's output into the
// caller's memory.
func copyCallOutput(memory *Memory, retOffset, retSize *uint256.Int, ret []byte) {
	if len(ret) == 0 {
		return
	}
	n := retSize.Uint64()
	if uint64(len(ret)) < n {
		n = uint64(len(ret))
	}
	memory.Set(retOffset.Uint64(), n, ret)
}
