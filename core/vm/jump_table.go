package vm

// operation is the decoder entry for one opcode: its handler, costs, stack
// arity bounds and control-flow flags.
type operation struct {
	execute     executionFunc
	constantGas uint64
	dynamicGas  dynamicGasFunc
	minStack    int // items the operation pops
	maxStack    int // highest stack depth the operation may run at
	memorySize  memorySizeFunc
	halts       bool // STOP, RETURN, SUICIDE
	jumps       bool // JUMP, JUMPI manage the pc themselves
}

// JumpTable maps every opcode byte to its operation; nil entries are
// invalid instructions.
type JumpTable [256]*operation

// minStackOf and maxStackOf derive the stack bounds from an operation's
// pop and push counts.
func minStackOf(pops, pushes int) int { return pops }

func maxStackOf(pops, pushes int) int { return StackLimit + pops - pushes }

// NewFrontierInstructionSet returns the genesis instruction set.
func NewFrontierInstructionSet() JumpTable {
	var tbl JumpTable

	op := func(code OpCode, o operation) { tbl[code] = &o }

	// Arithmetic.
	op(STOP, operation{execute: opStop, constantGas: GasZero, minStack: minStackOf(0, 0), maxStack: maxStackOf(0, 0), halts: true})
	op(ADD, operation{execute: opAdd, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(MUL, operation{execute: opMul, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SUB, operation{execute: opSub, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(DIV, operation{execute: opDiv, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SDIV, operation{execute: opSdiv, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(MOD, operation{execute: opMod, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SMOD, operation{execute: opSmod, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(ADDMOD, operation{execute: opAddmod, constantGas: GasMid, minStack: minStackOf(3, 1), maxStack: maxStackOf(3, 1)})
	op(MULMOD, operation{execute: opMulmod, constantGas: GasMid, minStack: minStackOf(3, 1), maxStack: maxStackOf(3, 1)})
	op(EXP, operation{execute: opExp, constantGas: GasExpBase, dynamicGas: gasExp, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SIGNEXTEND, operation{execute: opSignExtend, constantGas: GasLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})

	// Comparison and bitwise.
	op(LT, operation{execute: opLt, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(GT, operation{execute: opGt, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SLT, operation{execute: opSlt, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(SGT, operation{execute: opSgt, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(EQ, operation{execute: opEq, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(ISZERO, operation{execute: opIszero, constantGas: GasVeryLow, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(AND, operation{execute: opAnd, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(OR, operation{execute: opOr, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(XOR, operation{execute: opXor, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})
	op(NOT, operation{execute: opNot, constantGas: GasVeryLow, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(BYTE, operation{execute: opByte, constantGas: GasVeryLow, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1)})

	// Hashing.
	op(SHA3, operation{execute: opSha3, constantGas: GasSha3, dynamicGas: gasSha3, minStack: minStackOf(2, 1), maxStack: maxStackOf(2, 1), memorySize: memorySha3})

	// Environment.
	op(ADDRESS, operation{execute: opAddress, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(BALANCE, operation{execute: opBalance, constantGas: GasExt, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(ORIGIN, operation{execute: opOrigin, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(CALLER, operation{execute: opCaller, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(CALLVALUE, operation{execute: opCallValue, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(CALLDATALOAD, operation{execute: opCalldataLoad, constantGas: GasVeryLow, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(CALLDATASIZE, operation{execute: opCalldataSize, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(CALLDATACOPY, operation{execute: opCalldataCopy, constantGas: GasVeryLow, dynamicGas: makeGasCopy(2), minStack: minStackOf(3, 0), maxStack: maxStackOf(3, 0), memorySize: memoryCalldataCopy})
	op(CODESIZE, operation{execute: opCodeSize, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(CODECOPY, operation{execute: opCodeCopy, constantGas: GasVeryLow, dynamicGas: makeGasCopy(2), minStack: minStackOf(3, 0), maxStack: maxStackOf(3, 0), memorySize: memoryCodeCopy})
	op(GASPRICE, operation{execute: opGasPrice, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(EXTCODESIZE, operation{execute: opExtcodeSize, constantGas: GasExt, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(EXTCODECOPY, operation{execute: opExtcodeCopy, constantGas: GasExt, dynamicGas: makeGasCopy(3), minStack: minStackOf(4, 0), maxStack: maxStackOf(4, 0), memorySize: memoryExtCodeCopy})

	// Block information.
	op(BLOCKHASH, operation{execute: opBlockhash, constantGas: GasExt, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(COINBASE, operation{execute: opCoinbase, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(TIMESTAMP, operation{execute: opTimestamp, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(NUMBER, operation{execute: opNumber, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(DIFFICULTY, operation{execute: opDifficulty, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(GASLIMIT, operation{execute: opGasLimit, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})

	// Stack, memory, storage and flow.
	op(POP, operation{execute: opPop, constantGas: GasBase, minStack: minStackOf(1, 0), maxStack: maxStackOf(1, 0)})
	op(MLOAD, operation{execute: opMload, constantGas: GasVeryLow, dynamicGas: gasMemExpansion, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1), memorySize: memoryMload})
	op(MSTORE, operation{execute: opMstore, constantGas: GasVeryLow, dynamicGas: gasMemExpansion, minStack: minStackOf(2, 0), maxStack: maxStackOf(2, 0), memorySize: memoryMstore})
	op(MSTORE8, operation{execute: opMstore8, constantGas: GasVeryLow, dynamicGas: gasMemExpansion, minStack: minStackOf(2, 0), maxStack: maxStackOf(2, 0), memorySize: memoryMstore8})
	op(SLOAD, operation{execute: opSload, constantGas: GasSload, minStack: minStackOf(1, 1), maxStack: maxStackOf(1, 1)})
	op(SSTORE, operation{execute: opSstore, constantGas: 0, dynamicGas: gasSstore, minStack: minStackOf(2, 0), maxStack: maxStackOf(2, 0)})
	op(JUMP, operation{execute: opJump, constantGas: GasMid, minStack: minStackOf(1, 0), maxStack: maxStackOf(1, 0), jumps: true})
	op(JUMPI, operation{execute: opJumpi, constantGas: GasHigh, minStack: minStackOf(2, 0), maxStack: maxStackOf(2, 0), jumps: true})
	op(PC, operation{execute: opPc, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(MSIZE, operation{execute: opMsize, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(GAS, operation{execute: opGas, constantGas: GasBase, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	op(JUMPDEST, operation{execute: opJumpdest, constantGas: GasJumpDest, minStack: minStackOf(0, 0), maxStack: maxStackOf(0, 0)})

	// Pushes, dups, swaps.
	for i := 0; i < 32; i++ {
		op(PUSH1+OpCode(i), operation{execute: makePush(uint64(i + 1)), constantGas: GasVeryLow, minStack: minStackOf(0, 1), maxStack: maxStackOf(0, 1)})
	}
	for i := 1; i <= 16; i++ {
		op(DUP1+OpCode(i-1), operation{execute: makeDup(i), constantGas: GasVeryLow, minStack: minStackOf(i, i+1), maxStack: maxStackOf(i, i+1)})
		op(SWAP1+OpCode(i-1), operation{execute: makeSwap(i), constantGas: GasVeryLow, minStack: minStackOf(i+1, i+1), maxStack: maxStackOf(i+1, i+1)})
	}

	// Logging.
	for i := 0; i <= 4; i++ {
		op(LOG0+OpCode(i), operation{execute: makeLog(i), constantGas: GasLog, dynamicGas: makeGasLog(uint64(i)), minStack: minStackOf(2+i, 0), maxStack: maxStackOf(2+i, 0), memorySize: memoryLog})
	}

	// Closures.
	op(CREATE, operation{execute: opCreate, constantGas: GasCreate, dynamicGas: gasMemExpansion, minStack: minStackOf(3, 1), maxStack: maxStackOf(3, 1), memorySize: memoryCreate})
	op(CALL, operation{execute: opCall, constantGas: GasCall, dynamicGas: gasCall, minStack: minStackOf(7, 1), maxStack: maxStackOf(7, 1), memorySize: memoryCall})
	op(CALLCODE, operation{execute: opCallCode, constantGas: GasCall, dynamicGas: gasCallCode, minStack: minStackOf(7, 1), maxStack: maxStackOf(7, 1), memorySize: memoryCall})
	op(RETURN, operation{execute: opReturn, constantGas: GasZero, dynamicGas: gasMemExpansion, minStack: minStackOf(2, 0), maxStack: maxStackOf(2, 0), memorySize: memoryReturn, halts: true})
	op(SUICIDE, operation{execute: opSuicide, constantGas: GasZero, minStack: minStackOf(1, 0), maxStack: maxStackOf(1, 0), halts: true})

	return tbl
}

// NewHomesteadInstructionSet extends Frontier with DELEGATECALL.
func NewHomesteadInstructionSet() JumpTable {
	tbl := NewFrontierInstructionSet()
	tbl[DELEGATECALL] = &operation{
		execute:     opDelegateCall,
		constantGas: GasCall,
		dynamicGas:  gasDelegateCall,
		minStack:    minStackOf(6, 1),
		maxStack:    maxStackOf(6, 1),
		memorySize:  memoryDelegateCall,
	}
	return tbl
}
