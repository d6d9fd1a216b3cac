package vm

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/hayesgm/exthereum/core/types"
)

// Contract is one execution frame: the code being run, the identity it
// runs under, its remaining gas and its inputs. For CALLCODE and
// DELEGATECALL the code and the identity come from different accounts.
type Contract struct {
	CallerAddress types.Address // immediate caller (msg.sender)
	Address       types.Address // account whose storage and balance are in scope
	Code          []byte
	CodeHash      types.Hash
	Input         []byte
	Gas           uint64
	Value         *big.Int

	jumpdests map[uint64]bool // lazily built JUMPDEST analysis
}

// NewContract creates an execution frame.
func NewContract(caller, addr types.Address, value *big.Int, gas uint64) *Contract {
	if value == nil {
		value = new(big.Int)
	}
	return &Contract{
		CallerAddress: caller,
		Address:       addr,
		Value:         value,
		Gas:           gas,
	}
}

// GetOp returns the opcode at position n. Positions past the end of the
// code act as implicit STOP.
func (c *Contract) GetOp(n uint64) OpCode {
	if n < uint64(len(c.Code)) {
		return OpCode(c.Code[n])
	}
	return STOP
}

// UseGas consumes gas from the frame, reporting whether enough remained.
func (c *Contract) UseGas(gas uint64) bool {
	if c.Gas < gas {
		return false
	}
	c.Gas -= gas
	return true
}

// RefundGas returns unspent gas from a child frame.
func (c *Contract) RefundGas(gas uint64) {
	c.Gas += gas
}

// validJumpdest reports whether dest is a JUMPDEST byte that is not inside
// PUSH data.
func (c *Contract) validJumpdest(dest *uint256.Int) bool {
	udest, overflow := dest.Uint64WithOverflow()
	if overflow || udest >= uint64(len(c.Code)) {
		return false
	}
	if OpCode(c.Code[udest]) != JUMPDEST {
		return false
	}
	if c.jumpdests == nil {
		c.analyzeJumpdests()
	}
	return c.jumpdests[udest]
}

// analyzeJumpdests scans the code once, recording every JUMPDEST position
// while skipping PUSH operand bytes.
func (c *Contract) analyzeJumpdests() {
	c.jumpdests = make(map[uint64]bool)
	for i := uint64(0); i < uint64(len(c.Code)); i++ {
		op := OpCode(c.Code[i])
		if op == JUMPDEST {
			c.jumpdests[i] = true
		} else if op.IsPush() {
			i += uint64(op - PUSH1 + 1)
		}
	}
}
