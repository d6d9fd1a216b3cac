package core

import "math/big"

// ChainConfig selects which rule set applies at a given block height. The
// engine implements the Frontier and Homestead rules.
type ChainConfig struct {
	// HomesteadBlock is the height at which the Homestead rules activate
	// (nil means never).
	HomesteadBlock *big.Int
}

// MainnetChainConfig activates Homestead at the canonical height.
var MainnetChainConfig = &ChainConfig{
	HomesteadBlock: new(big.Int).SetUint64(HomesteadBlock),
}

// TestChainConfig activates Homestead from genesis.
var TestChainConfig = &ChainConfig{
	HomesteadBlock: new(big.Int),
}

// IsHomestead reports whether the Homestead rules apply at the given
// height.
func (c *ChainConfig) IsHomestead(number *big.Int) bool {
	if c == nil || c.HomesteadBlock == nil || number == nil {
		return false
	}
	return c.HomesteadBlock.Cmp(number) <= 0
}
