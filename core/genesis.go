package core

import (
	"math/big"

	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
	"github.com/hayesgm/exthereum/trie"
)

// GenesisAccount is a pre-funded account in the genesis state.
type GenesisAccount struct {
	Balance *big.Int
	Nonce   uint64
	Code    []byte
	Storage map[types.Hash]types.Hash
}

// Genesis specifies block zero: chain rules, header fields and the initial
// account allocation.
type Genesis struct {
	Config     *ChainConfig
	Timestamp  uint64
	ExtraData  []byte
	GasLimit   uint64
	Difficulty *big.Int
	Coinbase   types.Address
	Alloc      map[types.Address]GenesisAccount
}

// DefaultGenesis returns a minimal test genesis with no allocation.
func DefaultGenesis() *Genesis {
	return &Genesis{
		Config:     TestChainConfig,
		GasLimit:   3141592,
		Difficulty: new(big.Int).SetUint64(MinimumDifficulty),
	}
}

// Commit writes the genesis state into the node database and returns the
// genesis block.
func (g *Genesis) Commit(db *trie.NodeDatabase) (*types.Block, *state.StateDB, error) {
	statedb, err := state.New(types.EmptyRootHash, db)
	if err != nil {
		return nil, nil, err
	}
	for addr, account := range g.Alloc {
		statedb.CreateAccount(addr)
		if account.Balance != nil {
			statedb.AddBalance(addr, account.Balance)
		}
		if account.Nonce > 0 {
			statedb.SetNonce(addr, account.Nonce)
		}
		if len(account.Code) > 0 {
			statedb.SetCode(addr, account.Code)
		}
		for key, value := range account.Storage {
			statedb.SetState(addr, key, value)
		}
	}
	root, err := statedb.Commit()
	if err != nil {
		return nil, nil, err
	}
	statedb.TxFinalise()

	difficulty := g.Difficulty
	if difficulty == nil {
		difficulty = new(big.Int).SetUint64(MinimumDifficulty)
	}
	gasLimit := g.GasLimit
	if gasLimit == 0 {
		gasLimit = MinGasLimit + 1
	}
	header := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    g.Coinbase,
		Root:        root,
		TxHash:      types.EmptyRootHash,
		ReceiptHash: types.EmptyRootHash,
		Difficulty:  difficulty,
		Number:      new(big.Int),
		GasLimit:    gasLimit,
		Time:        g.Timestamp,
		Extra:       g.ExtraData,
	}
	block := types.NewBlock(header, nil, nil)
	log.Default().Module("core").Info("committed genesis block",
		"hash", block.Hash().Hex(), "root", root.Hex(), "alloc", len(g.Alloc))
	return block, statedb, nil
}
