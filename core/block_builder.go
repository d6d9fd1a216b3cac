package core

import (
	"math/big"

	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
)

// BlockBuilder assembles new blocks on top of a parent: it derives the
// header fields, applies transactions sequentially (threading the state
// from one to the next) and commits the list roots.
type BlockBuilder struct {
	config   *ChainConfig
	coinbase types.Address
	extra    []byte
	log      *log.Logger
}

// NewBlockBuilder creates a builder paying fees to coinbase.
func NewBlockBuilder(config *ChainConfig, coinbase types.Address) *BlockBuilder {
	return &BlockBuilder{
		config:   config,
		coinbase: coinbase,
		log:      log.Default().Module("core"),
	}
}

// SetExtra sets the extra-data field for built blocks.
func (b *BlockBuilder) SetExtra(extra []byte) {
	b.extra = extra
}

// PrepareHeader derives a child header from the parent: number, difficulty
// and gas limit per the chain rules, at the given timestamp.
func (b *BlockBuilder) PrepareHeader(parent *types.Header, time uint64) *types.Header {
	header := &types.Header{
		ParentHash: parent.Hash(),
		UncleHash:  types.CalcOmmersHash(nil),
		Coinbase:   b.coinbase,
		Root:       parent.Root,
		Number:     new(big.Int).Add(parent.Number, big1),
		GasLimit:   CalcGasLimit(parent.GasLimit, parent.GasLimit),
		Time:       time,
		Extra:      b.extra,
	}
	header.Difficulty = CalcDifficulty(b.config, time, parent)
	return header
}

// AddTransactions executes txs on top of the prepared header, threading
// the state through each transaction, and returns the finished block with
// its receipts. After each transaction the new state root is recorded in
// the receipt; the final root, the list roots, the combined bloom and the
// total gas land in the header.
func (b *BlockBuilder) AddTransactions(header *types.Header, txs types.Transactions, statedb *state.StateDB) (*types.Block, types.Receipts, error) {
	var (
		gp       = new(GasPool).AddGas(header.GasLimit)
		gasUsed  uint64
		receipts types.Receipts
	)
	for _, tx := range txs {
		result, err := ApplyTransaction(b.config, statedb, header, tx, gp)
		if err != nil {
			return nil, nil, err
		}
		root, err := statedb.Commit()
		if err != nil {
			return nil, nil, err
		}
		gasUsed += result.UsedGas
		receipt := types.NewReceipt(root, gasUsed, result.Logs)
		receipt.GasUsed = result.UsedGas
		receipts = append(receipts, receipt)
		header.Root = root
		header.GasUsed = gasUsed
	}

	header.TxHash, header.ReceiptHash = DeriveListRoots(txs, receipts)
	header.Bloom = types.CreateBloom(receipts)

	block := types.NewBlock(header, txs, nil)
	types.DeriveReceiptFields(receipts, block.Hash(), block.NumberU64(), txs, types.HomesteadSigner{})
	b.log.Info("built block", "number", block.NumberU64(), "txs", len(txs), "gasUsed", gasUsed)
	return block, receipts, nil
}
