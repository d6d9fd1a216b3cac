package core

import (
	"fmt"

	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/log"
	"github.com/hayesgm/exthereum/trie"
)

// StateProcessor applies the transactions of a block to a state, producing
// receipts. Transactions run strictly in order: each observes the
// post-state of its predecessor.
type StateProcessor struct {
	config *ChainConfig
	log    *log.Logger
}

// NewStateProcessor creates a processor for the given chain rules.
func NewStateProcessor(config *ChainConfig) *StateProcessor {
	return &StateProcessor{
		config: config,
		log:    log.Default().Module("core"),
	}
}

// ProcessResult aggregates the outputs of processing a block.
type ProcessResult struct {
	Receipts  types.Receipts
	Logs      []*types.Log
	GasUsed   uint64
	StateRoot types.Hash
}

// Process executes every transaction of the block against statedb. After
// each transaction the state is committed, and the receipt records the
// post-state root, cumulative gas and logs.
func (p *StateProcessor) Process(block *types.Block, statedb *state.StateDB) (*ProcessResult, error) {
	var (
		header   = block.Header()
		gp       = new(GasPool).AddGas(header.GasLimit)
		receipts types.Receipts
		allLogs  []*types.Log
		gasUsed  uint64
		root     = header.Root
	)
	for i, tx := range block.Transactions() {
		receipt, newRoot, err := p.applyAndCommit(statedb, header, tx, gp, &gasUsed)
		if err != nil {
			return nil, fmt.Errorf("tx %d [%s]: %w", i, tx.Hash().Hex(), err)
		}
		root = newRoot
		receipts = append(receipts, receipt)
		allLogs = append(allLogs, receipt.Logs...)
	}
	types.DeriveReceiptFields(receipts, block.Hash(), block.NumberU64(), block.Transactions(), types.HomesteadSigner{})

	p.log.Debug("processed block", "number", block.NumberU64(), "txs", len(block.Transactions()), "gasUsed", gasUsed)
	return &ProcessResult{
		Receipts:  receipts,
		Logs:      allLogs,
		GasUsed:   gasUsed,
		StateRoot: root,
	}, nil
}

// applyAndCommit runs one transaction, commits the post-state and builds
// the receipt.
func (p *StateProcessor) applyAndCommit(statedb *state.StateDB, header *types.Header, tx *types.Transaction, gp *GasPool, gasUsed *uint64) (*types.Receipt, types.Hash, error) {
	result, err := ApplyTransaction(p.config, statedb, header, tx, gp)
	if err != nil {
		return nil, types.Hash{}, err
	}
	root, err := statedb.Commit()
	if err != nil {
		return nil, types.Hash{}, err
	}
	*gasUsed += result.UsedGas
	receipt := types.NewReceipt(root, *gasUsed, result.Logs)
	receipt.GasUsed = result.UsedGas
	return receipt, root, nil
}

// DeriveListRoots computes the transactions and receipts trie roots, as
// committed into a header.
func DeriveListRoots(txs types.Transactions, receipts types.Receipts) (txRoot, receiptRoot types.Hash) {
	txRoot = types.DeriveSha(txs, trie.NewEmpty(nil))
	receiptRoot = types.DeriveSha(receipts, trie.NewEmpty(nil))
	return txRoot, receiptRoot
}
