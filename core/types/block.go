package types

import (
	"math/big"

	"github.com/hayesgm/exthereum/rlp"
)

// Block is a header together with its transaction list and ommer headers.
// Its consensus encoding is the list [header, [txs...], [ommers...]].
type Block struct {
	header *Header
	txs    Transactions
	ommers []*Header
}

// blockData is the consensus encoding of a block.
type blockData struct {
	Header *Header
	Txs    []*txdata
	Ommers []*Header
}

// NewBlock assembles a block from a header, transactions and ommers. The
// header is copied; list roots are not recomputed here.
func NewBlock(header *Header, txs Transactions, ommers []*Header) *Block {
	b := &Block{header: header.Copy(), txs: txs}
	for _, o := range ommers {
		b.ommers = append(b.ommers, o.Copy())
	}
	return b
}

// Header returns a copy of the block header.
func (b *Block) Header() *Header { return b.header.Copy() }

// Transactions returns the block's transaction list.
func (b *Block) Transactions() Transactions { return b.txs }

// Ommers returns the block's ommer headers.
func (b *Block) Ommers() []*Header { return b.ommers }

// Hash returns the header hash identifying the block.
func (b *Block) Hash() Hash { return b.header.Hash() }

// NumberU64 returns the block number.
func (b *Block) NumberU64() uint64 { return b.header.NumberU64() }

// ParentHash returns the parent block hash.
func (b *Block) ParentHash() Hash { return b.header.ParentHash }

// Difficulty returns the block difficulty.
func (b *Block) Difficulty() *big.Int {
	if b.header.Difficulty == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(b.header.Difficulty)
}

// GasLimit returns the block gas limit.
func (b *Block) GasLimit() uint64 { return b.header.GasLimit }

// GasUsed returns the gas used by the block.
func (b *Block) GasUsed() uint64 { return b.header.GasUsed }

// WithHeader returns a block sharing this block's body under a new header.
func (b *Block) WithHeader(header *Header) *Block {
	return &Block{header: header.Copy(), txs: b.txs, ommers: b.ommers}
}

// EncodeRLP returns the consensus encoding of the block.
func (b *Block) EncodeRLP() ([]byte, error) {
	data := &blockData{
		Header: b.header,
		Txs:    make([]*txdata, len(b.txs)),
		Ommers: b.ommers,
	}
	for i, tx := range b.txs {
		d := tx.data
		data.Txs[i] = &d
	}
	return rlp.EncodeToBytes(data)
}

// DecodeBlock decodes a consensus-encoded block.
func DecodeBlock(b []byte) (*Block, error) {
	var data blockData
	if err := rlp.DecodeBytes(b, &data); err != nil {
		return nil, err
	}
	blk := &Block{header: data.Header, ommers: data.Ommers}
	for _, d := range data.Txs {
		blk.txs = append(blk.txs, &Transaction{data: *d})
	}
	return blk, nil
}
