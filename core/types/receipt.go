package types

import (
	"math/big"

	"github.com/hayesgm/exthereum/rlp"
)

// Receipt records the outcome of a transaction. Its consensus encoding is
// the list [post-state root, cumulative gas used, logs bloom, logs].
type Receipt struct {
	// Consensus fields.
	PostState         Hash
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*Log

	// Derived fields, filled in during block processing.
	TxHash          Hash
	ContractAddress Address
	GasUsed         uint64
	BlockHash       Hash
	BlockNumber     *big.Int
	TxIndex         uint
}

// NewReceipt creates a receipt for a transaction that left the state at
// root and brought the block's cumulative gas to cumulativeGasUsed.
func NewReceipt(root Hash, cumulativeGasUsed uint64, logs []*Log) *Receipt {
	return &Receipt{
		PostState:         root,
		CumulativeGasUsed: cumulativeGasUsed,
		Bloom:             LogsBloom(logs),
		Logs:              logs,
	}
}

// receiptData and logData are the consensus encodings.
type receiptData struct {
	PostState         Hash
	CumulativeGasUsed uint64
	Bloom             Bloom
	Logs              []*logData
}

type logData struct {
	Address Address
	Topics  []Hash
	Data    []byte
}

// EncodeRLP returns the consensus encoding of the receipt.
func (r *Receipt) EncodeRLP() ([]byte, error) {
	data := &receiptData{
		PostState:         r.PostState,
		CumulativeGasUsed: r.CumulativeGasUsed,
		Bloom:             r.Bloom,
		Logs:              make([]*logData, len(r.Logs)),
	}
	for i, l := range r.Logs {
		data.Logs[i] = &logData{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return rlp.EncodeToBytes(data)
}

// DecodeReceipt decodes a consensus-encoded receipt.
func DecodeReceipt(b []byte) (*Receipt, error) {
	var data receiptData
	if err := rlp.DecodeBytes(b, &data); err != nil {
		return nil, err
	}
	r := &Receipt{
		PostState:         data.PostState,
		CumulativeGasUsed: data.CumulativeGasUsed,
		Bloom:             data.Bloom,
		Logs:              make([]*Log, len(data.Logs)),
	}
	for i, l := range data.Logs {
		r.Logs[i] = &Log{Address: l.Address, Topics: l.Topics, Data: l.Data}
	}
	return r, nil
}

// Receipts is a slice of receipts.
type Receipts []*Receipt

// Len returns the number of receipts.
func (rs Receipts) Len() int { return len(rs) }

// EncodeIndex returns the consensus encoding of the i'th receipt, for
// building the receipts trie.
func (rs Receipts) EncodeIndex(i int) []byte {
	enc, err := rs[i].EncodeRLP()
	if err != nil {
		panic("receipt: " + err.Error())
	}
	return enc
}

// DeriveReceiptFields fills in the derived fields of a block's receipts:
// transaction hashes, per-receipt gas used, creation addresses, block
// context and global log indices.
func DeriveReceiptFields(receipts Receipts, blockHash Hash, blockNumber uint64, txs Transactions, signer Signer) {
	var logIndex uint
	for i, r := range receipts {
		r.BlockHash = blockHash
		r.BlockNumber = new(big.Int).SetUint64(blockNumber)
		r.TxIndex = uint(i)
		if i < len(txs) {
			tx := txs[i]
			r.TxHash = tx.Hash()
			if i == 0 {
				r.GasUsed = r.CumulativeGasUsed
			} else {
				r.GasUsed = r.CumulativeGasUsed - receipts[i-1].CumulativeGasUsed
			}
			if tx.IsContractCreation() {
				if from, err := signer.Sender(tx); err == nil {
					r.ContractAddress = CreateAddress(from, tx.Nonce())
				}
			}
		}
		for _, l := range r.Logs {
			l.BlockHash = blockHash
			l.BlockNumber = blockNumber
			l.TxIndex = uint(i)
			l.TxHash = r.TxHash
			l.Index = logIndex
			logIndex++
		}
	}
}
