package core

import (
	"math/big"
	"testing"

	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/trie"
)

// TestBuildProcessValidate drives the whole pipeline: genesis, block
// assembly, independent re-execution and validation of every header
// commitment.
func TestBuildProcessValidate(t *testing.T) {
	nodes := trie.NewNodeDatabase(nil)

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	sender := types.KeyAddress(key)

	genesis := DefaultGenesis()
	genesis.Alloc = map[types.Address]GenesisAccount{
		sender: {Balance: big.NewInt(1_000_000_000)},
	}
	genesisBlock, statedb, err := genesis.Commit(nodes)
	if err != nil {
		t.Fatal(err)
	}
	if genesisBlock.NumberU64() != 0 {
		t.Fatal("genesis number not zero")
	}
	if genesisBlock.Difficulty().Uint64() != MinimumDifficulty {
		t.Fatalf("genesis difficulty = %v", genesisBlock.Difficulty())
	}

	// One transfer and one storage-writing contract creation.
	signer := types.HomesteadSigner{}
	recipient := types.HexToAddress("0x1212121212121212121212121212121212121212")
	tx1, err := types.SignTx(
		types.NewTransaction(0, recipient, big.NewInt(999), 100000, big.NewInt(2), nil),
		signer, key)
	if err != nil {
		t.Fatal(err)
	}
	// init: sstore(5) := 3; stop
	tx2, err := types.SignTx(
		types.NewContractCreation(1, nil, 100000, big.NewInt(2), []byte{0x60, 0x03, 0x60, 0x05, 0x55, 0x00}),
		signer, key)
	if err != nil {
		t.Fatal(err)
	}

	coinbase := types.HexToAddress("0x00000000000000000000000000000000000c0ffe")
	builder := NewBlockBuilder(genesis.Config, coinbase)
	header := builder.PrepareHeader(genesisBlock.Header(), genesisBlock.Header().Time+14)
	block, receipts, err := builder.AddTransactions(header, types.Transactions{tx1, tx2}, statedb)
	if err != nil {
		t.Fatal(err)
	}

	if len(receipts) != 2 {
		t.Fatalf("receipts = %d, want 2", len(receipts))
	}
	if receipts[1].CumulativeGasUsed != block.GasUsed() {
		t.Fatal("cumulative gas does not match header")
	}
	if receipts[1].ContractAddress != types.CreateAddress(sender, 1) {
		t.Fatal("receipt missing creation address")
	}
	if receipts[0].PostState == receipts[1].PostState {
		t.Fatal("post-state roots did not advance")
	}
	if block.Header().Root != receipts[1].PostState {
		t.Fatal("header root is not the final post-state")
	}

	// Re-execute from the genesis root and validate.
	replay, err := state.New(genesisBlock.Header().Root, nodes)
	if err != nil {
		t.Fatal(err)
	}
	processor := NewStateProcessor(genesis.Config)
	result, err := processor.Process(block, replay)
	if err != nil {
		t.Fatal(err)
	}
	validator := NewBlockValidator(genesis.Config)
	if err := validator.ValidateHeader(block.Header(), genesisBlock.Header()); err != nil {
		t.Fatal(err)
	}
	if err := validator.ValidateBody(block); err != nil {
		t.Fatal(err)
	}
	if err := validator.ValidateState(block, result); err != nil {
		t.Fatal(err)
	}

	// The replayed state agrees with the builder's.
	if got := replay.GetBalance(recipient); got.Int64() != 999 {
		t.Fatalf("recipient balance = %v", got)
	}
	created := types.CreateAddress(sender, 1)
	if got := replay.GetState(created, types.BytesToHash([]byte{5})); got != types.BytesToHash([]byte{3}) {
		t.Fatalf("contract storage = %s", got.Hex())
	}
	if got := replay.GetNonce(sender); got != 2 {
		t.Fatalf("sender nonce = %d, want 2", got)
	}

	// A corrupted header fails validation.
	bad := block.Header()
	bad.GasUsed++
	if err := validator.ValidateState(block.WithHeader(bad), result); err == nil {
		t.Fatal("tampered gas used validated")
	}
}

func TestProcessRejectsBadTransaction(t *testing.T) {
	nodes := trie.NewNodeDatabase(nil)
	key, _ := crypto.GenerateKey()
	sender := types.KeyAddress(key)

	genesis := DefaultGenesis()
	genesis.Alloc = map[types.Address]GenesisAccount{
		sender: {Balance: big.NewInt(1_000_000)},
	}
	genesisBlock, statedb, err := genesis.Commit(nodes)
	if err != nil {
		t.Fatal(err)
	}

	// Nonce 5 against a zero-nonce account.
	tx, err := types.SignTx(
		types.NewTransaction(5, types.Address{}, nil, 21000, big.NewInt(1), nil),
		types.HomesteadSigner{}, key)
	if err != nil {
		t.Fatal(err)
	}
	header := NewBlockBuilder(genesis.Config, types.Address{}).
		PrepareHeader(genesisBlock.Header(), genesisBlock.Header().Time+14)
	block := types.NewBlock(header, types.Transactions{tx}, nil)

	if _, err := NewStateProcessor(genesis.Config).Process(block, statedb); err == nil {
		t.Fatal("invalid nonce processed")
	}
}

func TestIntrinsicGasValues(t *testing.T) {
	if got := IntrinsicGas(nil, false, true); got != TxGas {
		t.Fatalf("plain tx intrinsic = %d", got)
	}
	if got := IntrinsicGas(nil, true, true); got != TxGas+TxCreateGas {
		t.Fatalf("creation intrinsic = %d", got)
	}
	if got := IntrinsicGas(nil, true, false); got != TxGas {
		t.Fatalf("pre-homestead creation intrinsic = %d", got)
	}
	if got := IntrinsicGas([]byte{0, 1, 0}, false, true); got != TxGas+2*TxDataZeroGas+TxDataNonZeroGas {
		t.Fatalf("data intrinsic = %d", got)
	}
}
