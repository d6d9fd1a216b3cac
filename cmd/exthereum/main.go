// Command exthereum runs the state-transition engine end to end: it
// commits a genesis state, signs and executes transactions, assembles a
// block and re-validates it from scratch.
package main

import (
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hayesgm/exthereum/core"
	"github.com/hayesgm/exthereum/core/state"
	"github.com/hayesgm/exthereum/core/types"
	"github.com/hayesgm/exthereum/crypto"
	"github.com/hayesgm/exthereum/ethdb"
	"github.com/hayesgm/exthereum/ethdb/leveldb"
	"github.com/hayesgm/exthereum/ethdb/memorydb"
	"github.com/hayesgm/exthereum/log"
	"github.com/hayesgm/exthereum/trie"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "exthereum",
		Short: "Ethereum-style state-transition engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.SetDefault(log.New(log.ParseLevel(viper.GetString("loglevel"))))
		},
	}
	root.PersistentFlags().String("loglevel", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("datadir", "", "directory for the leveldb store (in-memory when empty)")
	viper.BindPFlags(root.PersistentFlags())
	viper.SetEnvPrefix("exthereum")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newDemoCommand())
	return root
}

func newDemoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Build and re-validate a block on a fresh chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDemo(viper.GetString("datadir"))
		},
	}
}

func runDemo(datadir string) error {
	logger := log.Default().Module("demo")

	var disk ethdb.Database
	if datadir != "" {
		ldb, err := leveldb.New(datadir)
		if err != nil {
			return err
		}
		defer ldb.Close()
		disk = ldb
	} else {
		disk = memorydb.New()
	}
	nodes := trie.NewNodeDatabase(disk)

	// A funded account and a beneficiary.
	key, err := crypto.GenerateKey()
	if err != nil {
		return err
	}
	sender := types.KeyAddress(key)
	coinbase := types.HexToAddress("0x00000000000000000000000000000000000c0ffe")

	genesis := core.DefaultGenesis()
	genesis.Alloc = map[types.Address]core.GenesisAccount{
		sender: {Balance: new(big.Int).SetUint64(1_000_000_000_000)},
	}
	genesisBlock, statedb, err := genesis.Commit(nodes)
	if err != nil {
		return err
	}

	tree := core.NewBlockTree()
	if err := tree.AddBlock(genesisBlock); err != nil {
		return err
	}

	// Sign one value transfer and one contract creation (init returns an
	// empty contract).
	signer := types.HomesteadSigner{}
	price := big.NewInt(3)
	recipient := types.HexToAddress("0x1111111111111111111111111111111111111111")

	transfer, err := types.SignTx(
		types.NewTransaction(0, recipient, big.NewInt(7777), 100000, price, nil),
		signer, key)
	if err != nil {
		return err
	}
	create, err := types.SignTx(
		types.NewContractCreation(1, big.NewInt(5), 100000, price, []byte{0x00} /* STOP */),
		signer, key)
	if err != nil {
		return err
	}

	builder := core.NewBlockBuilder(genesis.Config, coinbase)
	header := builder.PrepareHeader(genesisBlock.Header(), genesisBlock.Header().Time+14)
	block, receipts, err := builder.AddTransactions(header, types.Transactions{transfer, create}, statedb)
	if err != nil {
		return err
	}
	if err := tree.AddBlock(block); err != nil {
		return err
	}
	logger.Info("assembled block",
		"number", block.NumberU64(),
		"hash", block.Hash().Hex(),
		"gasUsed", block.GasUsed(),
		"receipts", len(receipts))

	// Re-execute from the committed genesis root and cross-check every
	// header commitment.
	replayState, err := state.New(genesisBlock.Header().Root, nodes)
	if err != nil {
		return err
	}
	processor := core.NewStateProcessor(genesis.Config)
	result, err := processor.Process(block, replayState)
	if err != nil {
		return err
	}
	validator := core.NewBlockValidator(genesis.Config)
	if err := validator.ValidateHeader(block.Header(), genesisBlock.Header()); err != nil {
		return err
	}
	if err := validator.ValidateState(block, result); err != nil {
		return err
	}
	if err := nodes.Flush(disk); err != nil {
		return err
	}

	tip := tree.CanonicalTip()
	logger.Info("re-validated block",
		"tip", tip.Hash().Hex(),
		"td", tree.TotalDifficulty(tip.Hash()),
		"stateRoot", result.StateRoot.Hex(),
		"senderBalance", replayState.GetBalance(sender),
		"coinbaseBalance", replayState.GetBalance(coinbase))
	return nil
}
