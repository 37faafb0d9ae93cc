// Package cmd contains the admin tool commands.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	nodeName    string
	keysPath    string
	genesisPath string
	dbPath      string
)

const (
	keyExtension = ".ecdsa"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&nodeName, "node", "n", "node1", "Name of the node key.")
	rootCmd.PersistentFlags().StringVarP(&keysPath, "keys-path", "k", "zblock/keys/", "Path to the directory with node keys.")
	rootCmd.PersistentFlags().StringVarP(&genesisPath, "genesis", "g", "zblock/genesis.json", "Path to the genesis file.")
	rootCmd.PersistentFlags().StringVarP(&dbPath, "db-path", "d", "zblock/ledger.db", "Path to the block store.")
}

var rootCmd = &cobra.Command{
	Use:   "admin",
	Short: "Evidence ledger administration",
}

// Execute runs the selected command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func getPrivateKeyPath() string {
	name := nodeName
	if !strings.HasSuffix(name, keyExtension) {
		name += keyExtension
	}

	return filepath.Join(keysPath, name)
}
