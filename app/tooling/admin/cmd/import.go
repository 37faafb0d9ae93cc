package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/spf13/cobra"
)

var importInput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Replace the block store with a previously exported chain",
	Run:   importRun,
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "chain-export.json", "Path to read the chain document from.")
	rootCmd.AddCommand(importCmd)
}

func importRun(cmd *cobra.Command, args []string) {
	data, err := os.ReadFile(importInput)
	if err != nil {
		log.Fatal(err)
	}

	var chainFS database.ChainFS
	if err := json.Unmarshal(data, &chainFS); err != nil {
		log.Fatal(err)
	}

	db, err := openDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Import(chainFS); err != nil {
		log.Fatalf("import rejected: %s", err)
	}

	fmt.Printf("imported %d blocks from %s\n", chainFS.TotalBlocks, importInput)
}
