package cmd

import (
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

var exportOutput string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the full chain to a backup file",
	Run:   exportRun,
}

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "chain-export.json", "Path to write the chain document to.")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(cmd *cobra.Command, args []string) {
	db, err := openDatabase()
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	chainFS := db.Export()

	data, err := json.MarshalIndent(chainFS, "", "  ")
	if err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(exportOutput, data, 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("exported %d blocks to %s\n", chainFS.TotalBlocks, exportOutput)
}
