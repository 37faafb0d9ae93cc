package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/spf13/cobra"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a new node key pair",
	Run:   keygenRun,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func keygenRun(cmd *cobra.Command, args []string) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		log.Fatal(err)
	}

	if err := os.MkdirAll(keysPath, 0755); err != nil {
		log.Fatal(err)
	}

	path := getPrivateKeyPath()
	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("key written: %s\n", path)
	fmt.Printf("account: %s\n", database.PublicKeyToAccountID(privateKey.PublicKey))
}
