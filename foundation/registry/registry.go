// Package registry reads the node keys folder and creates a name lookup for
// the validating nodes known to this deployment.
package registry

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// Registry maintains a map of node accounts for name lookup.
type Registry struct {
	nodes map[database.AccountID]string
}

// New constructs a registry with the nodes found in the keys folder. Each
// *.ecdsa key file contributes one node named after the file.
func New(root string) (*Registry, error) {
	reg := Registry{
		nodes: make(map[database.AccountID]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != ".ecdsa" {
			return nil
		}

		privateKey, err := crypto.LoadECDSA(fileName)
		if err != nil {
			return err
		}

		accountID := database.PublicKeyToAccountID(privateKey.PublicKey)
		reg.nodes[accountID] = strings.TrimSuffix(path.Base(fileName), ".ecdsa")

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &reg, nil
}

// Lookup returns the name for the specified node account.
func (reg *Registry) Lookup(accountID database.AccountID) string {
	name, exists := reg.nodes[accountID]
	if !exists {
		return string(accountID)
	}
	return name
}

// Copy returns a copy of the map of names and node accounts.
func (reg *Registry) Copy() map[database.AccountID]string {
	cpy := make(map[database.AccountID]string, len(reg.nodes))
	for accountID, name := range reg.nodes {
		cpy[accountID] = name
	}
	return cpy
}
