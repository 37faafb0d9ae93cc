// Package genesis maintains access to the genesis file that fixes the
// parameters of a ledger instance.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// MaxDifficulty bounds the number of leading zero hex characters a block
// hash can be required to carry. The miner's match string stops here.
const MaxDifficulty = 17

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time `json:"date"`
	ChainID         string    `json:"chain_id"`          // Unique id for this running ledger instance.
	TransPerBlock   uint16    `json:"trans_per_block"`   // Maximum number of transactions batched into a block.
	Difficulty      uint      `json:"difficulty"`        // Number of leading zero hex characters a block hash needs.
	MaxMineAttempts uint64    `json:"max_mine_attempts"` // Safety valve for the nonce search. 0 means unbounded.
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load(path string) (Genesis, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	if err := json.Unmarshal(content, &genesis); err != nil {
		return Genesis{}, err
	}

	if genesis.Difficulty > MaxDifficulty {
		return Genesis{}, fmt.Errorf("difficulty %d exceeds the maximum of %d", genesis.Difficulty, MaxDifficulty)
	}

	return genesis, nil
}

// Save writes the genesis file so the ledger parameters survive restarts.
func (g Genesis) Save(path string) error {
	data, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
