package state

import (
	"errors"

	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/genesis"
)

// Stats summarizes the ledger for dashboard consumers.
type Stats struct {
	TotalBlocks       uint64 `json:"total_blocks"`
	TotalTransactions int    `json:"total_transactions"`
	PendingCount      int    `json:"pending_count"`
	ChainValid        bool   `json:"chain_valid"`
	LatestHash        string `json:"latest_hash"`
}

// Verification is the granular result of verifying a single transaction, so
// operators can localize exactly where an integrity problem originates.
type Verification struct {
	Verified            bool   `json:"verified"`
	BlockNumber         uint64 `json:"block_index"`
	SignatureValid      bool   `json:"signature_valid"`
	BlockValid          bool   `json:"block_valid"`
	ChainValidUpToBlock bool   `json:"chain_valid_up_to_block"`
}

// =============================================================================

// QueryStats returns the summary statistics for the ledger.
func (s *State) QueryStats() Stats {
	return Stats{
		TotalBlocks:       s.db.BlockCount(),
		TotalTransactions: s.db.TransactionCount(),
		PendingCount:      s.pool.Count(),
		ChainValid:        s.db.Validate() == nil,
		LatestHash:        s.db.LatestBlock().Hash(),
	}
}

// QueryTransactions searches the chain for transactions matching the filter,
// in chain order, oldest first.
func (s *State) QueryTransactions(filter database.QueryFilter) []database.EvidenceTx {
	return s.db.Search(filter)
}

// VerifyTransaction checks a single mined transaction: its signature, the
// block that owns it, and the chain prefix leading to that block.
func (s *State) VerifyTransaction(txID string) (Verification, error) {
	tx, blockNum, err := s.db.FindTransaction(txID)
	if err != nil {
		return Verification{}, err
	}

	v := Verification{BlockNumber: blockNum}

	// The signature must verify and the data hash must still recompute.
	if err := tx.Validate(); err == nil {
		if _, err := tx.FromAccount(); err == nil {
			v.SignatureValid = true
		}
	}

	// The owning block must validate against its parent.
	block, err := s.db.GetBlock(blockNum)
	if err != nil {
		return Verification{}, err
	}
	prev, err := s.db.GetBlock(blockNum - 1)
	if err != nil {
		return Verification{}, err
	}
	v.BlockValid = block.ValidateBlock(prev, s.evHandler) == nil

	// The chain up to and including the owning block must be intact.
	v.ChainValidUpToBlock = s.db.ValidateUpTo(blockNum) == nil

	v.Verified = v.SignatureValid && v.BlockValid && v.ChainValidUpToBlock

	return v, nil
}

// ValidateChain walks the entire chain and reports the first failure.
func (s *State) ValidateChain() error {
	return s.db.Validate()
}

// =============================================================================

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns the current head of the chain.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveBlocks returns the blocks in the range [from, to].
func (s *State) RetrieveBlocks(from uint64, to uint64) []database.Block {
	return s.db.BlocksByNumber(from, to)
}

// RetrievePending returns a snapshot of the not-yet-mined transactions in
// FIFO order.
func (s *State) RetrievePending() []database.EvidenceTx {
	return s.pool.Copy()
}

// RetrieveNodeID returns the account id this node signs and mines with.
func (s *State) RetrieveNodeID() database.AccountID {
	return s.nodeID
}

// QueryPendingCount returns the number of transactions waiting to be mined.
func (s *State) QueryPendingCount() int {
	return s.pool.Count()
}

// =============================================================================

// ErrTxNotFound aliases the database sentinel so handlers don't need to
// depend on the database package for the common lookup failure.
var ErrTxNotFound = database.ErrTxNotFound

// IsTxNotFound reports whether the error is the missing transaction
// sentinel.
func IsTxNotFound(err error) bool {
	return errors.Is(err, database.ErrTxNotFound)
}
