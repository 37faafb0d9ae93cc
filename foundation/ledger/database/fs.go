package database

import (
	"fmt"
	"time"
)

// ChainVersion identifies the persisted chain document layout.
const ChainVersion = "1.0"

// ChainFS is the full serialized form of the chain used for backup and
// restore. The metadata header travels with the block array so an export is
// self-describing.
type ChainFS struct {
	Version     string      `json:"version"`
	ChainID     string      `json:"chain_id"`
	Difficulty  uint        `json:"difficulty"`
	Created     time.Time   `json:"created"`
	TotalBlocks uint64      `json:"total_blocks"`
	Chain       []BlockData `json:"chain"`
}

// =============================================================================

// Export captures the complete chain, genesis included, for backup.
func (db *Database) Export() ChainFS {
	db.mu.RLock()
	defer db.mu.RUnlock()

	chain := make([]BlockData, len(db.blocks))
	for i, block := range db.blocks {
		chain[i] = NewBlockData(block)
	}

	return ChainFS{
		Version:     ChainVersion,
		ChainID:     db.genesis.ChainID,
		Difficulty:  db.genesis.Difficulty,
		Created:     db.genesis.Date,
		TotalBlocks: uint64(len(chain)),
		Chain:       chain,
	}
}

// Import replaces the active chain with the specified serialized chain. The
// reconstructed chain is fully validated first; if any block fails, the
// import is refused and the active chain is untouched.
func (db *Database) Import(chainFS ChainFS) error {
	if chainFS.Version != ChainVersion {
		return fmt.Errorf("unsupported chain version %q, exp %q", chainFS.Version, ChainVersion)
	}

	if chainFS.TotalBlocks != uint64(len(chainFS.Chain)) {
		return fmt.Errorf("chain document inconsistent, header says %d blocks, found %d", chainFS.TotalBlocks, len(chainFS.Chain))
	}

	// Rebuild and validate the candidate chain without touching the active
	// one. Stored hashes must recompute exactly.
	blocks := make([]Block, 0, len(chainFS.Chain))
	for _, blockData := range chainFS.Chain {
		block, err := ToBlock(blockData)
		if err != nil {
			return err
		}

		if blockData.Hash != block.Hash() {
			return ChainIntegrityError{blockData.Header.Number, fmt.Errorf("stored hash does not recompute, got %s", blockData.Hash)}
		}

		blocks = append(blocks, block)
	}

	if err := validateChain(blocks, db.evHandler); err != nil {
		return err
	}

	// The candidate checks out. Swap it in and rewrite storage.
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	for _, block := range blocks[1:] {
		if err := db.serializer.Write(NewBlockData(block)); err != nil {

			// Put storage back in line with the still-active chain so a
			// restart does not replay a truncated import.
			db.restoreStorage()
			return err
		}
	}

	db.blocks = blocks

	return nil
}

// restoreStorage rewrites the active chain into storage after a failed
// import left it holding a partial candidate. Callers must hold the lock.
func (db *Database) restoreStorage() {
	if err := db.serializer.Reset(); err != nil {
		db.evHandler("database: restoreStorage: reset failed: %s", err)
		return
	}

	for _, block := range db.blocks[1:] {
		if err := db.serializer.Write(NewBlockData(block)); err != nil {
			db.evHandler("database: restoreStorage: write blk[%d] failed: %s", block.Header.Number, err)
			return
		}
	}
}
