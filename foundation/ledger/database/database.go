// Package database handles all the lower level support for maintaining the
// evidence chain in storage and in memory.
package database

import (
	"errors"
	"fmt"
	"sync"

	"github.com/honeytrace/ledger/foundation/ledger/genesis"
	"github.com/honeytrace/ledger/foundation/ledger/signature"
)

// ErrBlockNotFound is returned when the requested block is not in the chain.
var ErrBlockNotFound = errors.New("block not found")

// ErrTxNotFound is returned when the requested transaction is not in any
// mined block.
var ErrTxNotFound = errors.New("transaction not found")

// ChainIntegrityError identifies the first block that failed validation
// during a chain walk.
type ChainIntegrityError struct {
	BlockNumber uint64
	Err         error
}

// Error implements the error interface.
func (cie ChainIntegrityError) Error() string {
	return fmt.Sprintf("chain integrity violation at block %d: %s", cie.BlockNumber, cie.Err)
}

// Unwrap exposes the underlying validation failure.
func (cie ChainIntegrityError) Unwrap() error {
	return cie.Err
}

// =============================================================================

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading the chain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the stored blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// Database manages the append-only sequence of blocks. There is exactly one
// writer (the mining scheduler) and any number of concurrent readers, so a
// read-write lock guards the block list.
type Database struct {
	mu sync.RWMutex

	genesis    genesis.Genesis
	blocks     []Block
	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database seeded with the genesis block and loads any
// existing blocks from storage, validating the chain as it goes.
func New(gen genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	db := Database{
		genesis:    gen,
		blocks:     []Block{Genesis(gen)},
		serializer: serializer,
		evHandler:  ev,
	}

	// Load all existing blocks from storage into memory. The log is an audit
	// trail that is searched linearly, so the whole chain stays resident.
	iter := serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if blockData.Hash != block.Hash() {
			return nil, ChainIntegrityError{blockData.Header.Number, errors.New("stored hash does not recompute")}
		}

		if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], ev); err != nil {
			return nil, ChainIntegrityError{block.Header.Number, err}
		}

		db.blocks = append(db.blocks, block)
	}

	return &db, nil
}

// Close closes the underlying storage.
func (db *Database) Close() {
	db.serializer.Close()
}

// =============================================================================

// Append validates the specified block against the current head of the chain
// and makes it the new head. A block failing validation is discarded and the
// chain is left unchanged.
func (db *Database) Append(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.blocks[len(db.blocks)-1], db.evHandler); err != nil {
		return err
	}

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return err
	}

	db.blocks = append(db.blocks, block)

	return nil
}

// LatestBlock returns the current head of the chain.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.blocks[len(db.blocks)-1]
}

// BlockCount returns the number of blocks in the chain, genesis included.
func (db *Database) BlockCount() uint64 {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return uint64(len(db.blocks))
}

// TransactionCount returns the total number of transactions mined into
// the chain.
func (db *Database) TransactionCount() int {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var total int
	for _, block := range db.blocks {
		total += len(block.Transactions())
	}

	return total
}

// GetBlock returns the block with the specified number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return Block{}, ErrBlockNotFound
	}

	return db.blocks[num], nil
}

// BlocksByNumber returns a copy of the blocks in the range [from, to]. A to
// value beyond the head is clamped to the head.
func (db *Database) BlocksByNumber(from uint64, to uint64) []Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if from >= uint64(len(db.blocks)) {
		return nil
	}

	if to >= uint64(len(db.blocks)) {
		to = uint64(len(db.blocks)) - 1
	}

	var blocks []Block
	for i := from; i <= to; i++ {
		blocks = append(blocks, db.blocks[i])
	}

	return blocks
}

// Validate walks the entire chain once, recomputing every block's hash and
// checking linkage. It stops at the first mismatch and reports which block
// failed for diagnostics.
func (db *Database) Validate() error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return validateChain(db.blocks, db.evHandler)
}

// ValidateUpTo walks the chain prefix ending at the specified block number,
// inclusive. This supports verifying that an individual transaction sits on
// an intact prefix without walking the whole chain.
func (db *Database) ValidateUpTo(num uint64) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	if num >= uint64(len(db.blocks)) {
		return ErrBlockNotFound
	}

	return validateChain(db.blocks[:num+1], db.evHandler)
}

// =============================================================================

// validateChain checks an in-order block sequence starting with a genesis
// block. It is shared by Validate and Import.
func validateChain(blocks []Block, evHandler func(v string, args ...any)) error {
	if len(blocks) == 0 {
		return ChainIntegrityError{0, errors.New("chain has no genesis block")}
	}

	gblock := blocks[0]
	if gblock.Header.Number != 0 {
		return ChainIntegrityError{gblock.Header.Number, errors.New("first block is not a genesis block")}
	}

	if gblock.Hash() != signature.ZeroHash || gblock.Header.PrevBlockHash != signature.ZeroHash {
		return ChainIntegrityError{0, errors.New("genesis block hash mismatch")}
	}

	for i := 1; i < len(blocks); i++ {
		if err := blocks[i].ValidateBlock(blocks[i-1], evHandler); err != nil {
			return ChainIntegrityError{uint64(i), err}
		}
	}

	return nil
}
