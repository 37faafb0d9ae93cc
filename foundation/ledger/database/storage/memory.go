package storage

import (
	"errors"
	"sync"

	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// Memory represents an in-memory serialization implementation used by tests
// and ephemeral nodes. This implements the database.Serializer interface.
type Memory struct {
	mu     sync.RWMutex
	blocks map[uint64]database.BlockData
}

// NewMemory constructs an in-memory store.
func NewMemory() *Memory {
	return &Memory{
		blocks: make(map[uint64]database.BlockData),
	}
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write stores the specified block in memory.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks[blockData.Header.Number] = blockData

	return nil
}

// GetBlock returns the block stored under the specified number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	blockData, exists := m.blocks[num]
	if !exists {
		return database.BlockData{}, ErrNoBlock
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &MemoryIterator{memory: m}
}

// Reset clears all blocks from memory.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = make(map[uint64]database.BlockData)

	return nil
}

// =============================================================================

// MemoryIterator represents the iteration implementation for walking through
// and reading blocks in memory. This implements the database.Iterator
// interface.
type MemoryIterator struct {
	memory  *Memory // Access to the memory storage API.
	current uint64  // Current block number being iterated over.
	eoc     bool    // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from memory.
func (mi *MemoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++
	blockData, err := mi.memory.GetBlock(mi.current)
	if errors.Is(err, ErrNoBlock) {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *MemoryIterator) Done() bool {
	return mi.eoc
}
