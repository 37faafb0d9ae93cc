package storage

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/honeytrace/ledger/foundation/ledger/database"
	"go.etcd.io/bbolt"
)

// blocksBucket is the bucket holding the serialized blocks keyed by their
// block number.
const blocksBucket = "blocks"

// Bolt represents the serialization implementation for reading and storing
// blocks in a bbolt database file. This implements the database.Serializer
// interface.
type Bolt struct {
	db *bbolt.DB
}

// NewBolt constructs a bbolt backed store, creating the database file and
// blocks bucket if needed.
func NewBolt(dbPath string) (*Bolt, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(blocksBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Bolt{db: db}, nil
}

// Close releases the underlying database file.
func (b *Bolt) Close() error {
	return b.db.Close()
}

// Write stores the specified block under its block number.
func (b *Bolt) Write(blockData database.BlockData) error {
	data, err := json.Marshal(blockData)
	if err != nil {
		return err
	}

	return b.db.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(blocksBucket))
		return bkt.Put(itob(blockData.Header.Number), data)
	})
}

// GetBlock retrieves and decodes the block stored under the specified number.
func (b *Bolt) GetBlock(num uint64) (database.BlockData, error) {
	var blockData database.BlockData

	err := b.db.View(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(blocksBucket))
		data := bkt.Get(itob(num))
		if data == nil {
			return ErrNoBlock
		}

		return json.Unmarshal(data, &blockData)
	})
	if err != nil {
		return database.BlockData{}, err
	}

	return blockData, nil
}

// ForEach returns an iterator to walk through all the blocks starting with
// block number 1.
func (b *Bolt) ForEach() database.Iterator {
	return &BoltIterator{bolt: b}
}

// Reset drops and recreates the blocks bucket.
func (b *Bolt) Reset() error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket([]byte(blocksBucket)); err != nil {
			return err
		}

		_, err := tx.CreateBucketIfNotExists([]byte(blocksBucket))
		return err
	})
}

// itob converts a block number into a big endian key so blocks sort in
// chain order inside the bucket.
func itob(v uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, v)
	return key
}

// =============================================================================

// BoltIterator represents the iteration implementation for walking through
// and reading blocks in the bucket. This implements the database.Iterator
// interface.
type BoltIterator struct {
	bolt    *Bolt  // Access to the bbolt storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from the bucket.
func (bi *BoltIterator) Next() (database.BlockData, error) {
	if bi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	bi.current++
	blockData, err := bi.bolt.GetBlock(bi.current)
	if errors.Is(err, ErrNoBlock) {
		bi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (bi *BoltIterator) Done() bool {
	return bi.eoc
}
