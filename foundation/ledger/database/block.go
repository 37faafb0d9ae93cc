package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/genesis"
	"github.com/honeytrace/ledger/foundation/ledger/merkle"
	"github.com/honeytrace/ledger/foundation/ledger/signature"
)

// ErrMaxAttempts is returned from POW when the configured attempt cap is
// reached before a solution is found. The batch is expected to be returned
// to the pending pool unmodified.
var ErrMaxAttempts = errors.New("mining exceeded the maximum number of attempts")

// =============================================================================

// BlockHeader represents common information required for each block.
type BlockHeader struct {
	Number        uint64    `json:"number"`          // Block number in the chain. 0 is the genesis block.
	TimeStamp     uint64    `json:"timestamp"`       // Time the block was mined.
	PrevBlockHash string    `json:"prev_block_hash"` // Hash of the previous block in the chain.
	MinerID       AccountID `json:"miner_id"`        // The node that mined this block.
	Difficulty    uint      `json:"difficulty"`      // Number of leading 0's needed to solve the hash solution.
	TransRoot     string    `json:"trans_root"`      // Merkle tree root hash for the transactions in this block.
	Nonce         uint64    `json:"nonce"`           // Value identified to solve the hash solution.
}

// Block represents an ordered batch of evidence transactions linked to the
// previous block's hash.
type Block struct {
	Header BlockHeader
	Trans  *merkle.Tree[EvidenceTx]
}

// Genesis constructs the fixed first block of a chain. It carries no
// transactions and does not require proof of work.
func Genesis(gen genesis.Genesis) Block {
	return Block{
		Header: BlockHeader{
			Number:        0,
			TimeStamp:     uint64(gen.Date.UTC().Unix()),
			PrevBlockHash: signature.ZeroHash,
			Difficulty:    gen.Difficulty,
			TransRoot:     signature.EmptyHash(),
		},
	}
}

// POW constructs a new Block and performs the work to find a nonce that
// solves the cryptographic POW puzzle.
func POW(ctx context.Context, minerID AccountID, gen genesis.Genesis, prevBlock Block, trans []EvidenceTx, evHandler func(v string, args ...any)) (Block, error) {
	ev := func(v string, args ...any) {
		if evHandler != nil {
			evHandler(v, args...)
		}
	}

	// The batch commits to the order the transactions were dequeued in.
	tree, err := merkle.NewTree(trans)
	if err != nil {
		return Block{}, err
	}

	// Construct the block to be mined.
	nb := Block{
		Header: BlockHeader{
			Number:        prevBlock.Header.Number + 1,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			PrevBlockHash: prevBlock.Hash(),
			MinerID:       minerID,
			Difficulty:    gen.Difficulty,
			TransRoot:     tree.RootHex(),
			Nonce:         0, // Will be identified by the POW algorithm.
		},
		Trans: tree,
	}

	// Perform the proof of work mining operation.
	if err := nb.performPOW(ctx, gen.MaxMineAttempts, ev); err != nil {
		return Block{}, err
	}

	return nb, nil
}

// performPOW does the work of mining to find a valid hash for a specified
// block. Pointer semantics are being used since a nonce is being discovered.
func (b *Block) performPOW(ctx context.Context, maxAttempts uint64, ev func(v string, args ...any)) error {
	ev("database: performPOW: MINING: started: blk[%d]", b.Header.Number)
	defer ev("database: performPOW: MINING: completed: blk[%d]", b.Header.Number)

	// Loop until a solution is found, mining is cancelled, or the attempt
	// cap is reached.
	var attempts uint64
	for {
		attempts++
		if attempts%1_000_000 == 0 {
			ev("database: performPOW: MINING: attempts[%d]", attempts)
		}

		if maxAttempts > 0 && attempts > maxAttempts {
			ev("database: performPOW: MINING: attempt cap reached[%d]", maxAttempts)
			return ErrMaxAttempts
		}

		// Mining must stop cleanly when cancelled so the chain is never left
		// with a partially computed block.
		if ctx.Err() != nil {
			ev("database: performPOW: MINING: CANCELLED")
			return ctx.Err()
		}

		// Hash the block and check if we have solved the puzzle.
		hash := b.Hash()
		if !isHashSolved(b.Header.Difficulty, hash) {
			b.Header.Nonce++
			continue
		}

		ev("database: performPOW: MINING: SOLVED: prevBlk[%s]: newBlk[%s]", b.Header.PrevBlockHash, hash)
		ev("database: performPOW: MINING: attempts[%d]", attempts)

		return nil
	}
}

// Hash returns the unique hash for the Block. The header commits to the
// transactions through the merkle root, so hashing the header is hashing
// the block.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	return signature.Hash(b.Header)
}

// ValidateBlock takes a block and validates it to be included into the chain
// after the specified previous block.
func (b Block) ValidateBlock(previousBlock Block, evHandler func(v string, args ...any)) error {
	if evHandler == nil {
		evHandler = func(v string, args ...any) {}
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block number is the next number", b.Header.Number)

	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number != nextNumber {
		return fmt.Errorf("this block is not the next number, got %d, exp %d", b.Header.Number, nextNumber)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: parent hash does match parent block", b.Header.Number)

	if b.Header.PrevBlockHash != previousBlock.Hash() {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.Header.PrevBlockHash, previousBlock.Hash())
	}

	evHandler("database: ValidateBlock: blk[%d]: check: difficulty is the same or greater than the parent", b.Header.Number)

	// The genesis block carries the configured difficulty, so this floor
	// anchors the whole chain. Without it an imported block could declare
	// difficulty 0 and pass the solved check with zero work.
	if b.Header.Difficulty < previousBlock.Header.Difficulty {
		return fmt.Errorf("block difficulty is less than parent block difficulty, parent %d, block %d", previousBlock.Header.Difficulty, b.Header.Difficulty)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: block hash has been solved", b.Header.Number)

	hash := b.Hash()
	if !isHashSolved(b.Header.Difficulty, hash) {
		return fmt.Errorf("%s invalid block hash", hash)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: merkle root does match transactions", b.Header.Number)

	if b.Header.TransRoot != b.MerkleRoot() {
		return fmt.Errorf("merkle root does not match transactions, got %s, exp %s", b.MerkleRoot(), b.Header.TransRoot)
	}

	evHandler("database: ValidateBlock: blk[%d]: check: transactions carry matching data hashes", b.Header.Number)

	for _, tx := range b.Transactions() {
		if err := tx.Validate(); err != nil {
			return fmt.Errorf("transaction %s invalid, %w", tx.ID, err)
		}
	}

	return nil
}

// MerkleRoot recomputes the merkle root over this block's transactions. An
// empty block produces the defined sentinel root.
func (b Block) MerkleRoot() string {
	if b.Trans == nil {
		return signature.EmptyHash()
	}

	return b.Trans.RootHex()
}

// Transactions returns the ordered set of transactions in this block.
func (b Block) Transactions() []EvidenceTx {
	if b.Trans == nil {
		return nil
	}

	return b.Trans.Values()
}

// isHashSolved checks the hash to make sure it complies with the POW rules.
// We need to match a difficulty number of leading 0's.
func isHashSolved(difficulty uint, hash string) bool {
	const match = "0x00000000000000000"

	if len(hash) != 66 {
		return false
	}

	// A difficulty beyond the match string can never be satisfied. Checking
	// here keeps an absurd header value from slicing out of range.
	if int(difficulty) > len(match)-2 {
		return false
	}

	return hash[:2+difficulty] == match[:2+difficulty]
}

// =============================================================================

// BlockData represents what is serialized to storage and across the wire.
type BlockData struct {
	Hash   string       `json:"hash"`
	Header BlockHeader  `json:"header"`
	Trans  []EvidenceTx `json:"trans"`
}

// NewBlockData constructs the value to serialize from a block.
func NewBlockData(block Block) BlockData {
	return BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Transactions(),
	}
}

// ToBlock converts a BlockData back into a Block.
func ToBlock(blockData BlockData) (Block, error) {
	if len(blockData.Trans) == 0 {
		return Block{Header: blockData.Header}, nil
	}

	tree, err := merkle.NewTree(blockData.Trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: blockData.Header,
		Trans:  tree,
	}

	return nb, nil
}
