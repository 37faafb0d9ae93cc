package state

import (
	"context"
	"errors"

	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// ErrNoTransactions is returned when a block is requested to be created and
// there are no pending transactions.
var ErrNoTransactions = errors.New("no transactions in the pending pool")

// =============================================================================

// MineNewBlock drains a batch of pending transactions, performs the proof of
// work, and appends the resulting block to the chain. On any failure the
// batch is returned to the front of the pool unmodified.
func (s *State) MineNewBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNewBlock: MINING: check pending pool")

	if s.pool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	// BATCHING: take a snapshot of up to a block's worth of transactions.
	// Anything enqueued from here on waits for the next cycle.
	trans := s.pool.Drain(int(s.genesis.TransPerBlock))

	s.evHandler("state: MineNewBlock: MINING: perform POW: batch[%d]", len(trans))

	// MINING: solve the POW puzzle. This can be cancelled or hit the
	// configured attempt cap.
	block, err := database.POW(ctx, s.nodeID, s.genesis, s.db.LatestBlock(), trans, s.evHandler)
	if err != nil {
		s.pool.Requeue(trans)
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		s.pool.Requeue(trans)
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNewBlock: MINING: append block to chain")

	// APPENDING: the scheduler is the chain's sole writer, so a rejection
	// here means the chain was mutated underneath us. The caller raises the
	// integrity alarm; our job is to not lose the batch.
	if err := s.db.Append(block); err != nil {
		s.pool.Requeue(trans)
		return database.Block{}, err
	}

	return block, nil
}
