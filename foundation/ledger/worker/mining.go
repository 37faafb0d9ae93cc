package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/state"
)

// miningOperations handles one batch cycle at a time: the cycle starts when
// the pending pool fills a batch (SignalStartMining) or the cycle interval
// elapses, whichever comes first.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// runMiningOperation takes a batch of pending transactions and writes a new
// block to the chain.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Make sure there are transactions in the pending pool.
	length := w.state.QueryPendingCount()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// After a rejected append, back off before trying again rather than
	// hammering a chain someone mutated underneath us.
	if w.backoff > 0 {
		w.evHandler("worker: runMiningOperation: MINING: backing off for %v", w.backoff)
		select {
		case <-time.After(w.backoff):
		case <-w.shut:
			return
		}
	}

	// After running a mining operation, check if a new operation should
	// be signaled again.
	defer func() {
		length := w.state.QueryPendingCount()
		if length > 0 {
			w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", length)
			w.SignalStartMining()
		}
	}()

	// Drain the cancel mining channel before starting.
	select {
	case <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained cancel channel")
	default:
	}

	// Create a context so mining can be cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Can't return from this function until these G's are complete.
	var wg sync.WaitGroup
	wg.Add(2)

	// This G exists to cancel the mining operation.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		select {
		case <-w.cancelMining:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested")
		case <-w.shut:
			w.evHandler("worker: runMiningOperation: MINING: CANCEL: shutdown")
		case <-ctx.Done():
		}
	}()

	// This G is performing the mining.
	go func() {
		defer func() {
			cancel()
			wg.Done()
		}()

		t := time.Now()
		block, err := w.state.MineNewBlock(ctx)
		duration := time.Since(t)

		w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", duration)

		if err != nil {
			switch {
			case errors.Is(err, state.ErrNoTransactions):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in pool")

			case errors.Is(err, database.ErrMaxAttempts):
				w.evHandler("worker: runMiningOperation: MINING: WARNING: attempt cap reached, batch returned to pool")
				w.evts.Send(events.KindMining, "mining abandoned after attempt cap, batch requeued")

			case ctx.Err() != nil:
				w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete")

			default:

				// The append was rejected even though this scheduler is the
				// chain's sole writer. That is an integrity alarm, not a
				// retry-in-a-tight-loop situation.
				w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", err)
				w.evts.Send(events.KindIntegrity, "block append rejected: %s", err)
				w.raiseBackoff()
			}
			return
		}

		w.backoff = 0
		w.evts.Send(events.KindMining, "block %d mined with %d transactions, hash %s",
			block.Header.Number, len(block.Transactions()), block.Hash())
	}()

	// Wait for both G's to terminate.
	wg.Wait()
}

// raiseBackoff doubles the delay applied before the next cycle, up to the
// cap.
func (w *Worker) raiseBackoff() {
	switch {
	case w.backoff == 0:
		w.backoff = time.Second
	case w.backoff < maxBackoff:
		w.backoff *= 2
	}
	if w.backoff > maxBackoff {
		w.backoff = maxBackoff
	}
}
