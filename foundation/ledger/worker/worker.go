// Package worker implements the mining scheduler and the chain integrity
// monitor for the evidence ledger.
package worker

import (
	"sync"
	"time"

	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/state"
)

// maxBackoff caps the delay applied between cycles after the chain rejects
// an append.
const maxBackoff = 5 * time.Minute

// Worker manages the mining and integrity monitoring workflows for the
// ledger. Mining runs on its own goroutine so a long nonce search never
// delays acceptance of new attack records.
type Worker struct {
	state             *state.State
	wg                sync.WaitGroup
	ticker            *time.Ticker
	integrityTicker   *time.Ticker
	shut              chan struct{}
	startMining       chan bool
	cancelMining      chan bool
	backoff           time.Duration
	evts              *events.Events
	evHandler         state.EventHandler
	integrityInterval time.Duration
}

// Config represents the configuration required to run the worker.
type Config struct {
	State             *state.State
	Evts              *events.Events
	EvHandler         state.EventHandler
	CycleInterval     time.Duration // Mine on this interval even if the batch is not full.
	IntegrityInterval time.Duration // Re-validate the whole chain on this interval.
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(cfg Config) *Worker {
	w := Worker{
		state:             cfg.State,
		ticker:            time.NewTicker(cfg.CycleInterval),
		integrityTicker:   time.NewTicker(cfg.IntegrityInterval),
		shut:              make(chan struct{}),
		startMining:       make(chan bool, 1),
		cancelMining:      make(chan bool, 1),
		evts:              cfg.Evts,
		evHandler:         cfg.EvHandler,
		integrityInterval: cfg.IntegrityInterval,
	}

	// Register this worker with the state package.
	cfg.State.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
		w.integrityOperations,
	}

	// Set waitgroup to match the number of G's we need for the set of
	// operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return &w
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutines performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.ticker.Stop()
	w.integrityTicker.Stop()

	w.SignalCancelMining()

	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately.
func (w *Worker) SignalCancelMining() {
	select {
	case w.cancelMining <- true:
	default:
	}
	w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled")
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
