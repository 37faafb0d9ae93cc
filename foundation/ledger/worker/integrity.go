package worker

import (
	"errors"

	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// integrityOperations periodically re-validates the entire chain. The chain
// has a single writer, so a failure here means storage corruption or an
// out-of-band mutation and is raised as an alarm.
func (w *Worker) integrityOperations() {
	w.evHandler("worker: integrityOperations: G started")
	defer w.evHandler("worker: integrityOperations: G completed")

	for {
		select {
		case <-w.integrityTicker.C:
			if !w.isShutdown() {
				w.runIntegrityCheck()
			}
		case <-w.shut:
			w.evHandler("worker: integrityOperations: received shut signal")
			return
		}
	}
}

// runIntegrityCheck walks the chain and raises an alarm on the first
// validation failure.
func (w *Worker) runIntegrityCheck() {
	w.evHandler("worker: runIntegrityCheck: started")
	defer w.evHandler("worker: runIntegrityCheck: completed")

	if err := w.state.ValidateChain(); err != nil {
		var cie database.ChainIntegrityError
		if errors.As(err, &cie) {
			w.evts.Send(events.KindIntegrity, "chain validation failed at block %d: %s", cie.BlockNumber, cie.Err)
		} else {
			w.evts.Send(events.KindIntegrity, "chain validation failed: %s", err)
		}

		w.evHandler("worker: runIntegrityCheck: ALARM: %s", err)
		return
	}

	w.evHandler("worker: runIntegrityCheck: chain valid: blocks[%d]", w.state.RetrieveLatestBlock().Header.Number+1)
}
