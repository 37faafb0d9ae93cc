// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	v1 "github.com/honeytrace/ledger/business/web/v1"
	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/attack"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/state"
	"github.com/honeytrace/ledger/foundation/registry"
	"github.com/honeytrace/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log      *zap.SugaredLogger
	State    *state.State
	Registry *registry.Registry
	Evts     *events.Events
	WS       websocket.Upgrader
}

// Submit runs an attack record through the consensus gate and, on acceptance,
// queues the signed evidence transaction for mining.
func (h Handlers) Submit(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var req submitRequest
	if err := web.Decode(r, &req); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	rec, err := attack.New(req.ID, time.Unix(req.TimeStamp, 0), req.SourceIP, req.AttackType, req.Severity, req.Metadata)
	if err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	result, err := h.State.SubmitRecord(ctx, rec)
	if err != nil {
		return fmt.Errorf("submitting record: %w", err)
	}

	status := http.StatusOK
	if result.Accepted {
		status = http.StatusCreated
	}

	return web.Respond(ctx, w, result, status)
}

// Stats returns the summary statistics for the ledger.
func (h Handlers) Stats(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.QueryStats(), http.StatusOK)
}

// Genesis returns the genesis information for the chain.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.RetrieveGenesis(), http.StatusOK)
}

// Search returns the mined transactions matching the query parameters, in
// chain order.
func (h Handlers) Search(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	filter := database.QueryFilter{
		AttackID:   r.URL.Query().Get("attack_id"),
		SourceIP:   r.URL.Query().Get("source_ip"),
		AttackType: r.URL.Query().Get("attack_type"),
		Severity:   r.URL.Query().Get("severity"),
	}

	if from := r.URL.Query().Get("from"); from != "" {
		v, err := strconv.ParseUint(from, 10, 64)
		if err != nil {
			return v1.NewRequestError(fmt.Errorf("invalid from parameter: %w", err), http.StatusBadRequest)
		}
		filter.From = v
	}

	if to := r.URL.Query().Get("to"); to != "" {
		v, err := strconv.ParseUint(to, 10, 64)
		if err != nil {
			return v1.NewRequestError(fmt.Errorf("invalid to parameter: %w", err), http.StatusBadRequest)
		}
		filter.To = v
	}

	matches := h.State.QueryTransactions(filter)

	txs := make([]tx, len(matches))
	for i, dbTx := range matches {
		txs[i] = h.toTx(dbTx)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Verify checks a single mined transaction and reports the granular result:
// signature, owning block, and the chain prefix leading to it.
func (h Handlers) Verify(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txID := web.Param(r, "id")

	verification, err := h.State.VerifyTransaction(txID)
	if err != nil {
		if state.IsTxNotFound(err) {
			return v1.NewRequestError(fmt.Errorf("transaction %q not found", txID), http.StatusNotFound)
		}
		return fmt.Errorf("verifying transaction: %w", err)
	}

	return web.Respond(ctx, w, verification, http.StatusOK)
}

// Pending returns the transactions waiting to be mined, in FIFO order.
func (h Handlers) Pending(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	pending := h.State.RetrievePending()

	txs := make([]tx, len(pending))
	for i, dbTx := range pending {
		txs[i] = h.toTx(dbTx)
	}

	return web.Respond(ctx, w, txs, http.StatusOK)
}

// Events upgrades the connection to a websocket and streams ledger events
// (mined blocks, integrity alarms) to the caller.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	h.Log.Infow("events", "traceid", v.TraceID, "status", "websocket open")
	defer h.Log.Infow("events", "traceid", v.TraceID, "status", "websocket closed")

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case ev, wd := <-ch:
			if !wd {
				return nil
			}
			if err := c.WriteJSON(ev); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}
