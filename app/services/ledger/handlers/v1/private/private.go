// Package private maintains the group of handlers for node-operator access.
package private

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	v1 "github.com/honeytrace/ledger/business/web/v1"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/state"
	"github.com/honeytrace/ledger/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node-operator endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Status returns the operator view of this node.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	latest := h.State.RetrieveLatestBlock()

	status := struct {
		NodeID       database.AccountID `json:"node_id"`
		LatestHash   string             `json:"latest_hash"`
		LatestNumber uint64             `json:"latest_number"`
		PendingCount int                `json:"pending_count"`
	}{
		NodeID:       h.State.RetrieveNodeID(),
		LatestHash:   latest.Hash(),
		LatestNumber: latest.Header.Number,
		PendingCount: h.State.QueryPendingCount(),
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlocksByNumber returns the blocks in the requested range, headers and
// transactions included.
func (h Handlers) BlocksByNumber(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	fromStr := web.Param(r, "from")
	toStr := web.Param(r, "to")

	var from uint64
	if fromStr != "latest" {
		v, err := strconv.ParseUint(fromStr, 10, 64)
		if err != nil {
			return v1.NewRequestError(fmt.Errorf("invalid from parameter: %w", err), http.StatusBadRequest)
		}
		from = v
	}

	to := from
	if toStr == "latest" || fromStr == "latest" {
		from = h.State.RetrieveLatestBlock().Header.Number
		to = from
	} else {
		v, err := strconv.ParseUint(toStr, 10, 64)
		if err != nil {
			return v1.NewRequestError(fmt.Errorf("invalid to parameter: %w", err), http.StatusBadRequest)
		}
		to = v
	}

	if from > to {
		return v1.NewRequestError(fmt.Errorf("from %d greater than to %d", from, to), http.StatusBadRequest)
	}

	blocks := h.State.RetrieveBlocks(from, to)

	blockData := make([]database.BlockData, len(blocks))
	for i, block := range blocks {
		blockData[i] = database.NewBlockData(block)
	}

	return web.Respond(ctx, w, blockData, http.StatusOK)
}

// Validate walks the whole chain and reports the first integrity failure.
func (h Handlers) Validate(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	resp := struct {
		Valid  bool   `json:"valid"`
		Reason string `json:"reason,omitempty"`
	}{
		Valid: true,
	}

	if err := h.State.ValidateChain(); err != nil {
		resp.Valid = false
		resp.Reason = err.Error()
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Export captures the complete chain for backup.
func (h Handlers) Export(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	return web.Respond(ctx, w, h.State.ExportChain(), http.StatusOK)
}

// Import replaces the active chain with a previously exported one. The
// candidate is fully re-validated before the swap; an invalid import is
// refused and leaves the active chain untouched.
func (h Handlers) Import(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var chainFS database.ChainFS
	if err := web.Decode(r, &chainFS); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	if err := h.State.ImportChain(chainFS); err != nil {
		return v1.NewRequestError(fmt.Errorf("import rejected: %w", err), http.StatusBadRequest)
	}

	resp := struct {
		Imported uint64 `json:"imported_blocks"`
	}{
		Imported: chainFS.TotalBlocks,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// StartMining signals the scheduler to run a mining cycle now.
func (h Handlers) StartMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// CancelMining signals the scheduler to abandon any in-flight mining cycle.
func (h Handlers) CancelMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	h.State.Worker.SignalCancelMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "cancel signaled",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}
