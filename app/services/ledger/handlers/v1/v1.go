// Package v1 contains the full set of handler functions and routes
// supported by the v1 web api.
package v1

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/honeytrace/ledger/app/services/ledger/handlers/v1/private"
	"github.com/honeytrace/ledger/app/services/ledger/handlers/v1/public"
	"github.com/honeytrace/ledger/foundation/events"
	"github.com/honeytrace/ledger/foundation/ledger/state"
	"github.com/honeytrace/ledger/foundation/registry"
	"github.com/honeytrace/ledger/foundation/web"
	"go.uber.org/zap"
)

const version = "v1"

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log      *zap.SugaredLogger
	State    *state.State
	Registry *registry.Registry
	Evts     *events.Events
}

// PublicRoutes binds all the version 1 public routes.
func PublicRoutes(app *web.App, cfg Config) {
	pbl := public.Handlers{
		Log:      cfg.Log,
		State:    cfg.State,
		Registry: cfg.Registry,
		Evts:     cfg.Evts,
		WS:       websocket.Upgrader{},
	}

	app.Handle(http.MethodPost, version, "/attack/submit", pbl.Submit)
	app.Handle(http.MethodGet, version, "/chain/stats", pbl.Stats)
	app.Handle(http.MethodGet, version, "/chain/genesis", pbl.Genesis)
	app.Handle(http.MethodGet, version, "/chain/search", pbl.Search)
	app.Handle(http.MethodGet, version, "/chain/verify/:id", pbl.Verify)
	app.Handle(http.MethodGet, version, "/chain/pending", pbl.Pending)
	app.Handle(http.MethodGet, version, "/events", pbl.Events)
}

// PrivateRoutes binds all the version 1 private routes.
func PrivateRoutes(app *web.App, cfg Config) {
	prv := private.Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	app.Handle(http.MethodGet, version, "/node/status", prv.Status)
	app.Handle(http.MethodGet, version, "/node/block/list/:from/:to", prv.BlocksByNumber)
	app.Handle(http.MethodGet, version, "/chain/validate", prv.Validate)
	app.Handle(http.MethodGet, version, "/chain/export", prv.Export)
	app.Handle(http.MethodPost, version, "/chain/import", prv.Import)
	app.Handle(http.MethodGet, version, "/mining/start", prv.StartMining)
	app.Handle(http.MethodGet, version, "/mining/cancel", prv.CancelMining)
}
