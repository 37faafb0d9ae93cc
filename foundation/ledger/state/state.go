// Package state is the core API for the evidence ledger and implements all
// the business rules and processing.
package state

import (
	"crypto/ecdsa"
	"errors"

	"github.com/honeytrace/ledger/foundation/ledger/consensus"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/genesis"
)

// EventHandler defines a function that is called when events occur in the
// processing of accepting and mining evidence.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining and chain integrity monitoring.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining()
}

// =============================================================================

// Config represents the configuration required to start the ledger node.
type Config struct {
	NodeID     database.AccountID
	PrivateKey *ecdsa.PrivateKey
	Genesis    genesis.Genesis
	Storage    database.Serializer
	Gate       *consensus.Gate
	EvHandler  EventHandler
}

// State manages the evidence ledger: the consensus gate in front, the pool
// of accepted-but-unmined transactions, and the chain itself.
type State struct {
	nodeID     database.AccountID
	privateKey *ecdsa.PrivateKey
	genesis    genesis.Genesis
	evHandler  EventHandler

	gate *consensus.Gate
	pool *database.Pool
	db   *database.Database

	// Worker is assigned by the worker package at startup. It is the only
	// writer to the chain.
	Worker Worker
}

// New constructs a new state for ledger management.
func New(cfg Config) (*State, error) {
	if cfg.PrivateKey == nil {
		return nil, errors.New("private key is required to sign evidence")
	}
	if cfg.Gate == nil {
		return nil, errors.New("consensus gate is required")
	}

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Access the storage for the chain and replay any existing blocks.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	state := State{
		nodeID:     cfg.NodeID,
		privateKey: cfg.PrivateKey,
		genesis:    cfg.Genesis,
		evHandler:  ev,

		gate: cfg.Gate,
		pool: database.NewPool(),
		db:   db,
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database is properly closed.
	defer s.db.Close()

	// Stop all chain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}
