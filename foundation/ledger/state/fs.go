package state

import (
	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// ExportChain captures the complete chain for backup.
func (s *State) ExportChain() database.ChainFS {
	return s.db.Export()
}

// ImportChain replaces the active chain with a previously exported one. Any
// in-flight mining is cancelled first so the old head can't race the new
// chain; the pending pool is left alone. An invalid import is refused and
// leaves the active chain untouched.
func (s *State) ImportChain(chainFS database.ChainFS) error {
	s.evHandler("state: ImportChain: started: blocks[%d]", len(chainFS.Chain))
	defer s.evHandler("state: ImportChain: completed")

	if s.Worker != nil {
		s.Worker.SignalCancelMining()
	}

	return s.db.Import(chainFS)
}
