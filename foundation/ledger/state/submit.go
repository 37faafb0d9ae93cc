package state

import (
	"context"

	"github.com/honeytrace/ledger/foundation/ledger/attack"
	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// SubmitResult is what the ingestion pipeline receives for every submitted
// attack record: an explicit accept/reject with a reason.
type SubmitResult struct {
	Accepted      bool    `json:"accepted"`
	TransactionID string  `json:"transaction_id,omitempty"`
	Score         float64 `json:"consensus_score,omitempty"`
	Reason        string  `json:"reason,omitempty"`
}

// SubmitRecord runs an incoming attack record through the consensus gate and,
// on acceptance, signs it into an evidence transaction and queues it for
// mining. Rejection is a normal outcome, not an error; errors are reserved
// for failures constructing the transaction itself.
func (s *State) SubmitRecord(ctx context.Context, rec attack.Record) (SubmitResult, error) {
	s.evHandler("state: SubmitRecord: attack[%s] source[%s] type[%s]", rec.ID, rec.SourceIP, rec.AttackType)

	decision := s.gate.Validate(ctx, rec)
	if !decision.Accepted {
		s.evHandler("state: SubmitRecord: REJECTED: %s", decision.Reason)
		return SubmitResult{Reason: decision.Reason}, nil
	}

	tx, err := database.NewTx(s.privateKey, rec, decision.Score)
	if err != nil {
		return SubmitResult{}, err
	}

	n := s.pool.Add(tx)
	s.evHandler("state: SubmitRecord: ACCEPTED: tx[%s] score[%.2f] pending[%d]", tx.ID, decision.Score, n)

	// Wake the scheduler early once a full batch is waiting.
	if n >= int(s.genesis.TransPerBlock) && s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return SubmitResult{
		Accepted:      true,
		TransactionID: tx.ID,
		Score:         decision.Score,
		Reason:        decision.Reason,
	}, nil
}
