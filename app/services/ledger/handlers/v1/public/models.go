package public

import (
	"github.com/honeytrace/ledger/business/sys/validate"
	"github.com/honeytrace/ledger/foundation/ledger/database"
)

// submitRequest is the payload the ingestion pipeline posts for each attack
// event captured by a honeypot sensor.
type submitRequest struct {
	ID         string         `json:"id" validate:"required"`
	TimeStamp  int64          `json:"timestamp" validate:"required"`
	SourceIP   string         `json:"source_ip" validate:"required,ip"`
	AttackType string         `json:"attack_type" validate:"required"`
	Severity   string         `json:"severity" validate:"required"`
	Metadata   map[string]any `json:"metadata"`
}

// Validate checks the payload against its declared tags.
func (sr submitRequest) Validate() error {
	return validate.Check(sr)
}

// tx is the view of an evidence transaction returned to dashboard callers.
type tx struct {
	ID         string         `json:"id"`
	TimeStamp  uint64         `json:"timestamp"`
	AttackID   string         `json:"attack_id"`
	SourceIP   string         `json:"source_ip"`
	AttackType string         `json:"attack_type"`
	Severity   string         `json:"severity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	DataHash   string         `json:"data_hash"`
	Score      float64        `json:"consensus_score"`
	Signer     string         `json:"signer"`
	SignerName string         `json:"signer_name,omitempty"`
	Sig        string         `json:"sig"`
}

// toTx constructs the view model, resolving the signer through the registry.
func (h Handlers) toTx(dbTx database.EvidenceTx) tx {
	signer, err := dbTx.FromAccount()
	if err != nil {
		signer = "unknown"
	}

	return tx{
		ID:         dbTx.ID,
		TimeStamp:  dbTx.TimeStamp,
		AttackID:   dbTx.Record.ID,
		SourceIP:   dbTx.Record.SourceIP,
		AttackType: dbTx.Record.AttackType,
		Severity:   dbTx.Record.Severity,
		Metadata:   dbTx.Record.Metadata,
		DataHash:   dbTx.DataHash,
		Score:      dbTx.Score,
		Signer:     string(signer),
		SignerName: h.Registry.Lookup(signer),
		Sig:        dbTx.SignatureString(),
	}
}
