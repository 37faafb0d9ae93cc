// Package attack defines the attack record value type submitted by the
// honeypot ingestion pipeline and the normalization rules that give hashing
// a well-defined schema.
package attack

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/signature"
)

// Set of severity labels an attack record can carry.
const (
	SeverityLow      = "LOW"
	SeverityMedium   = "MEDIUM"
	SeverityHigh     = "HIGH"
	SeverityCritical = "CRITICAL"
)

// severities is the set of labels accepted during normalization.
var severities = map[string]bool{
	SeverityLow:      true,
	SeverityMedium:   true,
	SeverityHigh:     true,
	SeverityCritical: true,
}

// =============================================================================

// Record represents one attack event captured by a honeypot sensor. The fixed
// fields form the versioned hashing schema. Metadata is an open extension map
// for enrichment results (target port, payload size, geolocation, etc).
type Record struct {
	ID         string         `json:"id"`
	TimeStamp  uint64         `json:"timestamp"`
	SourceIP   string         `json:"source_ip"`
	AttackType string         `json:"attack_type"`
	Severity   string         `json:"severity"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// New constructs a Record, applying normalization to the input fields.
func New(id string, timeStamp time.Time, sourceIP string, attackType string, severity string, metadata map[string]any) (Record, error) {
	rec := Record{
		ID:         strings.TrimSpace(id),
		TimeStamp:  uint64(timeStamp.UTC().Unix()),
		SourceIP:   strings.ToLower(strings.TrimSpace(sourceIP)),
		AttackType: strings.ToUpper(strings.TrimSpace(attackType)),
		Severity:   strings.ToUpper(strings.TrimSpace(severity)),
		Metadata:   metadata,
	}

	if err := rec.Check(); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Check validates the record carries the required fields.
func (rec Record) Check() error {
	if rec.ID == "" {
		return errors.New("attack record missing id")
	}

	if rec.SourceIP == "" {
		return errors.New("attack record missing source ip")
	}

	if rec.AttackType == "" {
		return errors.New("attack record missing attack type")
	}

	if !severities[rec.Severity] {
		return fmt.Errorf("unknown severity label %q", rec.Severity)
	}

	return nil
}

// Normalize returns a copy of the record with canonical field forms. Hashing
// a record twice, or hashing two records that differ only in whitespace or
// letter case, must produce the same result.
func (rec Record) Normalize() Record {
	nrec := Record{
		ID:         strings.TrimSpace(rec.ID),
		TimeStamp:  rec.TimeStamp,
		SourceIP:   strings.ToLower(strings.TrimSpace(rec.SourceIP)),
		AttackType: strings.ToUpper(strings.TrimSpace(rec.AttackType)),
		Severity:   strings.ToUpper(strings.TrimSpace(rec.Severity)),
		Metadata:   rec.Metadata,
	}

	return nrec
}

// DataHash returns the canonical content hash for the record. The record is
// normalized first so semantically identical records always hash identically.
func (rec Record) DataHash() string {
	return signature.Hash(rec.Normalize())
}
