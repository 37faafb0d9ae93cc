package consensus

import (
	"context"
	"fmt"
	"strings"

	"github.com/honeytrace/ledger/foundation/ledger/attack"
)

// RuleValidator is the in-process validator every node runs. It applies
// structural and plausibility rules to the record itself without contacting
// anything over the network.
type RuleValidator struct {
	name string
}

// NewRuleValidator constructs the local rule based validator.
func NewRuleValidator(name string) *RuleValidator {
	return &RuleValidator{name: name}
}

// Name identifies this validator in logs and decisions.
func (rv *RuleValidator) Name() string {
	return rv.name
}

// Review applies the local acceptance rules to the record.
func (rv *RuleValidator) Review(ctx context.Context, rec attack.Record) (Opinion, error) {
	if err := rec.Normalize().Check(); err != nil {
		return Opinion{}, fmt.Errorf("%w: %s", ErrMalformedRecord, err)
	}

	// Traffic a honeypot records from itself is noise, not evidence.
	if strings.HasPrefix(rec.SourceIP, "127.") || rec.SourceIP == "::1" {
		return Opinion{Accept: false, Weight: 1}, nil
	}

	// Critical severity without any enrichment metadata is suspicious; still
	// accept, but with reduced confidence.
	if rec.Severity == attack.SeverityCritical && len(rec.Metadata) == 0 {
		return Opinion{Accept: true, Weight: 0.5}, nil
	}

	return Opinion{Accept: true, Weight: 1}, nil
}

// =============================================================================

// StaticValidator always responds with a fixed opinion. It is useful for
// tests and for wiring single-node deployments that accept everything the
// rule validator lets through.
type StaticValidator struct {
	name    string
	opinion Opinion
}

// NewStaticValidator constructs a validator with a fixed response.
func NewStaticValidator(name string, accept bool, weight float64) *StaticValidator {
	return &StaticValidator{
		name:    name,
		opinion: Opinion{Accept: accept, Weight: weight},
	}
}

// Name identifies this validator in logs and decisions.
func (sv *StaticValidator) Name() string {
	return sv.name
}

// Review returns the fixed opinion.
func (sv *StaticValidator) Review(ctx context.Context, rec attack.Record) (Opinion, error) {
	return sv.opinion, nil
}
