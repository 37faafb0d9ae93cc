// Package consensus implements the gate that decides whether an incoming
// attack record is trustworthy enough to commit to the evidence chain. The
// gate collects opinions from a set of validators and applies a weighted
// quorum threshold. How validators are reached is a transport concern hidden
// behind the Validator interface.
package consensus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/attack"
)

// Defaults applied by New when the configuration leaves them unset.
const (
	DefaultThreshold = 0.67
	DefaultTimeout   = 30 * time.Second
)

// thresholdEpsilon absorbs float error in the quorum compare. Two of three
// equal-weight accepts score 0.666667 and must pass a 0.67 threshold.
const thresholdEpsilon = 1e-9

// Policy determines how the gate decides when zero validators respond.
type Policy string

// Set of policies for a gate with no responding validators.
const (
	PolicyFailOpen   Policy = "fail-open"
	PolicyFailClosed Policy = "fail-closed"
)

// =============================================================================

// Opinion is a single validator's response for a candidate record.
type Opinion struct {
	Accept bool
	Weight float64 // Confidence in the range [0,1].
}

// Validator represents the behavior required to review candidate attack
// records. Implementations may be local rules or remote nodes.
type Validator interface {
	Name() string
	Review(ctx context.Context, rec attack.Record) (Opinion, error)
}

// Decision is the outcome of running a record through the gate.
type Decision struct {
	Accepted  bool
	Score     float64
	Reason    string
	Responded int
	Abstained int
}

// =============================================================================

// Config represents the configuration required to construct a gate.
type Config struct {
	Threshold  float64
	Timeout    time.Duration
	Policy     Policy
	Validators []Validator
	EvHandler  func(v string, args ...any)
}

// Gate collects validator opinions on candidate records and decides
// accept/reject via a weighted quorum threshold. Validate is safe for
// concurrent use; the gate holds no per-request state.
type Gate struct {
	threshold  float64
	timeout    time.Duration
	policy     Policy
	validators []Validator
	evHandler  func(v string, args ...any)
}

// New constructs a gate from the specified configuration.
func New(cfg Config) (*Gate, error) {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold < 0 || cfg.Threshold > 1 {
		return nil, fmt.Errorf("threshold must be in (0,1], got %f", cfg.Threshold)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	switch cfg.Policy {
	case PolicyFailOpen, PolicyFailClosed:
	case "":
		cfg.Policy = PolicyFailClosed
	default:
		return nil, fmt.Errorf("unknown policy %q", cfg.Policy)
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	g := Gate{
		threshold:  cfg.Threshold,
		timeout:    cfg.Timeout,
		policy:     cfg.Policy,
		validators: cfg.Validators,
		evHandler:  ev,
	}

	return &g, nil
}

// Validate dispatches the record to every configured validator and applies
// the quorum rule over the responses. Validators that don't respond within
// the timeout are abstentions: they are excluded from the denominator rather
// than counted as rejections, so a partial validator outage doesn't take the
// gate down with it.
func (g *Gate) Validate(ctx context.Context, rec attack.Record) Decision {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	type response struct {
		name    string
		opinion Opinion
		err     error
	}

	// Fan the review out to all validators. The channel is buffered so late
	// responders never leak a goroutine after the timeout fires.
	results := make(chan response, len(g.validators))
	for _, val := range g.validators {
		go func(val Validator) {
			opinion, err := val.Review(ctx, rec)
			results <- response{val.Name(), opinion, err}
		}(val)
	}

	// Collect opinions until every validator responded or time ran out.
	var acceptWeight, totalWeight float64
	var responded int

collect:
	for range g.validators {
		select {
		case resp := <-results:
			if resp.err != nil {
				g.evHandler("consensus: Validate: validator[%s] abstained: %s", resp.name, resp.err)
				continue
			}

			weight := clamp(resp.opinion.Weight)
			responded++
			totalWeight += weight
			if resp.opinion.Accept {
				acceptWeight += weight
			}
			g.evHandler("consensus: Validate: validator[%s] accept[%t] weight[%.2f]", resp.name, resp.opinion.Accept, weight)

		case <-ctx.Done():
			g.evHandler("consensus: Validate: timeout waiting for validators")
			break collect
		}
	}

	abstained := len(g.validators) - responded

	// Nobody responded. Fall back to the configured local-only policy.
	if responded == 0 || totalWeight == 0 {
		switch g.policy {
		case PolicyFailOpen:
			return Decision{
				Accepted:  true,
				Score:     1,
				Reason:    "no validators responded, accepted by fail-open policy",
				Abstained: abstained,
			}
		default:
			return Decision{
				Reason:    "no validators responded, rejected by fail-closed policy",
				Abstained: abstained,
			}
		}
	}

	score := acceptWeight / totalWeight

	d := Decision{
		Accepted:  score >= g.threshold-thresholdEpsilon,
		Score:     score,
		Responded: responded,
		Abstained: abstained,
	}

	switch {
	case d.Accepted:
		d.Reason = fmt.Sprintf("consensus reached, score %.2f >= threshold %.2f", score, g.threshold)
	default:
		d.Reason = fmt.Sprintf("consensus not reached, score %.2f < threshold %.2f", score, g.threshold)
	}

	return d
}

// clamp bounds a validator supplied weight to [0,1].
func clamp(weight float64) float64 {
	switch {
	case weight < 0:
		return 0
	case weight > 1:
		return 1
	}
	return weight
}

// =============================================================================

// ErrMalformedRecord is returned by the rule validator when the record fails
// its structural checks.
var ErrMalformedRecord = errors.New("malformed attack record")
