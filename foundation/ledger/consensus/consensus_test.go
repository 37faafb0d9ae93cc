package consensus_test

import (
	"context"
	"testing"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/attack"
	"github.com/honeytrace/ledger/foundation/ledger/consensus"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Quorum(t *testing.T) {
	type table struct {
		name      string
		threshold float64
		opinions  []consensus.Opinion
		accepted  bool
		score     float64
	}

	tt := []table{
		{
			name:      "two of three accept",
			threshold: 0.5,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 1},
				{Accept: true, Weight: 1},
				{Accept: false, Weight: 1},
			},
			accepted: true,
			score:    2.0 / 3.0,
		},
		{
			name:      "one of three accepts",
			threshold: 0.5,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 1},
				{Accept: false, Weight: 1},
				{Accept: false, Weight: 1},
			},
			accepted: false,
			score:    1.0 / 3.0,
		},
		{
			name:      "two of three at default threshold",
			threshold: 0.67,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 1},
				{Accept: true, Weight: 1},
				{Accept: false, Weight: 1},
			},
			accepted: true,
			score:    2.0 / 3.0,
		},
		{
			name:      "one of three at default threshold",
			threshold: 0.67,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 1},
				{Accept: false, Weight: 1},
				{Accept: false, Weight: 1},
			},
			accepted: false,
			score:    1.0 / 3.0,
		},
		{
			name:      "exactly at threshold",
			threshold: 0.5,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 1},
				{Accept: false, Weight: 1},
			},
			accepted: true,
			score:    0.5,
		},
		{
			name:      "weights shift the outcome",
			threshold: 0.5,
			opinions: []consensus.Opinion{
				{Accept: true, Weight: 0.5},
				{Accept: false, Weight: 1},
			},
			accepted: false,
			score:    1.0 / 3.0,
		},
	}

	t.Log("Given the need to apply the weighted quorum rule.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					var validators []consensus.Validator
					for i, op := range tst.opinions {
						validators = append(validators, consensus.NewStaticValidator(string(rune('a'+i)), op.Accept, op.Weight))
					}

					gate, err := consensus.New(consensus.Config{
						Threshold:  tst.threshold,
						Validators: validators,
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct gate: %v", failed, testID, err)
					}

					decision := gate.Validate(context.Background(), testRecord())

					if decision.Accepted != tst.accepted {
						t.Fatalf("\t%s\tTest %d:\tShould decide accepted[%t], got %t.", failed, testID, tst.accepted, decision.Accepted)
					}
					t.Logf("\t%s\tTest %d:\tShould decide accepted[%t].", success, testID, tst.accepted)

					if diff := decision.Score - tst.score; diff > 0.0001 || diff < -0.0001 {
						t.Fatalf("\t%s\tTest %d:\tShould score %.4f, got %.4f.", failed, testID, tst.score, decision.Score)
					}
					t.Logf("\t%s\tTest %d:\tShould score %.4f.", success, testID, tst.score)

					if decision.Reason == "" {
						t.Fatalf("\t%s\tTest %d:\tShould carry a reason.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould carry a reason.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_Abstentions(t *testing.T) {
	t.Log("Given the need to exclude non-responders from the quorum denominator.")
	{
		t.Logf("\tTest 0:\tWhen one validator times out and one accepts.")
		{
			gate, err := consensus.New(consensus.Config{
				Threshold: 0.67,
				Timeout:   50 * time.Millisecond,
				Validators: []consensus.Validator{
					consensus.NewStaticValidator("fast", true, 1),
					slowValidator{delay: time.Second},
				},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct gate: %v", failed, err)
			}

			decision := gate.Validate(context.Background(), testRecord())

			if !decision.Accepted {
				t.Fatalf("\t%s\tTest 0:\tShould accept on the responders alone: %s", failed, decision.Reason)
			}
			t.Logf("\t%s\tTest 0:\tShould accept on the responders alone.", success)

			if decision.Responded != 1 || decision.Abstained != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould count 1 responder and 1 abstention, got %d/%d.", failed, decision.Responded, decision.Abstained)
			}
			t.Logf("\t%s\tTest 0:\tShould count 1 responder and 1 abstention.", success)
		}

		t.Logf("\tTest 1:\tWhen a validator errors out.")
		{
			gate, err := consensus.New(consensus.Config{
				Threshold: 0.5,
				Validators: []consensus.Validator{
					consensus.NewStaticValidator("fast", true, 1),
					errorValidator{},
				},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould be able to construct gate: %v", failed, err)
			}

			decision := gate.Validate(context.Background(), testRecord())

			if !decision.Accepted || decision.Abstained != 1 {
				t.Fatalf("\t%s\tTest 1:\tShould treat the error as an abstention: %+v", failed, decision)
			}
			t.Logf("\t%s\tTest 1:\tShould treat the error as an abstention.", success)
		}
	}
}

func Test_ZeroResponderPolicy(t *testing.T) {
	type table struct {
		name     string
		policy   consensus.Policy
		accepted bool
	}

	tt := []table{
		{name: "fail closed", policy: consensus.PolicyFailClosed, accepted: false},
		{name: "fail open", policy: consensus.PolicyFailOpen, accepted: true},
	}

	t.Log("Given the need to decide when no validators respond.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen the policy is %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					gate, err := consensus.New(consensus.Config{
						Policy: tst.policy,
						Validators: []consensus.Validator{
							errorValidator{},
						},
					})
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to construct gate: %v", failed, testID, err)
					}

					decision := gate.Validate(context.Background(), testRecord())

					if decision.Accepted != tst.accepted {
						t.Fatalf("\t%s\tTest %d:\tShould decide accepted[%t]: %s", failed, testID, tst.accepted, decision.Reason)
					}
					t.Logf("\t%s\tTest %d:\tShould decide accepted[%t].", success, testID, tst.accepted)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_RuleValidator(t *testing.T) {
	t.Log("Given the need to apply the local plausibility rules.")
	{
		rv := consensus.NewRuleValidator("local")

		t.Logf("\tTest 0:\tWhen the source is a loopback address.")
		{
			rec := testRecord()
			rec.SourceIP = "127.0.0.1"

			opinion, err := rv.Review(context.Background(), rec)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould not error: %v", failed, err)
			}
			if opinion.Accept {
				t.Fatalf("\t%s\tTest 0:\tShould reject loopback traffic.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject loopback traffic.", success)
		}

		t.Logf("\tTest 1:\tWhen a critical record carries no metadata.")
		{
			rec := testRecord()
			rec.Severity = attack.SeverityCritical
			rec.Metadata = nil

			opinion, err := rv.Review(context.Background(), rec)
			if err != nil {
				t.Fatalf("\t%s\tTest 1:\tShould not error: %v", failed, err)
			}
			if !opinion.Accept || opinion.Weight != 0.5 {
				t.Fatalf("\t%s\tTest 1:\tShould accept with reduced confidence, got %+v.", failed, opinion)
			}
			t.Logf("\t%s\tTest 1:\tShould accept with reduced confidence.", success)
		}

		t.Logf("\tTest 2:\tWhen the record is malformed.")
		{
			rec := testRecord()
			rec.SourceIP = ""

			if _, err := rv.Review(context.Background(), rec); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould error on a malformed record.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould error on a malformed record.", success)
		}
	}
}

// =============================================================================

func testRecord() attack.Record {
	return attack.Record{
		ID:         "evt-1",
		TimeStamp:  1700000000,
		SourceIP:   "203.0.113.10",
		AttackType: "SSH_BRUTE_FORCE",
		Severity:   attack.SeverityHigh,
		Metadata:   map[string]any{"port": 22},
	}
}

// slowValidator never responds within the test timeout.
type slowValidator struct {
	delay time.Duration
}

func (sv slowValidator) Name() string { return "slow" }

func (sv slowValidator) Review(ctx context.Context, rec attack.Record) (consensus.Opinion, error) {
	select {
	case <-time.After(sv.delay):
		return consensus.Opinion{Accept: true, Weight: 1}, nil
	case <-ctx.Done():
		return consensus.Opinion{}, ctx.Err()
	}
}

// errorValidator always fails to produce an opinion.
type errorValidator struct{}

func (ev errorValidator) Name() string { return "broken" }

func (ev errorValidator) Review(ctx context.Context, rec attack.Record) (consensus.Opinion, error) {
	return consensus.Opinion{}, context.DeadlineExceeded
}
