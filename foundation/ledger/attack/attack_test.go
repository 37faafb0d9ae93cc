package attack_test

import (
	"testing"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/attack"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_HashDeterminism(t *testing.T) {
	t.Log("Given the need for semantically identical records to hash identically.")
	{
		t.Logf("\tTest 0:\tWhen hashing the same record twice.")
		{
			rec, err := attack.New("evt-1", time.Unix(1700000000, 0), "203.0.113.10", "ssh_brute_force", "high", map[string]any{"port": 22})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct record: %v", failed, err)
			}

			if rec.DataHash() != rec.DataHash() {
				t.Fatalf("\t%s\tTest 0:\tShould produce the same hash twice.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould produce the same hash twice.", success)
		}

		t.Logf("\tTest 1:\tWhen two records differ only in whitespace and case.")
		{
			a := attack.Record{
				ID:         "evt-1",
				TimeStamp:  1700000000,
				SourceIP:   "203.0.113.10",
				AttackType: "SSH_BRUTE_FORCE",
				Severity:   "HIGH",
			}
			b := attack.Record{
				ID:         "  evt-1  ",
				TimeStamp:  1700000000,
				SourceIP:   "203.0.113.10 ",
				AttackType: "ssh_brute_force",
				Severity:   "High",
			}

			if a.DataHash() != b.DataHash() {
				t.Fatalf("\t%s\tTest 1:\tShould hash identically after normalization.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould hash identically after normalization.", success)
		}

		t.Logf("\tTest 2:\tWhen a record's content changes.")
		{
			a := attack.Record{ID: "evt-1", SourceIP: "203.0.113.10", AttackType: "SSH_BRUTE_FORCE", Severity: "HIGH"}
			b := a
			b.Severity = "LOW"

			if a.DataHash() == b.DataHash() {
				t.Fatalf("\t%s\tTest 2:\tShould hash differently.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould hash differently.", success)
		}
	}
}

func Test_Check(t *testing.T) {
	type table struct {
		name     string
		id       string
		sourceIP string
		attType  string
		severity string
		valid    bool
	}

	tt := []table{
		{name: "valid", id: "evt-1", sourceIP: "203.0.113.10", attType: "SSH_BRUTE_FORCE", severity: "HIGH", valid: true},
		{name: "missing id", id: "", sourceIP: "203.0.113.10", attType: "SSH_BRUTE_FORCE", severity: "HIGH", valid: false},
		{name: "missing source", id: "evt-1", sourceIP: "", attType: "SSH_BRUTE_FORCE", severity: "HIGH", valid: false},
		{name: "missing type", id: "evt-1", sourceIP: "203.0.113.10", attType: "", severity: "HIGH", valid: false},
		{name: "unknown severity", id: "evt-1", sourceIP: "203.0.113.10", attType: "SSH_BRUTE_FORCE", severity: "EXTREME", valid: false},
	}

	t.Log("Given the need to validate required record fields.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling a record with %s.", testID, tst.name)
			{
				_, err := attack.New(tst.id, time.Now(), tst.sourceIP, tst.attType, tst.severity, nil)

				if tst.valid && err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould accept the record: %v", failed, testID, err)
				}
				if !tst.valid && err == nil {
					t.Fatalf("\t%s\tTest %d:\tShould reject the record.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould handle the record correctly.", success, testID)
			}
		}
	}
}
