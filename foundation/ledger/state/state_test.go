package state_test

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/honeytrace/ledger/foundation/ledger/attack"
	"github.com/honeytrace/ledger/foundation/ledger/consensus"
	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/database/storage"
	"github.com/honeytrace/ledger/foundation/ledger/genesis"
	"github.com/honeytrace/ledger/foundation/ledger/state"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_SubmitAndMine(t *testing.T) {
	t.Log("Given the need to accept evidence through the gate and mine it into the chain.")
	{
		t.Logf("\tTest 0:\tWhen submitting a full batch of records.")
		{
			st, wkr := newState(t, acceptGate(t))

			result, err := st.SubmitRecord(context.Background(), testRecord("evt-1", "203.0.113.10"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the record: %v", failed, err)
			}
			if !result.Accepted || result.TransactionID == "" {
				t.Fatalf("\t%s\tTest 0:\tShould accept the record, got %+v.", failed, result)
			}
			t.Logf("\t%s\tTest 0:\tShould accept the record.", success)

			if wkr.startCalls != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould not signal mining before the batch fills.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not signal mining before the batch fills.", success)

			if _, err := st.SubmitRecord(context.Background(), testRecord("evt-2", "198.51.100.7")); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit the second record: %v", failed, err)
			}

			if wkr.startCalls != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould signal mining once the batch fills, got %d.", failed, wkr.startCalls)
			}
			t.Logf("\t%s\tTest 0:\tShould signal mining once the batch fills.", success)

			block, err := st.MineNewBlock(context.Background())
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}
			if len(block.Transactions()) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould mine both transactions, got %d.", failed, len(block.Transactions()))
			}
			t.Logf("\t%s\tTest 0:\tShould mine both transactions into one block.", success)

			stats := st.QueryStats()
			if stats.TotalBlocks != 2 || stats.TotalTransactions != 2 || stats.PendingCount != 0 || !stats.ChainValid {
				t.Fatalf("\t%s\tTest 0:\tShould report consistent stats, got %+v.", failed, stats)
			}
			t.Logf("\t%s\tTest 0:\tShould report consistent stats.", success)

			verification, err := st.VerifyTransaction(block.Transactions()[0].ID)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to verify the transaction: %v", failed, err)
			}
			if !verification.Verified || verification.BlockNumber != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould fully verify the transaction, got %+v.", failed, verification)
			}
			t.Logf("\t%s\tTest 0:\tShould fully verify the transaction.", success)
		}
	}
}

func Test_SubmitRejection(t *testing.T) {
	t.Log("Given the need to refuse records that fail consensus.")
	{
		t.Logf("\tTest 0:\tWhen the source is a loopback address.")
		{
			gate, err := consensus.New(consensus.Config{
				Validators: []consensus.Validator{consensus.NewRuleValidator("local")},
			})
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to construct gate: %v", failed, err)
			}

			st, _ := newState(t, gate)

			result, err := st.SubmitRecord(context.Background(), testRecord("evt-1", "127.0.0.1"))
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould not error on a rejection: %v", failed, err)
			}
			if result.Accepted {
				t.Fatalf("\t%s\tTest 0:\tShould reject the record.", failed)
			}
			if result.Reason == "" {
				t.Fatalf("\t%s\tTest 0:\tShould carry a rejection reason.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould reject the record with a reason.", success)

			if count := st.QueryPendingCount(); count != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould keep the pool empty, got %d.", failed, count)
			}
			t.Logf("\t%s\tTest 0:\tShould keep the pool empty.", success)
		}
	}
}

func Test_ImportCancelsMining(t *testing.T) {
	t.Log("Given the need to stop in-flight mining before replacing the chain.")
	{
		t.Logf("\tTest 0:\tWhen importing an exported chain.")
		{
			st, wkr := newState(t, acceptGate(t))

			if _, err := st.SubmitRecord(context.Background(), testRecord("evt-1", "203.0.113.10")); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to submit a record: %v", failed, err)
			}
			if _, err := st.MineNewBlock(context.Background()); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to mine a block: %v", failed, err)
			}

			chainFS := st.ExportChain()

			if err := st.ImportChain(chainFS); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to import the chain: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to import the chain.", success)

			if wkr.cancelCalls == 0 {
				t.Fatalf("\t%s\tTest 0:\tShould cancel any in-flight mining first.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould cancel any in-flight mining first.", success)

			if err := st.ValidateChain(); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould have a valid chain after import: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould have a valid chain after import.", success)
		}
	}
}

// =============================================================================

// stubWorker records the scheduler signals the state sends.
type stubWorker struct {
	startCalls  int
	cancelCalls int
}

func (w *stubWorker) Shutdown()           {}
func (w *stubWorker) SignalStartMining()  { w.startCalls++ }
func (w *stubWorker) SignalCancelMining() { w.cancelCalls++ }

func newState(t *testing.T, gate *consensus.Gate) (*state.State, *stubWorker) {
	t.Helper()

	pk, err := crypto.HexToECDSA("fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959")
	if err != nil {
		t.Fatal(err)
	}

	gen := genesis.Genesis{
		Date:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       "test-chain",
		TransPerBlock: 2,
		Difficulty:    1,
	}

	st, err := state.New(state.Config{
		NodeID:     database.PublicKeyToAccountID(pk.PublicKey),
		PrivateKey: pk,
		Genesis:    gen,
		Storage:    storage.NewMemory(),
		Gate:       gate,
	})
	if err != nil {
		t.Fatal(err)
	}

	wkr := &stubWorker{}
	st.Worker = wkr

	return st, wkr
}

func acceptGate(t *testing.T) *consensus.Gate {
	t.Helper()

	gate, err := consensus.New(consensus.Config{
		Threshold: 0.5,
		Validators: []consensus.Validator{
			consensus.NewStaticValidator("yes", true, 1),
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	return gate
}

func testRecord(id string, sourceIP string) attack.Record {
	return attack.Record{
		ID:         id,
		TimeStamp:  1700000000,
		SourceIP:   sourceIP,
		AttackType: "SSH_BRUTE_FORCE",
		Severity:   attack.SeverityHigh,
		Metadata:   map[string]any{"port": 22},
	}
}
