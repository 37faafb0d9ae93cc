package genesis_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/honeytrace/ledger/foundation/ledger/genesis"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_LoadDifficultyBounds(t *testing.T) {
	t.Log("Given the need to bound the difficulty a genesis file can demand.")
	{
		t.Logf("\tTest 0:\tWhen the difficulty is within range.")
		{
			path := writeGenesis(t, genesis.MaxDifficulty)

			gen, err := genesis.Load(path)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to load the genesis file: %v", failed, err)
			}
			if gen.Difficulty != genesis.MaxDifficulty {
				t.Fatalf("\t%s\tTest 0:\tShould carry difficulty %d, got %d.", failed, genesis.MaxDifficulty, gen.Difficulty)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to load the genesis file.", success)
		}

		t.Logf("\tTest 1:\tWhen the difficulty is out of range.")
		{
			path := writeGenesis(t, genesis.MaxDifficulty+1)

			if _, err := genesis.Load(path); err == nil {
				t.Fatalf("\t%s\tTest 1:\tShould refuse an out of range difficulty.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould refuse an out of range difficulty.", success)
		}
	}
}

// =============================================================================

func writeGenesis(t *testing.T, difficulty uint) string {
	t.Helper()

	gen := genesis.Genesis{
		Date:          time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		ChainID:       "test-chain",
		TransPerBlock: 4,
		Difficulty:    difficulty,
	}

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := gen.Save(path); err != nil {
		t.Fatal(err)
	}

	return path
}
