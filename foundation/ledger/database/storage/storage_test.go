package storage_test

import (
	"path/filepath"
	"testing"

	"github.com/honeytrace/ledger/foundation/ledger/database"
	"github.com/honeytrace/ledger/foundation/ledger/database/storage"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

// =============================================================================

func Test_Backends(t *testing.T) {
	type table struct {
		name string
		open func(t *testing.T) database.Serializer
	}

	tt := []table{
		{
			name: "bolt",
			open: func(t *testing.T) database.Serializer {
				s, err := storage.NewBolt(filepath.Join(t.TempDir(), "ledger.db"))
				if err != nil {
					t.Fatal(err)
				}
				return s
			},
		},
		{
			name: "disk",
			open: func(t *testing.T) database.Serializer {
				s, err := storage.NewDisk(t.TempDir())
				if err != nil {
					t.Fatal(err)
				}
				return s
			},
		},
		{
			name: "memory",
			open: func(t *testing.T) database.Serializer {
				return storage.NewMemory()
			},
		},
	}

	t.Log("Given the need to store and read blocks across backends.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen using the %s backend.", testID, tst.name)
			{
				f := func(t *testing.T) {
					s := tst.open(t)
					defer s.Close()

					for num := uint64(1); num <= 3; num++ {
						blockData := database.BlockData{
							Hash:   "0x01",
							Header: database.BlockHeader{Number: num},
						}
						if err := s.Write(blockData); err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to write block %d: %v", failed, testID, num, err)
						}
					}
					t.Logf("\t%s\tTest %d:\tShould be able to write 3 blocks.", success, testID)

					blockData, err := s.GetBlock(2)
					if err != nil || blockData.Header.Number != 2 {
						t.Fatalf("\t%s\tTest %d:\tShould be able to read block 2 back: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to read block 2 back.", success, testID)

					if _, err := s.GetBlock(9); err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould error reading a missing block.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould error reading a missing block.", success, testID)

					var numbers []uint64
					iter := s.ForEach()
					for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould be able to iterate: %v", failed, testID, err)
						}
						numbers = append(numbers, blockData.Header.Number)
					}

					if len(numbers) != 3 || numbers[0] != 1 || numbers[1] != 2 || numbers[2] != 3 {
						t.Fatalf("\t%s\tTest %d:\tShould iterate blocks in chain order, got %v.", failed, testID, numbers)
					}
					t.Logf("\t%s\tTest %d:\tShould iterate blocks in chain order.", success, testID)

					if err := s.Reset(); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to reset the store: %v", failed, testID, err)
					}

					iter = s.ForEach()
					if _, err := iter.Next(); !iter.Done() && err == nil {
						t.Fatalf("\t%s\tTest %d:\tShould have no blocks after reset.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould have no blocks after reset.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}
