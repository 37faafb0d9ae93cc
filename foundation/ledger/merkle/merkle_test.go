// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"bytes"
	"crypto/sha256"
	"testing"

	"github.com/honeytrace/ledger/foundation/ledger/merkle"
)

// Data uses the sha256 hashing algorithm for the merkle tree.
type Data struct {
	x string
}

// Hash hashes the values using sha256.
func (d Data) Hash() ([]byte, error) {
	h := sha256.New()
	if _, err := h.Write([]byte(d.x)); err != nil {
		return nil, err
	}

	return h.Sum(nil), nil
}

// Equals tests for equality of two pieces of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

// =============================================================================

func Test_RootDeterminism(t *testing.T) {
	values := []Data{{"alpha"}, {"beta"}, {"gamma"}, {"delta"}}

	tree1, err := merkle.NewTree(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree2, err := merkle.NewTree(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !bytes.Equal(tree1.MerkleRoot, tree2.MerkleRoot) {
		t.Fatal("expected identical inputs to produce identical roots")
	}
}

func Test_RootCommitsToOrder(t *testing.T) {
	tree1, err := merkle.NewTree([]Data{{"alpha"}, {"beta"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tree2, err := merkle.NewTree([]Data{{"beta"}, {"alpha"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bytes.Equal(tree1.MerkleRoot, tree2.MerkleRoot) {
		t.Fatal("expected reordered inputs to produce different roots")
	}
}

func Test_OddLeafCount(t *testing.T) {
	values := []Data{{"alpha"}, {"beta"}, {"gamma"}}

	tree, err := merkle.NewTree(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := tree.Verify(); err != nil {
		t.Fatalf("expected tree to verify: %v", err)
	}

	got := tree.Values()
	if len(got) != len(values) {
		t.Fatalf("expected %d values without the duplicated leaf, got %d", len(values), len(got))
	}
	for i := range values {
		if !got[i].Equals(values[i]) {
			t.Fatalf("expected value %q at position %d, got %q", values[i].x, i, got[i].x)
		}
	}
}

func Test_Proof(t *testing.T) {
	values := []Data{{"alpha"}, {"beta"}, {"gamma"}, {"delta"}}

	tree, err := merkle.NewTree(values)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, value := range values {
		proof, order, err := tree.Proof(value)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Walk the proof back up to the root.
		hash, err := value.Hash()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for i, sibling := range proof {
			h := sha256.New()
			if order[i] == 0 {
				h.Write(sibling)
				h.Write(hash)
			} else {
				h.Write(hash)
				h.Write(sibling)
			}
			hash = h.Sum(nil)
		}

		if !bytes.Equal(hash, tree.MerkleRoot) {
			t.Fatalf("expected proof for %q to resolve to the root", value.x)
		}
	}

	if _, _, err := tree.Proof(Data{"unknown"}); err == nil {
		t.Fatal("expected an error proving a value not in the tree")
	}
}

func Test_EmptyTree(t *testing.T) {
	if _, err := merkle.NewTree([]Data{}); err == nil {
		t.Fatal("expected an error constructing a tree with no content")
	}
}
