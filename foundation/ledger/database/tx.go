package database

import (
	"crypto/ecdsa"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/honeytrace/ledger/foundation/ledger/attack"
	"github.com/honeytrace/ledger/foundation/ledger/signature"
)

// EvidenceTx is an attack record as it's recorded inside a block, wrapping
// the record with its validation metadata. An EvidenceTx is constructed once,
// by the consensus gate after acceptance, and never mutated.
type EvidenceTx struct {
	ID        string        `json:"id"`              // Unique id assigned at acceptance.
	TimeStamp uint64        `json:"timestamp"`       // The time the transaction was accepted.
	Record    attack.Record `json:"record"`          // The normalized attack record being evidenced.
	DataHash  string        `json:"data_hash"`       // Canonical content hash of the normalized record.
	Score     float64       `json:"consensus_score"` // Weighted fraction of validators that accepted.
	V         *big.Int      `json:"v"`               // Recovery identifier, either 31 or 32 with honeytraceID.
	R         *big.Int      `json:"r"`               // First coordinate of the ECDSA signature.
	S         *big.Int      `json:"s"`               // Second coordinate of the ECDSA signature.
}

// NewTx constructs an evidence transaction for an accepted attack record. The
// record's content hash is signed with the local node's private key so any
// holder of the public key can verify the evidence later.
func NewTx(privateKey *ecdsa.PrivateKey, rec attack.Record, score float64) (EvidenceTx, error) {
	nrec := rec.Normalize()
	if err := nrec.Check(); err != nil {
		return EvidenceTx{}, err
	}

	dataHash := nrec.DataHash()

	v, r, s, err := signature.Sign(dataHash, privateKey)
	if err != nil {
		return EvidenceTx{}, err
	}

	tx := EvidenceTx{
		ID:        uuid.NewString(),
		TimeStamp: uint64(time.Now().UTC().Unix()),
		Record:    nrec,
		DataHash:  dataHash,
		Score:     score,
		V:         v,
		R:         r,
		S:         s,
	}

	return tx, nil
}

// Validate verifies the transaction's content hash still matches the record
// it carries and that the signature conforms to our standards. A transaction
// failing either check must never enter a block.
func (tx EvidenceTx) Validate() error {
	if dataHash := tx.Record.DataHash(); dataHash != tx.DataHash {
		return fmt.Errorf("data hash mismatch, got %s, exp %s", dataHash, tx.DataHash)
	}

	if err := signature.VerifySignature(tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id of the node that signed the
// transaction's data hash.
func (tx EvidenceTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.DataHash, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx EvidenceTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx EvidenceTx) String() string {
	return fmt.Sprintf("%s:%s", tx.Record.SourceIP, tx.Record.AttackType)
}

// =============================================================================
// These methods implement the merkle Hashable interface.

// Hash provides a hash of the complete transaction for use as a merkle leaf.
func (tx EvidenceTx) Hash() ([]byte, error) {
	str := signature.Hash(tx)
	return hex.DecodeString(str[2:])
}

// Equals provides an equality check between two transactions. The unique id
// and the signature together identify a transaction.
func (tx EvidenceTx) Equals(otherTx EvidenceTx) bool {
	txSig := signature.ToSignatureBytes(tx.V, tx.R, tx.S)
	otherTxSig := signature.ToSignatureBytes(otherTx.V, otherTx.R, otherTx.S)

	return tx.ID == otherTx.ID && string(txSig) == string(otherTxSig)
}
