// Package signature provides content hashing and the signing support needed
// to make evidence records independently verifiable.
package signature

import (
	"crypto/ecdsa"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ZeroHash represents a hash code of zeros.
const ZeroHash string = "0x0000000000000000000000000000000000000000000000000000000000000000"

// honeytraceID is an arbitrary number added to the recovery id when signing.
// This makes it clear a signature was produced by a honeytrace ledger node.
// Ethereum and Bitcoin do this as well, but they use the value of 27.
const honeytraceID = 31

// =============================================================================

// Hash returns a unique hash for the value. The value is serialized with
// canonical key ordering (encoding/json sorts map keys and walks struct
// fields in declaration order) so semantically identical values always
// produce identical hashes.
func Hash(value any) string {
	data, err := json.Marshal(value)
	if err != nil {

		// Any value that reaches a hashing call must be serializable. If it
		// isn't, the program is broken in a way no caller can recover from.
		panic("signature: hashing non-serializable value: " + err.Error())
	}

	hash := sha256.Sum256(data)
	return hexutil.Encode(hash[:])
}

// EmptyHash returns the hash of an empty byte string. This is the sentinel
// root for a block carrying no transactions.
func EmptyHash() string {
	hash := sha256.Sum256(nil)
	return hexutil.Encode(hash[:])
}

// Sign uses the specified private key to sign the value.
func Sign(value any, privateKey *ecdsa.PrivateKey) (v, r, s *big.Int, err error) {

	// Prepare the value for signing.
	data, err := stamp(value)
	if err != nil {
		return nil, nil, nil, err
	}

	// Sign the hash with the private key to produce a signature.
	sig, err := crypto.Sign(data, privateKey)
	if err != nil {
		return nil, nil, nil, err
	}

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return nil, nil, nil, err
	}

	// Check the public key extracted from the data and signature.
	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), data, rs) {
		return nil, nil, nil, errors.New("invalid signature")
	}

	// Convert the 65 byte signature into the [R|S|V] format.
	v, r, s = toSignatureValues(sig)

	return v, r, s, nil
}

// VerifySignature verifies the signature conforms to our standards.
func VerifySignature(v, r, s *big.Int) error {

	// Check the recovery id is either 0 or 1.
	uintV := v.Uint64() - honeytraceID
	if uintV != 0 && uintV != 1 {
		return errors.New("invalid recovery id")
	}

	// Check the signature values are valid.
	if !crypto.ValidateSignatureValues(byte(uintV), r, s, false) {
		return errors.New("invalid signature values")
	}

	return nil
}

// FromAddress extracts the address for the node that signed the value.
func FromAddress(value any, v, r, s *big.Int) (string, error) {

	// Prepare the value for public key extraction.
	data, err := stamp(value)
	if err != nil {
		return "", err
	}

	// Convert the [R|S|V] format into the original 65 bytes.
	sig := ToSignatureBytes(v, r, s)

	// Capture the public key associated with this data and signature.
	publicKey, err := crypto.SigToPub(data, sig)
	if err != nil {
		return "", err
	}

	// Extract the node address from the public key.
	return crypto.PubkeyToAddress(*publicKey).String(), nil
}

// SignatureString returns the signature as a string.
func SignatureString(v, r, s *big.Int) string {
	return hexutil.Encode(toSignatureBytesWithHoneytraceID(v, r, s))
}

// ToVRSFromHexSignature converts a hex representation of the signature into
// its R, S and V parts.
func ToVRSFromHexSignature(sigStr string) (v, r, s *big.Int, err error) {
	sig, err := hex.DecodeString(sigStr[2:])
	if err != nil {
		return nil, nil, nil, err
	}

	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64]})

	return v, r, s, nil
}

// =============================================================================

// stamp returns a hash of 32 bytes that represents this value with the
// honeytrace stamp embedded into the final hash.
func stamp(value any) ([]byte, error) {

	// Marshal the value.
	v, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}

	// Hash the value into a 32 byte array. This will provide a data length
	// consistency with all values being signed.
	txHash := crypto.Keccak256(v)

	// This stamp is used so signatures we produce when signing evidence
	// are always unique to the honeytrace ledger.
	stamp := []byte("\x19Honeytrace Signed Message:\n32")

	// Hash the stamp and txHash together in a final 32 byte array
	// that represents the value.
	data := crypto.Keccak256(stamp, txHash)

	return data, nil
}

// toSignatureValues converts the signature into the r, s, v values.
func toSignatureValues(sig []byte) (v, r, s *big.Int) {
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = new(big.Int).SetBytes([]byte{sig[64] + honeytraceID})

	return v, r, s
}

// ToSignatureBytes converts the r, s, v values into a slice of bytes
// with the removal of the honeytraceID.
func ToSignatureBytes(v, r, s *big.Int) []byte {
	sig := make([]byte, crypto.SignatureLength)

	rBytes := r.Bytes()
	if len(rBytes) == 31 {
		copy(sig[1:], rBytes)
	} else {
		copy(sig, rBytes)
	}

	sBytes := s.Bytes()
	if len(sBytes) == 31 {
		copy(sig[33:], sBytes)
	} else {
		copy(sig[32:], sBytes)
	}

	sig[64] = byte(v.Uint64() - honeytraceID)

	return sig
}

// toSignatureBytesWithHoneytraceID converts the r, s, v values into a slice
// of bytes keeping the honeytrace id.
func toSignatureBytesWithHoneytraceID(v, r, s *big.Int) []byte {
	sig := ToSignatureBytes(v, r, s)
	sig[64] = byte(v.Uint64())

	return sig
}
