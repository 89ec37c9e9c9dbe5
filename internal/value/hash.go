package value

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DomainSnapshot prefixes snapshot fingerprints.
// The version suffix allows a future algorithm migration.
const DomainSnapshot = "hidux/snapshot/v1"

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content address of v.
// Two values have the same fingerprint iff their canonical JSON is equal.
func Fingerprint(v Value) (string, error) {
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when v is known to be serializable.
func MustFingerprint(v Value) string {
	fp, err := Fingerprint(v)
	if err != nil {
		panic(err)
	}
	return fp
}
