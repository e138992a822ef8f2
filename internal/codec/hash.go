package codec

import (
	"crypto/sha256"
	"encoding/hex"
)

// Domain prefixes for content digests. The version suffix leaves room for
// changing the algorithm later.
const (
	DomainSnapshot = "genstore/snapshot/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Digest returns the content digest of an encoded snapshot.
func Digest(snapshot []byte) string {
	return hashWithDomain(DomainSnapshot, snapshot)
}
