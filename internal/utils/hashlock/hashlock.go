// Package hashlock is the commit-reveal primitive: a deposit is locked under
// the sha256 digest of a secret, and claiming it discloses the secret.
package hashlock

import (
	"crypto/sha256"

	"github.com/ethereum/go-ethereum/common"
)

// Commit returns the commitment digest for a secret. Only the digest is ever
// stored; the secret stays with the party that generated it until claim time.
func Commit(secret []byte) common.Hash {
	return common.Hash(sha256.Sum256(secret))
}

// Verify reports whether secret is the preimage of digest.
func Verify(secret []byte, digest common.Hash) bool {
	return Commit(secret) == digest
}
