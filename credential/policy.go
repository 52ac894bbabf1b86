// Package credential turns plaintext passwords into stored digests and
// verifies them. The digest is opaque to the rest of the system; only the
// Policy chosen at wiring time knows its shape.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// Policy is a one-way hash plus verification over stored digests.
type Policy interface {
	// Hash produces the digest stored in place of the plaintext.
	Hash(plaintext string) (string, error)

	// Verify recomputes and compares. It must never error: a malformed
	// digest simply fails verification.
	Verify(plaintext, digest string) bool
}

// SHA256Policy is the legacy scheme: unsalted hex-encoded SHA-256.
// Known weakness: identical passwords on distinct accounts produce
// identical digests. Kept as the default for parity with digests already
// on devices; PBKDF2Policy is the hardened alternative.
type SHA256Policy struct{}

func NewSHA256Policy() SHA256Policy { return SHA256Policy{} }

func (SHA256Policy) Hash(plaintext string) (string, error) {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:]), nil
}

func (p SHA256Policy) Verify(plaintext, digest string) bool {
	computed, _ := p.Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1
}

const (
	pbkdf2Scheme     = "pbkdf2_sha256"
	pbkdf2Iterations = 120_000
	pbkdf2SaltBytes  = 16
	pbkdf2KeyBytes   = 32
)

// PBKDF2Policy is the salted scheme: per-profile random salt, PBKDF2 over
// SHA-256. Digest format: pbkdf2_sha256$<iterations>$<salthex>$<keyhex>.
// Digests written by SHA256Policy do not verify under this policy; a
// device switching schemes must re-hash on the next successful login.
type PBKDF2Policy struct {
	iterations int
}

func NewPBKDF2Policy() PBKDF2Policy {
	return PBKDF2Policy{iterations: pbkdf2Iterations}
}

func (p PBKDF2Policy) Hash(plaintext string) (string, error) {
	salt := make([]byte, pbkdf2SaltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := pbkdf2.Key([]byte(plaintext), salt, p.iterations, pbkdf2KeyBytes, sha256.New)
	return fmt.Sprintf("%s$%d$%s$%s",
		pbkdf2Scheme, p.iterations, hex.EncodeToString(salt), hex.EncodeToString(key)), nil
}

func (p PBKDF2Policy) Verify(plaintext, digest string) bool {
	parts := strings.Split(digest, "$")
	if len(parts) != 4 || parts[0] != pbkdf2Scheme {
		return false
	}
	iterations, err := strconv.Atoi(parts[1])
	if err != nil || iterations <= 0 {
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[3])
	if err != nil {
		return false
	}
	got := pbkdf2.Key([]byte(plaintext), salt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}
