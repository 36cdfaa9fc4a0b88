// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package credential produces and checks salted secret digests for accounts
// and admins. Only the (salt, digest) pair is ever persisted.
package credential

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// SaltBytes is the number of random bytes in a salt (rendered as 2x hex chars).
const SaltBytes = 16

// Credential is the persisted form of a secret.
type Credential struct {
	Salt   string
	Digest string
}

// GenerateSalt returns SaltBytes of crypto/rand output as lowercase hex.
func GenerateSalt() (string, error) {
	b := make([]byte, SaltBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// Hash returns hex(sha256(secret + salt)).
func Hash(secret, salt string) string {
	sum := sha256.Sum256([]byte(secret + salt))
	return hex.EncodeToString(sum[:])
}

// Verify recomputes the digest and compares it in constant time.
// A mismatch is a normal false result, never an error.
func Verify(secret, salt, expected string) bool {
	got := Hash(secret, salt)
	return subtle.ConstantTimeCompare([]byte(got), []byte(expected)) == 1
}

// New salts and hashes secret.
func New(secret string) (Credential, error) {
	salt, err := GenerateSalt()
	if err != nil {
		return Credential{}, err
	}
	return Credential{Salt: salt, Digest: Hash(secret, salt)}, nil
}

// Matches reports whether secret produces c's digest.
func (c Credential) Matches(secret string) bool {
	return Verify(secret, c.Salt, c.Digest)
}
