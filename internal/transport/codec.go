// EasyFlix - Subscription Video Storefront Core
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/easyflix

// Package transport implements the optional encrypted request/response framing.
//
// Encryption Algorithm:
//   - AES-256-GCM (authenticated encryption)
//   - 12-byte random nonce per token
//   - Key derived from the configured passphrase and salt with PBKDF2-HMAC-SHA256
//
// Token format: base64url(nonce || ciphertext || tag)
//
// The passphrase is operator configuration shared with every front-end, so the
// framing hides traffic from casual observers only. Anyone holding the
// configuration can read and forge tokens.
//
// Example Usage:
//
//	codec, err := transport.NewCodec(transport.Config{
//	    Passphrase: cfg.Transport.Passphrase,
//	    Salt:       cfg.Transport.Salt,
//	    Iterations: cfg.Transport.Iterations,
//	})
//	token, err := codec.Encrypt(`{"command":"get_genres","parameters":{}}`)
//	plaintext, err := codec.Decrypt(token)
package transport

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/tomtom215/easyflix/internal/apperr"
)

const (
	// DefaultIterations is the PBKDF2 iteration count used when none is configured.
	DefaultIterations = 200_000

	// MinIterations is the lowest iteration count NewCodec accepts.
	MinIterations = 10_000

	// aesKeySize is the size of the AES key in bytes (256 bits).
	aesKeySize = 32

	// gcmNonceSize is the size of the GCM nonce in bytes.
	gcmNonceSize = 12
)

var (
	// ErrEmptyPassphrase is returned when no passphrase is configured.
	ErrEmptyPassphrase = errors.New("transport passphrase cannot be empty")

	// ErrEmptySalt is returned when no key-derivation salt is configured.
	ErrEmptySalt = errors.New("transport salt cannot be empty")

	// ErrWeakIterations is returned for iteration counts below MinIterations.
	ErrWeakIterations = fmt.Errorf("transport iterations must be at least %d", MinIterations)

	// ErrEmptyToken is returned when attempting to decrypt an empty token.
	ErrEmptyToken = errors.New("token cannot be empty")

	// ErrInvalidToken is returned when the token is not valid base64.
	ErrInvalidToken = errors.New("invalid token encoding")

	// ErrTokenTooShort is returned when the token cannot hold a nonce and tag.
	ErrTokenTooShort = errors.New("token too short")

	// ErrDecryptionFailed is returned when authentication of the token fails.
	ErrDecryptionFailed = errors.New("decryption failed: invalid token or authentication tag")
)

// Config holds key-derivation inputs.
type Config struct {
	Passphrase string
	Salt       string
	Iterations int
}

// Codec encrypts and decrypts transport tokens.
// It is safe for concurrent use.
type Codec struct {
	aead cipher.AEAD
}

// NewCodec derives the AES key from cfg and prepares the GCM cipher.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.Passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if cfg.Salt == "" {
		return nil, ErrEmptySalt
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = DefaultIterations
	}
	if cfg.Iterations < MinIterations {
		return nil, ErrWeakIterations
	}

	key := deriveKey(cfg)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}

	return &Codec{aead: gcm}, nil
}

// deriveKey runs PBKDF2-HMAC-SHA256 over the passphrase and salt.
func deriveKey(cfg Config) []byte {
	return pbkdf2.Key([]byte(cfg.Passphrase), []byte(cfg.Salt), cfg.Iterations, aesKeySize, sha256.New)
}

// Encrypt seals plaintext into a token. Empty plaintext is allowed.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", transportErr(fmt.Errorf("failed to generate nonce: %w", err))
	}

	sealed := c.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.URLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token produced by Encrypt. Every failure is classified as
// apperr.KindTransport and wraps one of the Err* sentinels above.
func (c *Codec) Decrypt(token string) (string, error) {
	if token == "" {
		return "", transportErr(ErrEmptyToken)
	}

	data, err := decodeToken(token)
	if err != nil {
		return "", transportErr(fmt.Errorf("%w: %s", ErrInvalidToken, err.Error()))
	}

	if len(data) < gcmNonceSize+c.aead.Overhead() {
		return "", transportErr(ErrTokenTooShort)
	}

	plaintext, err := c.aead.Open(nil, data[:gcmNonceSize], data[gcmNonceSize:], nil)
	if err != nil {
		return "", transportErr(ErrDecryptionFailed)
	}

	return string(plaintext), nil
}

// decodeToken accepts URL-safe base64 and falls back to the standard alphabet
// for front-ends that emit it.
func decodeToken(token string) ([]byte, error) {
	data, err := base64.URLEncoding.DecodeString(token)
	if err == nil {
		return data, nil
	}
	if std, stdErr := base64.StdEncoding.DecodeString(token); stdErr == nil {
		return std, nil
	}
	return nil, err
}

// SelfTest performs a round trip to confirm the codec is usable.
func (c *Codec) SelfTest() error {
	const probe = "easyflix-transport-probe"

	token, err := c.Encrypt(probe)
	if err != nil {
		return fmt.Errorf("encryption test failed: %w", err)
	}

	got, err := c.Decrypt(token)
	if err != nil {
		return fmt.Errorf("decryption test failed: %w", err)
	}
	if got != probe {
		return errors.New("round-trip validation failed: data mismatch")
	}
	return nil
}

func transportErr(err error) error {
	return &apperr.Error{Kind: apperr.KindTransport, Message: "transport error", Err: err}
}
