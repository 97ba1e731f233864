// Package cryptox holds the password hashing routine that protects stored
// credentials, plus small random-credential helpers.
package cryptox

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/pbkdf2"
)

// PBKDF2 parameters. The iteration count is the latency/security knob: high
// enough to make offline brute force expensive, low enough that login stays
// under any caller-facing deadline.
const (
	iterations = 100_000
	keyLength  = 32 // SHA-256 output size
	saltLength = 16
)

// HashPassword derives a salted verifier record for a plaintext password.
// The record format is "<32-hex salt>:<64-hex derived key>" and is what gets
// persisted; a password change replaces the whole record, never part of it.
// Hashing the same password twice yields different records (fresh salt).
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("cryptox: generate salt: %w", err)
	}

	key := pbkdf2.Key([]byte(password), salt, iterations, keyLength, sha256.New)

	return hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether password matches the stored record.
//
// It deliberately never returns an error: malformed records, bad hex, and
// internal derivation failures all come back as false, so a caller probing
// the login endpoint cannot distinguish "wrong password" from "broken
// record". The comparison is constant-time.
func VerifyPassword(password, record string) bool {
	saltHex, keyHex, found := strings.Cut(record, ":")
	if !found || saltHex == "" || keyHex == "" {
		return false
	}

	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}

	want, err := hex.DecodeString(keyHex)
	if err != nil || len(want) == 0 {
		return false
	}

	got := pbkdf2.Key([]byte(password), salt, iterations, len(want), sha256.New)

	return subtle.ConstantTimeCompare(got, want) == 1
}

// GeneratePassword produces a random alphanumeric password, used when
// seeding the first admin account without a configured password.
func GeneratePassword() (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	const length = 16

	password := make([]byte, length)
	for i := range password {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("cryptox: generate password: %w", err)
		}
		password[i] = charset[n.Int64()]
	}
	return string(password), nil
}
