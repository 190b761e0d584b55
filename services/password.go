package services

import (
	"encoding/base64"
	"errors"
	"strings"

	"golang.org/x/crypto/argon2"
)

// VerifyPassword checks a plain-text password against a stored
// salt:hash record. Any malformed input verifies as false rather than
// erroring through to the caller's happy path.
func VerifyPassword(storedPassword, providedPassword string) (bool, error) {
	parts := strings.Split(storedPassword, ":")
	if len(parts) != 2 {
		return false, errors.New("invalid stored password format")
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[0])
	if err != nil {
		return false, err
	}

	storedHash, err := base64.RawStdEncoding.DecodeString(parts[1])
	if err != nil {
		return false, err
	}

	computedHash := argon2.IDKey([]byte(providedPassword), salt, iterations, memory, parallelism, keyLength)

	return CheckHashes(storedHash, computedHash), nil
}

// ComparePasswords compares a stored password hash with a plain-text password.
// Returns true if they match, false otherwise; failures count as mismatches.
func ComparePasswords(storedHash, plainPassword string) bool {
	match, err := VerifyPassword(storedHash, plainPassword)
	if err != nil {
		return false
	}
	return match
}

// CheckHashes compares two digests without short-circuiting on the first
// differing byte. A length mismatch can fail fast; the lengths are public.
func CheckHashes(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
