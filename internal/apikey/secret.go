// Package apikey implements C6 (spec.md §4.6): CSPRNG secret generation,
// slow salted hashing, constant-time verification, and prefix-based
// indexing for API keys. It never touches the relational store or the
// APIKey aggregate directly — both are composed by the service layer.
package apikey

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// DefaultTag is the literal prefix every generated secret starts with
// (spec.md §4.6, §6.4 api_key.prefix).
const DefaultTag = "karto_"

// DefaultEntropyBytes is the number of CSPRNG bytes encoded into each
// secret (spec.md §6.4 api_key.entropy_bytes).
const DefaultEntropyBytes = 32

// PrefixLength is the number of leading characters of a generated secret
// used for index lookup: the tag plus 6 characters of entropy
// (spec.md §4.6).
const PrefixLength = 12

var ErrEmptyTag = errors.New("apikey: prefix tag must not be empty")

// Generate produces a new plaintext secret of the form
// tag + url_safe(random(entropyBytes)), and the first PrefixLength
// characters of that secret as its index prefix. The random source is
// crypto/rand, a CSPRNG as required by spec.md §4.6.
func Generate(tag string, entropyBytes int) (plaintext, prefix string, err error) {
	if tag == "" {
		return "", "", ErrEmptyTag
	}

	if entropyBytes <= 0 {
		entropyBytes = DefaultEntropyBytes
	}

	buf := make([]byte, entropyBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", err
	}

	plaintext = tag + base64.RawURLEncoding.EncodeToString(buf)

	if len(plaintext) < PrefixLength {
		return "", "", errors.New("apikey: generated secret shorter than prefix length")
	}

	prefix = plaintext[:PrefixLength]

	return plaintext, prefix, nil
}

// Hash computes a slow, salted, memory-hard hash of plaintext using
// bcrypt. The plaintext itself is never returned to the caller by this
// package and must never be written to disk or logs by callers either.
func Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hashed), nil
}

// Verify compares candidate against hash using bcrypt's constant-time
// comparison. Any error (mismatch, malformed hash) yields false; errors
// are never propagated to the caller, per spec.md §4.6.
func Verify(hash, candidate string) bool {
	if hash == "" || candidate == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
