package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
)

// TokenPrefix marks bearer tokens issued by this service so leaked tokens
// are recognizable in logs and secret scanners.
const TokenPrefix = "fsm_"

// NewToken returns a fresh opaque bearer token and the hash that gets
// persisted. Only the hash is ever stored.
func NewToken(pepper string) (token, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}
	token = TokenPrefix + base64.RawURLEncoding.EncodeToString(buf)
	return token, HashToken(token, pepper), nil
}

// HashToken maps a presented bearer token to its stored lookup key.
func HashToken(token, pepper string) string {
	sum := sha256.Sum256([]byte(pepper + token))
	return hex.EncodeToString(sum[:])
}

// ValidTokenShape rejects obviously malformed tokens before any DB lookup.
func ValidTokenShape(token string) bool {
	if !strings.HasPrefix(token, TokenPrefix) {
		return false
	}
	rest := strings.TrimPrefix(token, TokenPrefix)
	if len(rest) < 32 {
		return false
	}
	_, err := base64.RawURLEncoding.DecodeString(rest)
	return err == nil
}
