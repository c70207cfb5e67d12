// Package session issues and verifies the signed, time-limited opaque token
// that gates the admin API. Tokens are stateless: verification needs only the
// shared secret, so there is no server-side session store and no revocation
// short of rotating the secret.
package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TTL is the session lifetime.
const TTL = 12 * time.Hour

const nonceBytes = 16

// Codec signs and verifies admin session tokens with a shared secret.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec from the shared secret string.
func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

// Issue generates a fresh token stamped with the current time.
func (c *Codec) Issue() (string, error) {
	return c.IssueAt(time.Now())
}

// IssueAt generates a token stamped with the given issue time.
// Token layout: base64url(issuedAtUnix ":" nonceHex ":" signatureHex),
// unpadded, where signature = HMAC-SHA256(issuedAt ":" nonce, secret).
func (c *Codec) IssueAt(issuedAt time.Time) (string, error) {
	nonce := make([]byte, nonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	nonceHex := hex.EncodeToString(nonce)
	payload := strconv.FormatInt(issuedAt.Unix(), 10) + ":" + nonceHex
	sig := c.sign(payload)

	return base64.RawURLEncoding.EncodeToString([]byte(payload + ":" + sig)), nil
}

// Verify reports whether the token is authentic and unexpired right now.
func (c *Codec) Verify(token string) bool {
	return c.VerifyAt(token, time.Now())
}

// VerifyAt reports whether the token is authentic and unexpired at the given
// time. Any malformed input fails closed; nothing here panics or returns an
// error a caller could mistake for a transport failure.
func (c *Codec) VerifyAt(token string, now time.Time) bool {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return false
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != 3 {
		return false
	}
	issuedAtStr, nonceHex, gotSig := parts[0], parts[1], parts[2]

	expected := c.sign(issuedAtStr + ":" + nonceHex)
	if !constantTimeEqual(expected, gotSig) {
		return false
	}

	issuedAt, err := strconv.ParseInt(issuedAtStr, 10, 64)
	if err != nil {
		return false
	}

	age := now.Unix() - issuedAt
	return age >= 0 && age <= int64(TTL/time.Second)
}

func (c *Codec) sign(message string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// constantTimeEqual compares two strings without data-dependent early exit.
// Length mismatch returns false after the accumulate loop, not before the
// comparison work, to keep timing independent of where inputs diverge.
func constantTimeEqual(a, b string) bool {
	if len(a) != len(b) {
		// Still burn comparable work on the shorter string.
		var acc byte
		for i := 0; i < len(a) && i < len(b); i++ {
			acc |= a[i] ^ b[i]
		}
		_ = acc
		return false
	}
	var acc byte
	for i := 0; i < len(a); i++ {
		acc |= a[i] ^ b[i]
	}
	return acc == 0
}
