package utils

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidToken is returned for malformed or tampered tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned once a token is past its expiry
	ErrExpiredToken = errors.New("token expired")
)

// GenerateHMAC returns the hex HMAC-SHA256 of data
func GenerateHMAC(data, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// MagicToken is the verified content of a magic link token
type MagicToken struct {
	Email     string
	Nonce     string
	ExpiresAt time.Time
}

// SignMagicToken creates a login token for email valid until expiresAt.
// The nonce identifies the link so it can be redeemed only once.
// Format: base64url("email|nonce|unix") + "." + hex(hmac)
func SignMagicToken(email, nonce string, expiresAt time.Time, secret string) string {
	payload := email + "|" + nonce + "|" + strconv.FormatInt(expiresAt.Unix(), 10)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(payload))
	return encoded + "." + GenerateHMAC(encoded, secret)
}

// VerifyMagicToken checks the signature and expiry of a token and returns its content.
// It does not track redemption; callers consume the nonce.
func VerifyMagicToken(token, secret string, now time.Time) (*MagicToken, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return nil, ErrInvalidToken
	}

	expected := GenerateHMAC(encoded, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return nil, ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	rest, expiry, ok := cutLast(string(raw), "|")
	if !ok {
		return nil, ErrInvalidToken
	}
	email, nonce, ok := cutLast(rest, "|")
	if !ok || email == "" || nonce == "" {
		return nil, ErrInvalidToken
	}
	expiresUnix, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad expiry", ErrInvalidToken)
	}

	expiresAt := time.Unix(expiresUnix, 0)
	if now.After(expiresAt) {
		return nil, ErrExpiredToken
	}
	return &MagicToken{Email: email, Nonce: nonce, ExpiresAt: expiresAt}, nil
}

// cutLast slices s around the last instance of sep
func cutLast(s, sep string) (before, after string, found bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return s, "", false
	}
	return s[:i], s[i+len(sep):], true
}
