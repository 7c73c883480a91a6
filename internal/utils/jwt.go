package utils // package utils provides helpers for token creation and hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionToken is a signed HS256 JWT carrying the user's id (sub) and issue
// time (iat). The token is the only credential; nothing about the session is
// stored server-side, so staleness is detected by comparing iat against the
// user's password-change timestamp on every protected request.
type SessionToken struct {
	Token string    // serialized JWT
	Exp   time.Time // UTC expiration time
}

// ErrTokenExpired and ErrTokenInvalid classify verification failures so the
// boundary can answer with distinct messages.
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// NewSessionToken signs a session JWT for a user. TTL is measured in days.
func NewSessionToken(secret string, userID uint64, ttlDays int) (SessionToken, error) {
	now := time.Now().UTC()
	exp := now.Add(time.Duration(ttlDays) * 24 * time.Hour)
	claims := jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": exp.Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, Exp: exp}, nil
}

// ParseSessionToken verifies signature and expiry and extracts the subject
// and issue time. Expired tokens return ErrTokenExpired; every other failure
// returns ErrTokenInvalid.
func ParseSessionToken(secret, raw string) (userID uint64, issuedAt time.Time, err error) {
	tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, time.Time{}, ErrTokenExpired
		}
		return 0, time.Time{}, ErrTokenInvalid
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok || !tok.Valid {
		return 0, time.Time{}, ErrTokenInvalid
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, time.Time{}, ErrTokenInvalid
	}
	iat, ok := claims["iat"].(float64)
	if !ok {
		return 0, time.Time{}, ErrTokenInvalid
	}
	return uint64(sub), time.Unix(int64(iat), 0).UTC(), nil
}

// ResetToken is a high-entropy password-reset token. Raw is mailed to the
// user; only the SHA-256 hash of Raw is ever persisted, alongside Exp.
type ResetToken struct {
	Raw string
	Exp time.Time
}

// ResetTokenTTL bounds how long a reset token stays redeemable.
const ResetTokenTTL = 10 * time.Minute

// NewResetToken returns a random 32-byte hex token valid for ResetTokenTTL.
func NewResetToken() (ResetToken, error) {
	raw, err := randomHex(32) // 32 bytes -> 64 hex chars
	if err != nil {
		return ResetToken{}, err
	}
	return ResetToken{
		Raw: raw,
		Exp: time.Now().UTC().Add(ResetTokenTTL),
	}, nil
}

// HashResetRaw returns the SHA-256 hash of the raw reset token as a hex
// string. Storing only the hash keeps a leaked database row from being
// redeemable.
func HashResetRaw(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// randomHex returns a hex-encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
