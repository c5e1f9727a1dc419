// Package auth provides token issuance/verification and password hashing.
// Tokens are the only session state the server knows about: verification
// reconstructs the caller's identity purely from the signed claims, so no
// token table or revocation list exists.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roamio/audio-tour-api/internal/model"
)

// Verification failures. Callers map these to different HTTP statuses:
// an expired token means "log in again" (401), a malformed or tampered
// one means "discard this token" (403), so the distinction must survive
// up to the middleware.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenMalformed = errors.New("token malformed")
	ErrTokenInvalid   = errors.New("token invalid")
)

// Claims is the signed payload embedded in every access token. The
// identity fields mirror the user row at issuance time; a subscription
// change only becomes visible in tokens issued afterwards.
type Claims struct {
	UserID           uint64 `json:"uid"`
	Email            string `json:"email"`
	IsPremium        bool   `json:"is_premium"`
	SubscriptionType string `json:"subscription_type"`
	jwt.RegisteredClaims
}

// Issue builds and signs an HS256 token for u, valid for ttl from now.
// It returns the serialized token and its expiry.
func Issue(secret string, u model.User, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := Claims{
		UserID:           u.ID,
		Email:            u.Email,
		IsPremium:        u.IsPremium,
		SubscriptionType: u.SubscriptionType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Verify parses and validates raw against secret and the current time.
// On success the embedded claims are returned unchanged. Failures are
// collapsed into the three sentinel errors above; expiry is checked by
// the parser only after the signature validates, so a tampered token can
// never surface as ErrTokenExpired.
func Verify(secret, raw string) (*Claims, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
