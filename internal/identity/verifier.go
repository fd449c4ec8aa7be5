// Package identity verifies the bearer tokens that accompany booking
// requests. Tokens are issued by an upstream provider; this module only
// checks the signature and extracts the caller's identity, it never signs.
package identity

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"

	"github.com/Mikkung/MeetingRoom-Proj/internal/booking"
)

// ErrInvalidToken covers every verification failure: missing header, bad
// signature, expired or malformed claims. Callers treat it as
// unauthenticated without distinguishing the cause.
var ErrInvalidToken = errors.New("identity: invalid token")

const (
	keySalt = "meetingroom-identity"
	keyInfo = "token-hmac"
	keySize = 32
)

// DeriveKey stretches the configured master secret into the HMAC signing
// key. Issuer and verifier must derive with the same salt and info strings.
func DeriveKey(secret string) ([]byte, error) {
	if secret == "" {
		return nil, fmt.Errorf("identity secret is empty")
	}
	reader := hkdf.New(sha256.New, []byte(secret), []byte(keySalt), []byte(keyInfo))
	key := make([]byte, keySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive token key: %w", err)
	}
	return key, nil
}

// Claims is the JWT payload this module understands. The subject claim
// carries the user id; an absent role means a regular user.
type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Verifier checks bearer tokens signed with HMAC-SHA256.
type Verifier struct {
	key []byte
	now func() time.Time
}

// NewVerifier derives the signing key from the master secret. A nil clock
// falls back to time.Now.
func NewVerifier(secret string, now func() time.Time) (*Verifier, error) {
	key, err := DeriveKey(secret)
	if err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{key: key, now: now}, nil
}

// Verify parses and validates a raw token string and returns the identity it
// carries.
func (v *Verifier) Verify(tokenString string) (booking.Identity, error) {
	if v == nil {
		return booking.Identity{}, fmt.Errorf("Verifier is nil")
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.key, nil
	}, jwt.WithTimeFunc(v.now))
	if err != nil {
		return booking.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return booking.Identity{}, ErrInvalidToken
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return booking.Identity{}, fmt.Errorf("%w: subject claim is empty", ErrInvalidToken)
	}

	role := booking.RoleUser
	if claims.Role != "" {
		role, err = booking.ParseRole(claims.Role)
		if err != nil {
			return booking.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
	}

	return booking.Identity{
		UserID: userID,
		Email:  claims.Email,
		Role:   role,
	}, nil
}

// FromRequest extracts and verifies the bearer token on the request.
func (v *Verifier) FromRequest(r *http.Request) (booking.Identity, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return booking.Identity{}, fmt.Errorf("%w: missing authorization header", ErrInvalidToken)
	}

	tokenString := strings.TrimPrefix(header, "Bearer ")
	if tokenString == header {
		return booking.Identity{}, fmt.Errorf("%w: authorization header is not a bearer token", ErrInvalidToken)
	}

	return v.Verify(strings.TrimSpace(tokenString))
}
