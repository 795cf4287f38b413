package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySecret  = errors.New("token secret is empty")
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the identity claims this service reads from a token.
type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 identity tokens issued by the auth provider.
type TokenVerifier struct {
	secretKey []byte
	ttl       time.Duration
}

// NewTokenVerifier builds a verifier using the shared secret.
func NewTokenVerifier(secretKey string) *TokenVerifier {
	return &TokenVerifier{
		secretKey: []byte(secretKey),
		ttl:       time.Hour,
	}
}

// WithTTL sets the lifetime of tokens created by Issue.
func (v *TokenVerifier) WithTTL(ttl time.Duration) *TokenVerifier {
	if ttl > 0 {
		v.ttl = ttl
	}
	return v
}

// Issue signs a token for userID. Production tokens come from the auth
// provider; this is for local development and tests.
func (v *TokenVerifier) Issue(userID, email string) (string, error) {
	if len(v.secretKey) == 0 {
		return "", ErrEmptySecret
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses tokenString and returns the session it asserts.
func (v *TokenVerifier) Verify(tokenString string) (*Session, error) {
	if len(v.secretKey) == 0 {
		return nil, ErrEmptySecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secretKey, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{
		UserID:  claims.Subject,
		Email:   claims.Email,
		IDToken: tokenString,
	}, nil
}
