package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
	ErrExpiredCredential = errors.New("credential has expired")
)

// Verifier validates an opaque bearer credential and resolves it to a
// participant id. Credential issuance and rotation live outside this
// service.
type Verifier interface {
	Verify(ctx context.Context, credential string) (participantID string, err error)
}

// Claims represents the JWT claims this service understands.
type Claims struct {
	jwt.RegisteredClaims
	ParticipantID string `json:"participant_id"`
}

// JWTVerifier validates HS256-signed bearer tokens.
type JWTVerifier struct {
	secret []byte
	issuer string
}

// NewJWTVerifier creates a verifier for tokens signed with the shared secret.
func NewJWTVerifier(secret, issuer string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret), issuer: issuer}
}

// Verify parses and validates the credential. The participant id is taken
// from the participant_id claim, falling back to the registered subject.
func (v *JWTVerifier) Verify(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrMissingCredential
	}

	token, err := jwt.ParseWithClaims(credential, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidCredential
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredCredential
		}
		return "", ErrInvalidCredential
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", ErrInvalidCredential
	}

	id := claims.ParticipantID
	if id == "" {
		id = claims.Subject
	}
	if id == "" {
		return "", ErrInvalidCredential
	}

	return id, nil
}

// Issue signs a credential for the participant. Used by tooling and tests;
// the production issuer is the application's auth backend.
func (v *JWTVerifier) Issue(participantID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   participantID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		ParticipantID: participantID,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
