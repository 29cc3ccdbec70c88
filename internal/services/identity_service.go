package services

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// ErrInvalidIdentity is returned for bearer tokens that fail validation.
var ErrInvalidIdentity = errors.New("invalid identity token")

// IdentityService mints and validates the bearer tokens the bot relay
// attaches to admin requests. The subject is the platform user id.
type IdentityService struct {
	secret     []byte
	tokenDurat time.Duration
}

// NewIdentityService creates a new IdentityService.
func NewIdentityService(secret string, tokenDuration time.Duration) *IdentityService {
	return &IdentityService{
		secret:     []byte(secret),
		tokenDurat: tokenDuration,
	}
}

// Issue signs a token for userID.
func (s *IdentityService) Issue(userID int64) (string, error) {
	if len(s.secret) == 0 {
		return "", fmt.Errorf("%w: no identity secret configured", ErrInvalidIdentity)
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.tokenDurat).Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// Validate parses tokenString and returns the user id it was issued for.
func (s *IdentityService) Validate(tokenString string) (int64, error) {
	if len(s.secret) == 0 {
		return 0, fmt.Errorf("%w: no identity secret configured", ErrInvalidIdentity)
	}
	claims := &jwt.StandardClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return 0, fmt.Errorf("%w: %v", ErrInvalidIdentity, err)
	}
	if !token.Valid {
		return 0, ErrInvalidIdentity
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidIdentity, claims.Subject)
	}
	return userID, nil
}
