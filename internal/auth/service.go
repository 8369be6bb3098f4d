package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/2beens/sportsee/pkg"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultTTL  = 24 * time.Hour
	tokenIDSize = 18
)

// Service issues signed session tokens and revokes them on logout.
type Service struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationList
	// ability to inject random string generator and clock (for unit and dev testing)
	RandStringFunc func(s int) (string, error)
	Now            func() time.Time
}

func NewAuthService(
	secret string,
	ttl time.Duration,
	revoked RevocationList,
) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		secret:         []byte(secret),
		ttl:            ttl,
		revoked:        revoked,
		RandStringFunc: pkg.GenerateRandomString,
		Now:            time.Now,
	}
}

func (as *Service) TTL() time.Duration {
	return as.ttl
}

// Login returns a new HS256 token for the user.
func (as *Service) Login(userID string) (string, error) {
	if userID == "" {
		return "", errors.New("empty user id")
	}

	tokenID, err := as.RandStringFunc(tokenIDSize)
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	now := as.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(as.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// Logout revokes the token described by claims until its expiry.
func (as *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return ErrInvalidToken
	}

	until := as.Now().Add(as.ttl)
	if claims.ExpiresAt != nil {
		until = claims.ExpiresAt.Time
	}

	if err := as.revoked.Revoke(ctx, claims.ID, until); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}

	log.Debugf("auth service, token of user [%s] revoked", claims.UserID)
	return nil
}

func parseToken(secret []byte, rawToken string, now func() time.Time) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		rawToken,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing user or token id", ErrInvalidToken)
	}

	return claims, nil
}
