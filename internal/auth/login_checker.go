package auth

import (
	"context"
	"fmt"
	"time"
)

// LoginChecker verifies bearer tokens issued by Service.
type LoginChecker struct {
	secret  []byte
	revoked RevocationList
	Now     func() time.Time
}

func NewLoginChecker(secret string, revoked RevocationList) *LoginChecker {
	return &LoginChecker{
		secret:  []byte(secret),
		revoked: revoked,
		Now:     time.Now,
	}
}

func (lc *LoginChecker) Check(ctx context.Context, token string) (*Claims, error) {
	claims, err := parseToken(lc.secret, token, lc.Now)
	if err != nil {
		return nil, err
	}

	revoked, err := lc.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check revoked: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}
