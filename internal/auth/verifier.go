// AngelaMos | 2026
// verifier.go

package auth

import (
	"context"
	"fmt"

	"github.com/angelamos/teamstation/internal/core"
	"github.com/angelamos/teamstation/internal/middleware"
)

// Verifier is the access-token check the router mounts. Signature and
// lifetime validation happen locally against the JWKS key; revocation state
// (logout blacklist, bulk-logout token version) is consulted afterwards so a
// structurally valid token can still be rejected.
type Verifier struct {
	jwt *JWTManager
	svc *Service
}

var _ middleware.TokenVerifier = (*Verifier)(nil)

func NewVerifier(jwt *JWTManager, svc *Service) *Verifier {
	return &Verifier{jwt: jwt, svc: svc}
}

func (v *Verifier) VerifyAccessToken(
	ctx context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := v.jwt.VerifyAccessToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}

	jti, _, err := v.jwt.AccessTokenID(tokenString)
	if err != nil {
		return nil, err
	}

	blacklisted, err := v.svc.IsAccessTokenBlacklisted(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if blacklisted {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	if err := v.svc.ValidateTokenVersion(
		ctx,
		claims.UserID,
		claims.TokenVersion,
	); err != nil {
		return nil, err
	}

	return claims, nil
}
