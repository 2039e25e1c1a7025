package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

// Claims are the parts of the access token the client cares about. The token
// is issued and verified by the backend; the client only reads it.
type Claims struct {
	Subject   string
	Role      string
	TenantID  string
	IssuedAt  time.Time
	ExpiresAt time.Time // zero when the token carries no exp claim
}

// Inspect decodes an access token without verifying its signature
func Inspect(accessToken string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, mapClaims); err != nil {
		return Claims{}, errors.Wrap(err, "[Inspect] malformed access token")
	}

	var claims Claims
	claims.Subject, _ = mapClaims.GetSubject()
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		claims.ExpiresAt = exp.Time
	}
	if iat, err := mapClaims.GetIssuedAt(); err == nil && iat != nil {
		claims.IssuedAt = iat.Time
	}
	claims.Role, _ = mapClaims["role"].(string)
	claims.TenantID, _ = mapClaims["tenantId"].(string)
	return claims, nil
}

// Expired reports whether the token's exp is at or before now
func (c Claims) Expired(now time.Time) bool {
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}
