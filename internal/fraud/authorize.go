package fraud

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	dErrors "matchgate/pkg/domain-errors"
)

// AdminClaims are the JWT claims an admin-override token must carry.
type AdminClaims struct {
	AdminID string `json:"admin_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// Authorizer validates admin-override tokens for clearing fraud flags.
type Authorizer struct {
	signingKey []byte
}

func NewAuthorizer(signingKey string) *Authorizer {
	return &Authorizer{signingKey: []byte(signingKey)}
}

// Authorize validates the token and returns the admin identity it asserts.
// Only HS256-family tokens with role "admin" clear.
func (a *Authorizer) Authorize(tokenString string) (string, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return a.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "override token has expired")
		}
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid override token")
	}
	claims, ok := parsed.Claims.(*AdminClaims)
	if !ok || !parsed.Valid {
		return "", dErrors.New(dErrors.CodeUnauthorized, "invalid override token claims")
	}
	if claims.Role != "admin" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "override requires an admin token")
	}
	if claims.AdminID == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "override token carries no admin identity")
	}
	return claims.AdminID, nil
}
