package portal

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is what the client can learn from a bearer token without
// verifying its signature. Opaque tokens yield a zero TokenInfo.
type TokenInfo struct {
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token carries an expiry before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken reads the subject and expiry claims of a JWT. The signature
// is the backend's business; a token that is not a JWT is not an error.
func InspectToken(raw string) TokenInfo {
	raw = strings.TrimSpace(strings.TrimPrefix(raw, "Bearer "))
	if strings.Count(raw, ".") != 2 {
		return TokenInfo{}
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}
	}

	var info TokenInfo
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		info.ExpiresAt = exp.Time
	}
	for _, name := range []string{"sub", "userId", "id"} {
		if s := claimString(claims[name]); s != "" {
			info.Subject = s
			break
		}
	}
	return info
}

func claimString(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprint(typed)
	}
}
