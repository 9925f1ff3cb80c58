// Package auth issues and verifies the signed session token carried in the
// crew session cookie.
package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	CookieName = "tackboard_session"
	TokenTTL   = 7 * 24 * time.Hour
)

const (
	RoleCaptain     = "captain"
	RoleContributor = "contributor"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the signed payload of a session token. UserID and UserName are
// empty for the shared captain login.
type Claims struct {
	Role     string `json:"role"`
	UserID   string `json:"userId,omitempty"`
	UserName string `json:"userName,omitempty"`
	jwt.RegisteredClaims
}

func IssueToken(secret []byte, role, userID, userName string) (string, error) {
	now := time.Now()
	claims := Claims{
		Role:     role,
		UserID:   userID,
		UserName: userName,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ParseToken verifies signature and expiry. Every failure mode collapses to
// ErrInvalidToken so callers treat bad tokens exactly like missing ones.
func ParseToken(secret []byte, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || claims.Role == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ClaimsFromRequest reads the session cookie. A missing, malformed or expired
// token yields nil: the request proceeds as unauthenticated.
func ClaimsFromRequest(r *http.Request, secret []byte) *Claims {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	claims, err := ParseToken(secret, cookie.Value)
	if err != nil {
		return nil
	}
	return claims
}

// ClearSessionCookie expires the session cookie immediately.
func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetSessionCookie writes the token cookie with an expiry matching the token.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
