// Package authn is the ambient bearer-token auth layer the front door
// uses to authenticate a caller before it reaches control/builder/query,
// simplified to this service's single-process model: there is no
// cluster, no per-bucket ACL list, and no roles — a valid, unexpired
// token identifies a caller and that's the whole authorization model.
package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrNoPermissions = errors.New("insufficient permissions")
	ErrInvalidToken  = errors.New("invalid token")
	ErrNoToken       = errors.New("token required")
	ErrTokenExpired  = errors.New("token expired")
)

// Token is the decoded claim set carried by a bearer token.
type Token struct {
	Subject string    `json:"sub"`
	Expires time.Time `json:"expires"`
}

// IssueToken signs a new bearer token for subject, valid for ttl.
func IssueToken(subject, secret string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":     subject,
		"expires": time.Now().Add(ttl),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// DecryptToken verifies tokenStr's HMAC signature against secret and
// returns its claims, rejecting an expired or malformed token.
func DecryptToken(tokenStr, secret string) (*Token, error) {
	if tokenStr == "" {
		return nil, ErrNoToken
	}
	parsed, err := jwt.Parse(tokenStr, func(tk *jwt.Token) (interface{}, error) {
		if _, ok := tk.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", tk.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	sub, _ := claims["sub"].(string)
	tk := &Token{Subject: sub}
	switch exp := claims["expires"].(type) {
	case string:
		t, err := time.Parse(time.RFC3339, exp)
		if err != nil {
			return nil, ErrInvalidToken
		}
		tk.Expires = t
	default:
		return nil, ErrInvalidToken
	}

	if tk.Expires.Before(time.Now()) {
		return nil, ErrTokenExpired
	}
	return tk, nil
}
