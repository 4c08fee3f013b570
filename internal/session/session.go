// Package session issues and checks the tokens that decide whether a
// caller works against the remote stores or the local archive.
package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoToken = errors.New("no session token")

// Claims are carried by every session token.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issue signs a token for userID valid for ttl.
func Issue(secret, userID, username string, ttl time.Duration) (string, time.Time, error) {
	if secret == "" {
		return "", time.Time{}, errors.New("issue session: empty secret")
	}
	now := time.Now()
	expiration := now.Add(ttl)
	claims := &Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiration),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue session: %w", err)
	}
	return signed, expiration, nil
}

// Parse verifies the signature and expiry of tokenStr.
func Parse(secret, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}

// Gate answers whether a remote session is active.
type Gate interface {
	IsSessionActive() bool
}

// TokenSource hands out the cached session token.
type TokenSource interface {
	Token() (string, error)
}

// TokenGate treats a session as active while its cached token verifies.
// Any failure to read or verify the token counts as inactive.
type TokenGate struct {
	secret string
	source TokenSource
}

func NewTokenGate(secret string, source TokenSource) *TokenGate {
	return &TokenGate{secret: secret, source: source}
}

func (g *TokenGate) IsSessionActive() bool {
	_, ok := g.claims()
	return ok
}

// Owner returns the user id of the active session.
func (g *TokenGate) Owner() (string, bool) {
	c, ok := g.claims()
	if !ok {
		return "", false
	}
	return c.UserID, true
}

func (g *TokenGate) claims() (*Claims, bool) {
	tok, err := g.source.Token()
	if err != nil || tok == "" {
		return nil, false
	}
	c, err := Parse(g.secret, tok)
	if err != nil {
		return nil, false
	}
	return c, true
}

// FileTokenSource keeps the token in a file readable only by its owner.
type FileTokenSource struct {
	Path string
}

func (f FileTokenSource) Token() (string, error) {
	b, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoToken
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}

func (f FileTokenSource) Store(token string) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(f.Path, []byte(token+"\n"), 0o600)
}

func (f FileTokenSource) Clear() error {
	err := os.Remove(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
