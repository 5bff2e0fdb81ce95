package credentials

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
)

var (
	ErrNoToken      = errors.New("no token available")
	ErrTokenExpired = errors.New("token expired")
)

// Role identifies which of the platform roles a credential belongs to
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleCandidate    Role = "candidate"
	RoleOrganization Role = "organization"
	RoleTherapist    Role = "therapist"
)

// Credential wraps a bearer token source for one authenticated user.
// The token itself is treated as an opaque credential; claims are only
// peeked at (unverified) for client-side routing and eager expiry checks.
type Credential struct {
	source oauth2.TokenSource
}

// NewStatic creates a credential from a raw bearer token
func NewStatic(token string) *Credential {
	return &Credential{
		source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
	}
}

// NewFromSource creates a credential from an existing token source
func NewFromSource(src oauth2.TokenSource) *Credential {
	return &Credential{source: oauth2.ReuseTokenSource(nil, src)}
}

// Token returns the current bearer token string
func (c *Credential) Token() (string, error) {
	if c == nil || c.source == nil {
		return "", ErrNoToken
	}
	tok, err := c.source.Token()
	if err != nil {
		return "", fmt.Errorf("failed to obtain token: %w", err)
	}
	if tok.AccessToken == "" {
		return "", ErrNoToken
	}
	return tok.AccessToken, nil
}

// Claims holds the subset of token claims the client inspects
type Claims struct {
	Subject   string
	Role      Role
	ExpiresAt time.Time
}

// PeekClaims decodes the token payload without verifying the signature.
// Verification belongs to the server; the client only routes on the result.
func (c *Credential) PeekClaims() (*Claims, error) {
	raw, err := c.Token()
	if err != nil {
		return nil, err
	}
	return peekClaims(raw)
}

func peekClaims(raw string) (*Claims, error) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token claims: %w", err)
	}

	out := &Claims{}
	if sub, err := claims.GetSubject(); err == nil {
		out.Subject = sub
	}
	if role, ok := claims["role"].(string); ok {
		out.Role = Role(role)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

// CheckFresh returns ErrTokenExpired if the token carries an expiry in the
// past. Tokens without an exp claim are assumed fresh.
func (c *Credential) CheckFresh(now time.Time) error {
	claims, err := c.PeekClaims()
	if err != nil {
		return err
	}
	if !claims.ExpiresAt.IsZero() && now.After(claims.ExpiresAt) {
		return ErrTokenExpired
	}
	return nil
}
