package auth

import (
	"strings"
	"time"

	"github.com/Divyaanshvats/intern-management-system/internal/domain"
)

// Identity is the caller behind a verified credential. It is not
// re-checked against the user store, so a token outlives a later
// deactivation until it expires.
type Identity struct {
	Email string
	Role  domain.Role
}

type Token struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Gate issues credentials and turns them back into identities.
type Gate struct {
	jwt *JWTer
}

func NewGate(j *JWTer) *Gate { return &Gate{jwt: j} }

func (g *Gate) Issue(email string, role domain.Role) (Token, error) {
	s, exp, err := g.jwt.Issue(email, string(role))
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: s, TokenType: "bearer", ExpiresAt: exp}, nil
}

func (g *Gate) Authenticate(credential string) (Identity, error) {
	if credential == "" {
		return Identity{}, domain.Unauthorized("Not authenticated")
	}
	c, err := g.jwt.Parse(credential)
	if err != nil {
		return Identity{}, &domain.Error{Kind: domain.KindAuth, Msg: "Invalid token", Err: err}
	}
	role := domain.Role(c.Role)
	if c.Subject == "" || !role.IsValid() {
		return Identity{}, domain.Unauthorized("Invalid token")
	}
	return Identity{Email: c.Subject, Role: role}, nil
}

// RequireRole passes id through when its role is one of roles.
func RequireRole(id Identity, roles ...domain.Role) (Identity, error) {
	for _, r := range roles {
		if id.Role == r {
			return id, nil
		}
	}
	return Identity{}, domain.Forbidden("Access forbidden")
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
