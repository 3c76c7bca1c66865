package client

import (
	"context"
	"fmt"
)

// Capability names a permission a session may hold.
type Capability string

// CapabilityAdmin gates the inbox and project management.
const CapabilityAdmin Capability = "admin"

// AuthContext is the authorization state of one session. It is loaded once
// from the server and is the only thing gated views consult.
type AuthContext struct {
	uid   string
	email string
	caps  map[Capability]bool
}

// LoadAuthContext asks the server who the token belongs to.
func LoadAuthContext(ctx context.Context, c *Client) (*AuthContext, error) {
	s, err := c.Session(ctx)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	return NewAuthContext(s), nil
}

// NewAuthContext builds an AuthContext from a session response.
func NewAuthContext(s *SessionInfo) *AuthContext {
	a := &AuthContext{caps: map[Capability]bool{}}
	if s == nil {
		return a
	}
	a.uid, a.email = s.UID, s.Email
	if s.Admin {
		a.caps[CapabilityAdmin] = true
	}
	return a
}

// Can reports whether the session holds c. A nil context holds nothing.
func (a *AuthContext) Can(c Capability) bool {
	if a == nil {
		return false
	}
	return a.caps[c]
}

// UID is empty for an anonymous context.
func (a *AuthContext) UID() string {
	if a == nil {
		return ""
	}
	return a.uid
}

func (a *AuthContext) Email() string {
	if a == nil {
		return ""
	}
	return a.email
}
