package models

import "strings"

// DefaultTokenType is used when the backend omits token_type.
const DefaultTokenType = "Bearer"

// Token is the persisted session pair.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// IsZero reports whether no session is stored.
func (t Token) IsZero() bool {
	return t.AccessToken == ""
}

// AuthorizationHeader formats the token for the Authorization header.
func (t Token) AuthorizationHeader() string {
	typ := strings.TrimSpace(t.TokenType)
	if typ == "" {
		typ = DefaultTokenType
	}
	// Backends commonly return lowercase "bearer".
	if strings.EqualFold(typ, DefaultTokenType) {
		typ = DefaultTokenType
	}
	return typ + " " + t.AccessToken
}

// Credentials is the payload for POST /auth/login.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
