package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a token pair and persists it.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (models.Token, error) {
	var resp loginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", creds, &resp, false); err != nil {
		return models.Token{}, err
	}
	if resp.AccessToken == "" {
		return models.Token{}, fmt.Errorf("login response did not include an access token")
	}

	token := models.Token{AccessToken: resp.AccessToken, TokenType: resp.TokenType}
	if token.TokenType == "" {
		token.TokenType = models.DefaultTokenType
	}
	if err := c.tokens.Save(ctx, token); err != nil {
		return models.Token{}, fmt.Errorf("failed to save session: %w", err)
	}
	return token, nil
}

// Logout clears the stored session. The backend keeps no server-side state
// for bearer tokens.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.tokens.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
