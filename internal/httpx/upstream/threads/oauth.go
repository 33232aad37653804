package threads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scopes requested at login
var Scopes = []string{
	"threads_basic",
	"threads_content_publish",
	"threads_manage_insights",
	"threads_manage_replies",
	"threads_read_replies",
	"threads_keyword_search",
	"threads_manage_mentions",
}

// ErrMissingCode is returned when the callback carries no authorization code
var ErrMissingCode = errors.New("authorization code is required")

// OAuthConfig identifies the app during the authorization code flow
type OAuthConfig struct {
	AppID       string
	AppSecret   string
	RedirectURI string
}

// Token is the result of a code exchange
type Token struct {
	AccessToken string      `json:"access_token"`
	UserID      json.Number `json:"user_id"`
}

// AuthorizeURL returns the consent page URL the user is redirected to
func (c *Client) AuthorizeURL(cfg OAuthConfig) (string, error) {
	params := url.Values{}
	params.Set("scope", strings.Join(Scopes, ","))
	params.Set("client_id", cfg.AppID)
	params.Set("redirect_uri", cfg.RedirectURI)
	params.Set("response_type", "code")

	return BuildURL(c.authBaseURL, "oauth/authorize", params, "")
}

// ExchangeCode trades an authorization code for an access token
func (c *Client) ExchangeCode(ctx context.Context, cfg OAuthConfig, code string) (Token, error) {
	if code == "" {
		return Token{}, ErrMissingCode
	}

	form := map[string]string{
		"client_id":     cfg.AppID,
		"client_secret": cfg.AppSecret,
		"grant_type":    "authorization_code",
		"redirect_uri":  cfg.RedirectURI,
		"code":          code,
	}

	var out Token
	if err := c.postForm(ctx, "oauth/access_token", form, &out); err != nil {
		return Token{}, fmt.Errorf("exchanging code: %w", err)
	}
	return out, nil
}
