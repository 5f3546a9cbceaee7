package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"scholarship-workers/internal/common/errors"
)

// ProviderClient talks to the OIDC auth provider that issues student and
// counselor sessions. Admin calls authenticate with client credentials.
type ProviderClient struct {
	baseURL      string
	realm        string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	accessToken  string
	tokenExpiry  time.Time
}

type User struct {
	ID            string `json:"id,omitempty"`
	Email         string `json:"email"`
	FirstName     string `json:"firstName"`
	LastName      string `json:"lastName"`
	Username      string `json:"username"`
	Enabled       bool   `json:"enabled"`
	EmailVerified bool   `json:"emailVerified"`
}

type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	RefreshToken     string `json:"refresh_token"`
	Scope            string `json:"scope"`
}

// Introspection is the provider's answer for a session token.
type Introspection struct {
	Active    bool   `json:"active"`
	Subject   string `json:"sub"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	ExpiresAt int64  `json:"exp"`
	Scope     string `json:"scope"`
}

func NewProviderClient(baseURL, realm, clientID, clientSecret string) *ProviderClient {
	return &ProviderClient{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		realm:        realm,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

func (p *ProviderClient) getAccessToken(ctx context.Context) error {
	if p.tokenExpiry.After(time.Now()) && p.accessToken != "" {
		return nil
	}

	tokenURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token", p.baseURL, p.realm)

	data := url.Values{}
	data.Set("grant_type", "client_credentials")
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("provider token request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return fmt.Errorf("failed to decode token response: %w", err)
	}

	p.accessToken = tokenResp.AccessToken
	p.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)

	return nil
}

// IntrospectToken asks the provider whether a session token is still active.
func (p *ProviderClient) IntrospectToken(ctx context.Context, token string) (*Introspection, error) {
	introspectURL := fmt.Sprintf("%s/realms/%s/protocol/openid-connect/token/introspect", p.baseURL, p.realm)

	data := url.Values{}
	data.Set("token", token)
	data.Set("client_id", p.clientID)
	data.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, "POST", introspectURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create introspection request",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send introspection request",
			Details:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      "AUTH_PROVIDER_API_ERROR",
			Message:   "Auth provider error during token introspection",
			Details:   string(body),
			Retryable: p.isTransientHTTPError(resp.StatusCode),
		}
	}

	var result Introspection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode introspection response",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	return &result, nil
}

func (p *ProviderClient) GetUser(ctx context.Context, userID string) (*User, error) {
	if err := p.getAccessToken(ctx); err != nil {
		return nil, &errors.StandardError{
			Code:      "AUTH_PROVIDER_AUTH_ERROR",
			Message:   "Failed to authenticate with auth provider",
			Details:   err.Error(),
			Retryable: true,
		}
	}

	userURL := fmt.Sprintf("%s/admin/realms/%s/users/%s", p.baseURL, p.realm, url.PathEscape(userID))

	req, err := http.NewRequestWithContext(ctx, "GET", userURL, nil)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create user request",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	req.Header.Set("Authorization", "Bearer "+p.accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send user request",
			Details:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, &errors.StandardError{
			Code:      "USER_NOT_FOUND",
			Message:   "User not found",
			Details:   fmt.Sprintf("No user found with id: %s", userID),
			Retryable: false,
		}
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      "AUTH_PROVIDER_API_ERROR",
			Message:   "Auth provider error during user fetch",
			Details:   string(body),
			Retryable: p.isTransientHTTPError(resp.StatusCode),
		}
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode user response",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	return &user, nil
}

func (p *ProviderClient) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	if err := p.getAccessToken(ctx); err != nil {
		return nil, &errors.StandardError{
			Code:      "AUTH_PROVIDER_AUTH_ERROR",
			Message:   "Failed to authenticate with auth provider",
			Details:   err.Error(),
			Retryable: true,
		}
	}

	searchURL := fmt.Sprintf("%s/admin/realms/%s/users?email=%s&exact=true", p.baseURL, p.realm, url.QueryEscape(email))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "HTTP_REQUEST_ERROR",
			Message:   "Failed to create search request",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	req.Header.Set("Authorization", "Bearer "+p.accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, &errors.StandardError{
			Code:      "NETWORK_ERROR",
			Message:   "Failed to send search request",
			Details:   err.Error(),
			Retryable: true,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &errors.StandardError{
			Code:      "AUTH_PROVIDER_API_ERROR",
			Message:   "Auth provider error during user search",
			Details:   string(body),
			Retryable: p.isTransientHTTPError(resp.StatusCode),
		}
	}

	var users []User
	if err := json.NewDecoder(resp.Body).Decode(&users); err != nil {
		return nil, &errors.StandardError{
			Code:      "DESERIALIZATION_ERROR",
			Message:   "Failed to decode user search results",
			Details:   err.Error(),
			Retryable: false,
		}
	}

	if len(users) == 0 {
		return nil, &errors.StandardError{
			Code:      "USER_NOT_FOUND",
			Message:   "User not found",
			Details:   fmt.Sprintf("No user found with email: %s", email),
			Retryable: false,
		}
	}

	return &users[0], nil
}

func (p *ProviderClient) isTransientHTTPError(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
