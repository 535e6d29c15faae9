// Package stream talks to the hosted video/chat platform that keeps the
// user directory. Only the calls the token endpoints need are implemented.
package stream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingKey    = errors.New("stream: missing api key")
	ErrMissingSecret = errors.New("stream: missing api secret")
)

// Directory roles.
const (
	RoleUser  = "user"
	RoleGuest = "guest"
)

type Client struct {
	APIKey    string
	APISecret string
	BaseURL   string
	HTTP      *http.Client
	// TokenTTL bounds user tokens. Zero issues tokens without expiry.
	TokenTTL time.Duration

	now func() time.Time
}

type userClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type serverClaims struct {
	Server bool `json:"server"`
	jwt.RegisteredClaims
}

type user struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// RoleFor maps the caller's clinical role to a directory role. Doctors
// get full users, everyone else joins as a guest.
func RoleFor(role string) string {
	if role == "Doctor" {
		return RoleUser
	}
	return RoleGuest
}

func (c *Client) clock() time.Time {
	if c.now != nil {
		return c.now()
	}
	return time.Now()
}

// UserToken signs a client token for id with the API secret.
func (c *Client) UserToken(id string) (string, error) {
	if c.APISecret == "" {
		return "", ErrMissingSecret
	}
	now := c.clock()
	claims := userClaims{
		UserID: id,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if c.TokenTTL > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(c.TokenTTL))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.APISecret))
}

func (c *Client) serverToken() (string, error) {
	if c.APISecret == "" {
		return "", ErrMissingSecret
	}
	claims := serverClaims{
		Server:           true,
		RegisteredClaims: jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(c.clock())},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(c.APISecret))
}

// UpsertUser creates or updates id in the directory with the role that
// RoleFor gives for role.
func (c *Client) UpsertUser(ctx context.Context, id, name, role string) error {
	body := map[string]any{
		"users": map[string]user{
			id: {ID: id, Role: RoleFor(role), Name: name},
		},
	}
	return c.post(ctx, "/api/v2/users", body)
}

// DeleteUser soft-deletes id, keeping its messages so it can be restored.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	body := map[string]any{
		"user_ids": []string{id},
		"user":     "soft",
	}
	return c.post(ctx, "/api/v2/users/delete", body)
}

func (c *Client) RestoreUser(ctx context.Context, id string) error {
	return c.post(ctx, "/api/v2/users/restore", map[string]any{"user_ids": []string{id}})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if c.APIKey == "" {
		return ErrMissingKey
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://video.stream-io-api.com"
	}
	token, err := c.serverToken()
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := baseURL + path + "?" + url.Values{"api_key": {c.APIKey}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", token)
	req.Header.Set("Stream-Auth-Type", "jwt")
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("stream %s: %w", path, err)
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		var apiErr struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("stream %s: %d %s", path, res.StatusCode, apiErr.Message)
		}
		return fmt.Errorf("stream %s: status %d", path, res.StatusCode)
	}
	return nil
}
