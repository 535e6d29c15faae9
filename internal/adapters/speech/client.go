package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrMissingKey = errors.New("speech: missing api key")

// Client calls an OpenAI-compatible text to speech endpoint.
type Client struct {
	APIKey       string
	BaseURL      string
	Model        string
	Voice        string
	Instructions string
	HTTP         *http.Client
}

type speechRequest struct {
	Model          string `json:"model"`
	Voice          string `json:"voice"`
	Input          string `json:"input"`
	Instructions   string `json:"instructions,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// Synthesize returns text spoken as mp3.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.HTTP == nil {
		c.HTTP = &http.Client{Timeout: 60 * time.Second}
	}
	if c.APIKey == "" {
		return nil, ErrMissingKey
	}
	if text == "" {
		return nil, fmt.Errorf("speech: empty input")
	}
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}

	body, err := json.Marshal(speechRequest{
		Model:          c.Model,
		Voice:          c.Voice,
		Input:          text,
		Instructions:   c.Instructions,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/audio/speech", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("speech: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Message != "" {
			return nil, fmt.Errorf("speech: %d %s", res.StatusCode, apiErr.Error.Message)
		}
		return nil, fmt.Errorf("speech: status %d", res.StatusCode)
	}
	return io.ReadAll(res.Body)
}
