package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// defaultBaseURL targets the OpenAI API; any compatible endpoint works.
const defaultBaseURL = "https://api.openai.com/v1"

// Message is one chat turn sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// APIError is a structured error returned by the model service. It carries
// the provider's param/code fields so callers can detect capability problems
// without parsing prose.
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	Param      string `json:"param"`
	Code       string `json:"code"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error (%s, status %d): %s", e.Type, e.StatusCode, e.Message)
}

// Client calls an OpenAI-compatible chat-completions endpoint.
type Client struct {
	APIKey     string
	Model      string // default model when a call does not override it
	BaseURL    string
	HTTPClient *http.Client
	Stats      *Stats // optional; records successful call durations
}

// NewClient builds a client for the given key and default model. An empty
// baseURL falls back to the OpenAI endpoint.
func NewClient(apiKey, model, baseURL string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("llm: api key is empty")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		APIKey:     apiKey,
		Model:      model,
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 120 * time.Second},
	}, nil
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *APIError `json:"error,omitempty"`
}

// Chat sends messages to the model and returns the assistant's text. A nil
// temperature is omitted from the request entirely. An empty model uses the
// client default.
//
// Some models reject the temperature parameter outright. When the service
// reports that specific condition, the call is retried exactly once with the
// parameter dropped; a second failure propagates unchanged. Every other error
// propagates immediately.
func (c *Client) Chat(ctx context.Context, model string, msgs []Message, temperature *float64) (string, error) {
	if model == "" {
		model = c.Model
	}

	text, err := c.do(ctx, chatRequest{Model: model, Messages: msgs, Temperature: temperature})
	if err == nil {
		return text, nil
	}
	if temperature != nil && isTemperatureUnsupported(err) {
		log.Debug().Str("model", model).Msg("model rejected temperature, retrying without it")
		return c.do(ctx, chatRequest{Model: model, Messages: msgs})
	}
	return "", err
}

// do performs one chat-completions round trip, recording its duration in the
// stats collector on success.
func (c *Client) do(ctx context.Context, reqBody chatRequest) (string, error) {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("parsing response (status %d): %w", resp.StatusCode, err)
	}
	if parsed.Error != nil {
		parsed.Error.StatusCode = resp.StatusCode
		return "", parsed.Error
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("empty response from llm")
	}

	elapsed := time.Since(start)
	if c.Stats != nil {
		c.Stats.Record(elapsed)
	}
	log.Debug().Str("model", reqBody.Model).Dur("elapsed", elapsed).Msg("llm request complete")

	return parsed.Choices[0].Message.Content, nil
}

// isTemperatureUnsupported reports whether err says the model cannot accept
// the temperature parameter. The structured param/code fields are checked
// first; message matching remains as a fallback for providers that omit them.
func isTemperatureUnsupported(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Param == "temperature" {
			return true
		}
		if (apiErr.Code == "unsupported_value" || apiErr.Code == "unsupported_parameter") &&
			strings.Contains(strings.ToLower(apiErr.Message), "temperature") {
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "temperature")
}
