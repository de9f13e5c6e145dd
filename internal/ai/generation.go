package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// GenerationConfig holds API settings for an OpenAI-compatible text
// generation endpoint.
type GenerationConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
}

// Configured reports whether the config points at a usable endpoint.
func (c GenerationConfig) Configured() bool {
	return c.BaseURL != "" && c.Model != ""
}

type GenerationClient struct {
	httpClient *http.Client
}

func NewGenerationClient() *GenerationClient {
	return &GenerationClient{
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// Complete sends the prompt and returns the generated text. The
// endpoint is a black box: it returns text or fails.
func (c *GenerationClient) Complete(ctx context.Context, cfg GenerationConfig, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"model": cfg.Model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": cfg.Temperature,
		"stream":      false,
	}
	if cfg.MaxTokens > 0 {
		reqBody["max_tokens"] = cfg.MaxTokens
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal generation request failed: %w", err)
	}

	url := strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build generation request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("generation request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read generation response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("generation response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse generation json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty generation choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
