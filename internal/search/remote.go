package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docstack/internal/model"
)

// RemoteConfig holds API settings for an external retrieval service.
type RemoteConfig struct {
	BaseURL string
	APIKey  string
}

// RemoteBackend delegates ranking to an external search service.
// The wire contract is (query, owner, session, limit) in and a ranked
// list of (content, source, size, score) out; scoring is the service's
// business.
type RemoteBackend struct {
	cfg        RemoteConfig
	httpClient *http.Client
}

func NewRemoteBackend(cfg RemoteConfig) *RemoteBackend {
	return &RemoteBackend{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (b *RemoteBackend) Search(ctx context.Context, scope model.Scope, query string, limit int) ([]Result, error) {
	reqBody := map[string]interface{}{
		"query":      query,
		"username":   scope.Owner,
		"session_id": scope.Session,
		"limit":      limit,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search request failed: %w", err)
	}

	url := strings.TrimRight(b.cfg.BaseURL, "/") + "/search"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("build search request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Results []Result `json:"results"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse search json failed: %w", err)
	}
	return parsed.Results, nil
}
