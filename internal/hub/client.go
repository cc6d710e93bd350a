package hub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cloudposture/findingsman/internal/finding"
)

type searchRequest struct {
	Filters    QueryFilters `json:"Filters,omitempty"`
	NextToken  string       `json:"NextToken,omitempty"`
	MaxResults int          `json:"MaxResults,omitempty"`
}

type updateRequest struct {
	Finding finding.Identifier `json:"Finding"`
	Update  FindingUpdate      `json:"Update"`
}

// HTTPClient talks to the finding store over its JSON API.
type HTTPClient struct {
	BaseURL    string
	APIToken   string
	HTTPClient *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a hub client for the given endpoint.
func NewHTTPClient(baseURL, apiToken string) *HTTPClient {
	return &HTTPClient{
		BaseURL:  baseURL,
		APIToken: apiToken,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// GetFindings fetches one page of findings matching the query fragment.
func (c *HTTPClient) GetFindings(ctx context.Context, query QueryFilters, nextToken string, pageSize int) (*FindingsPage, error) {
	reqBody := searchRequest{Filters: query, NextToken: nextToken, MaxResults: pageSize}

	var page FindingsPage
	if err := c.post(ctx, "/v1/findings/search", reqBody, &page); err != nil {
		return nil, fmt.Errorf("search findings: %w", err)
	}
	return &page, nil
}

// UpdateFinding applies the update to one finding by identifier.
func (c *HTTPClient) UpdateFinding(ctx context.Context, id finding.Identifier, update FindingUpdate) error {
	reqBody := updateRequest{Finding: id, Update: update}

	if err := c.post(ctx, "/v1/findings/update", reqBody, nil); err != nil {
		return fmt.Errorf("update finding %q: %w", id.ID, err)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, reqBody, respBody any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBytes, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Body: string(respBytes)}
	}

	if respBody == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
