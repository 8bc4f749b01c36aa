package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/footprintai/folderium/internal/model"
)

// HTTPClient wraps an HTTP connection to the folderium REST API
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client
func NewHTTPClient(baseURL string, token string) (*HTTPClient, error) {
	// Ensure baseURL has proper format
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	// Remove trailing slash
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Close closes the HTTP client (no-op for HTTP, kept for interface compatibility)
func (c *HTTPClient) Close() error {
	return nil
}

// doRequest performs an HTTP request with authentication
func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	// Set headers
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

// parseResponse reads and parses the response body
func parseResponse[T any](resp *http.Response) (*T, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		// Try to parse error response
		var errResp struct {
			Error string `json:"error"`
			Code  int    `json:"code"`
		}
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%s", errResp.Error)
		}
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var result T
	if err := json.Unmarshal(bodyBytes, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &result, nil
}

type appResponse struct {
	App *model.App `json:"app"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// CreateApp creates an app in the given workspace
func (c *HTTPClient) CreateApp(ctx context.Context, params model.CreateAppParams) (*model.App, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/apps", params)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}

	result, err := parseResponse[appResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to create app: %w", err)
	}
	if result.App == nil {
		return nil, fmt.Errorf("no app returned in response")
	}
	return result.App, nil
}

// GetApp fetches a single app. Returns nil without error when the app is in
// the trash.
func (c *HTTPClient) GetApp(ctx context.Context, appID string) (*model.App, error) {
	path := fmt.Sprintf("/v1/apps/%s", url.PathEscape(appID))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get app: %w", err)
	}

	result, err := parseResponse[appResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to get app: %w", err)
	}
	return result.App, nil
}

// UpdateApp applies a sparse update to an app
func (c *HTTPClient) UpdateApp(ctx context.Context, params model.UpdateAppParams) error {
	path := fmt.Sprintf("/v1/apps/%s", url.PathEscape(params.AppID))
	resp, err := c.doRequest(ctx, http.MethodPatch, path, params)
	if err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}

	if _, err := parseResponse[statusResponse](resp); err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}
	return nil
}

// MoveApp moves an app between positions in its workspace ordering
func (c *HTTPClient) MoveApp(ctx context.Context, appID string, from, to int) error {
	path := fmt.Sprintf("/v1/apps/%s/move", url.PathEscape(appID))
	resp, err := c.doRequest(ctx, http.MethodPost, path, map[string]int{
		"from": from,
		"to":   to,
	})
	if err != nil {
		return fmt.Errorf("failed to move app: %w", err)
	}

	if _, err := parseResponse[statusResponse](resp); err != nil {
		return fmt.Errorf("failed to move app: %w", err)
	}
	return nil
}

// ListWorkspaceApps lists the visible apps of a workspace in display order
func (c *HTTPClient) ListWorkspaceApps(ctx context.Context, workspaceID string) ([]model.App, error) {
	path := fmt.Sprintf("/v1/workspaces/%s/apps", url.PathEscape(workspaceID))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace apps: %w", err)
	}

	result, err := parseResponse[model.RepeatedApp](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to list workspace apps: %w", err)
	}
	return result.Items, nil
}

// ReadLocalApps fetches the raw stored revisions for the given ids, including
// trashed ones. Any missing id fails the whole call.
func (c *HTTPClient) ReadLocalApps(ctx context.Context, appIDs []string) ([]model.AppRevision, error) {
	path := "/v1/apps?ids=" + url.QueryEscape(strings.Join(appIDs, ","))
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps: %w", err)
	}

	result, err := parseResponse[struct {
		Apps []model.AppRevision `json:"apps"`
	}](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read apps: %w", err)
	}
	return result.Apps, nil
}

// AddTrash moves the given entities into the trash
func (c *HTTPClient) AddTrash(ctx context.Context, items []model.TrashRevision) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/trash", map[string]interface{}{
		"items": items,
	})
	if err != nil {
		return fmt.Errorf("failed to add trash: %w", err)
	}

	if _, err := parseResponse[statusResponse](resp); err != nil {
		return fmt.Errorf("failed to add trash: %w", err)
	}
	return nil
}

// PutbackTrash restores the given entities from the trash
func (c *HTTPClient) PutbackTrash(ctx context.Context, ids []string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/trash/putback", map[string]interface{}{
		"ids": ids,
	})
	if err != nil {
		return fmt.Errorf("failed to putback trash: %w", err)
	}

	if _, err := parseResponse[statusResponse](resp); err != nil {
		return fmt.Errorf("failed to putback trash: %w", err)
	}
	return nil
}

// DeleteTrash permanently destroys the given trashed entities
func (c *HTTPClient) DeleteTrash(ctx context.Context, ids []string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/trash", map[string]interface{}{
		"ids": ids,
	})
	if err != nil {
		return fmt.Errorf("failed to delete trash: %w", err)
	}

	if _, err := parseResponse[statusResponse](resp); err != nil {
		return fmt.Errorf("failed to delete trash: %w", err)
	}
	return nil
}
