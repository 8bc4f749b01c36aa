package cloud

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

// HTTPService talks to the folder backend over its REST API.
type HTTPService struct {
	baseURL    string
	httpClient *http.Client
}

// NewHTTPService creates a cloud service client against the given base URL.
func NewHTTPService(baseURL string) (*HTTPService, error) {
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &HTTPService{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// doRequest performs an HTTP request with the caller's bearer token
func (s *HTTPService) doRequest(ctx context.Context, token, method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return resp, nil
}

// parseResponse reads and parses the response body
func parseResponse[T any](resp *http.Response) (*T, error) {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
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
	App *model.AppRevision `json:"app"`
}

// CreateApp creates the app remotely and returns the backend's revision,
// including the id the backend assigned.
func (s *HTTPService) CreateApp(ctx context.Context, token string, params model.CreateAppParams) (model.AppRevision, error) {
	resp, err := s.doRequest(ctx, token, http.MethodPost, "/v1/apps", params)
	if err != nil {
		return model.AppRevision{}, fmt.Errorf("failed to create app: %w", err)
	}

	result, err := parseResponse[appResponse](resp)
	if err != nil {
		return model.AppRevision{}, fmt.Errorf("failed to create app: %w", err)
	}
	if result.App == nil {
		return model.AppRevision{}, fmt.Errorf("no app returned in response")
	}
	return *result.App, nil
}

// ReadApp fetches the app from the backend. A nil revision with nil error
// means the backend does not expose the app to this caller.
func (s *HTTPService) ReadApp(ctx context.Context, token string, appID string) (*model.AppRevision, error) {
	path := fmt.Sprintf("/v1/apps/%s", url.PathEscape(appID))
	resp, err := s.doRequest(ctx, token, http.MethodGet, path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to read app: %w", err)
	}

	result, err := parseResponse[appResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read app: %w", err)
	}
	return result.App, nil
}

// UpdateApp applies the sparse update remotely.
func (s *HTTPService) UpdateApp(ctx context.Context, token string, params model.UpdateAppParams) error {
	path := fmt.Sprintf("/v1/apps/%s", url.PathEscape(params.AppID))
	resp, err := s.doRequest(ctx, token, http.MethodPatch, path, params)
	if err != nil {
		return fmt.Errorf("failed to update app: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("failed to update app: status %d", resp.StatusCode)
	}
	return nil
}

// DeleteApp deletes the app remotely.
func (s *HTTPService) DeleteApp(ctx context.Context, token string, appID string) error {
	path := fmt.Sprintf("/v1/apps/%s", url.PathEscape(appID))
	resp, err := s.doRequest(ctx, token, http.MethodDelete, path, nil)
	if err != nil {
		return fmt.Errorf("failed to delete app: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(bodyBytes, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("%s", errResp.Error)
		}
		return fmt.Errorf("failed to delete app: status %d", resp.StatusCode)
	}
	return nil
}
