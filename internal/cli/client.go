package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/hyperjump/recall/internal/server"
)

// apiClient talks to a running recall server.
type apiClient struct {
	baseURL  string
	token    string
	adminKey string
	http     *http.Client
}

// newAPIClient reads credentials from RECALL_TOKEN and RECALL_ADMIN_KEY.
func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL:  baseURL,
		token:    os.Getenv("RECALL_TOKEN"),
		adminKey: os.Getenv("RECALL_ADMIN_KEY"),
		http:     &http.Client{Timeout: 60 * time.Second},
	}
}

// unreachableError means no server answered; callers fall back to direct access.
type unreachableError struct{ err error }

func (e *unreachableError) Error() string { return fmt.Sprintf("request failed: %v", e.err) }
func (e *unreachableError) Unwrap() error { return e.err }

func (c *apiClient) do(method, path string, query url.Values, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequest(method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	switch {
	case c.adminKey != "":
		req.Header.Set(server.AdminKeyHeader, c.adminKey)
	case c.token != "":
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &unreachableError{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, bytes.TrimSpace(b))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
