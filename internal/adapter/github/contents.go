// Package github fetches repository listings and file contents from the
// GitHub contents API.
package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/codecompass-ai/codecompass/internal/domain"
	"github.com/codecompass-ai/codecompass/internal/port"
)

// DefaultBaseURL is the public GitHub API endpoint.
const DefaultBaseURL = "https://api.github.com"

// ContentFetcher is a stateless wrapper over GET /repos/{owner}/{repo}/contents/{path}.
type ContentFetcher struct {
	baseURL    string
	httpClient *http.Client
}

// NewContentFetcher creates a fetcher against the given API base URL
// (empty = public GitHub).
func NewContentFetcher(baseURL string) *ContentFetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ContentFetcher{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type contentItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Type    string `json:"type"`
	Size    int64  `json:"size"`
	Content string `json:"content"`
}

// List returns the entries under path. A 404 means the path does not exist
// upstream and yields an empty listing, not an error.
func (f *ContentFetcher) List(ctx context.Context, ident domain.RepositoryIdentity, path, token string) ([]port.TreeEntry, error) {
	body, err := f.get(ctx, ident, path, token)
	if err != nil || body == nil {
		return nil, err
	}

	var items []contentItem
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode contents listing for %q: %w", path, err)
	}

	entries := make([]port.TreeEntry, 0, len(items))
	for _, item := range items {
		entries = append(entries, port.TreeEntry{
			Name: item.Name,
			Path: item.Path,
			Kind: item.Type,
			Size: item.Size,
		})
	}
	return entries, nil
}

// FileContent returns the base64-decoded content of a file. Missing or
// undecodable content yields port.ErrContentUnavailable so callers can skip
// the file without aborting the batch.
func (f *ContentFetcher) FileContent(ctx context.Context, ident domain.RepositoryIdentity, path, token string) (string, error) {
	body, err := f.get(ctx, ident, path, token)
	if err != nil {
		return "", err
	}
	if body == nil {
		return "", port.ErrContentUnavailable
	}

	var item contentItem
	if err := json.Unmarshal(body, &item); err != nil || item.Content == "" {
		return "", port.ErrContentUnavailable
	}

	// The API wraps base64 payloads across lines.
	raw := strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, item.Content)

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", port.ErrContentUnavailable
	}
	return string(decoded), nil
}

// get performs the contents request. 200 returns the body, 404 returns nil
// without error, anything else is an *port.UpstreamError.
func (f *ContentFetcher) get(ctx context.Context, ident domain.RepositoryIdentity, path, token string) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		f.baseURL, url.PathEscape(ident.Owner), url.PathEscape(ident.Name), path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if token != "" {
		req.Header.Set("Authorization", "token "+token)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("contents request for %q: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, &port.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}
