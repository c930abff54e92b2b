// SPDX-License-Identifier: MPL-2.0

package release

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/mod/semver"
)

const (
	// DefaultBaseURL is the public GitLab instance.
	DefaultBaseURL = "https://gitlab.com"

	// LinkTypePackage marks an asset link as a package.
	LinkTypePackage = "package"

	// maxResponseBytes bounds how much of an error response is kept.
	maxResponseBytes = 1 << 20
)

var (
	// ErrInvalidVersion is returned for versions that are not semantic.
	ErrInvalidVersion = errors.New("invalid release version")
	// ErrRequestFailed is the sentinel error wrapped by StatusError.
	ErrRequestFailed = errors.New("release request failed")
	// ErrMissingProject is returned when no project ID is configured.
	ErrMissingProject = errors.New("release project ID is missing")
)

type (
	// StatusError reports a response with status 400 or above. It wraps
	// ErrRequestFailed.
	StatusError struct {
		StatusCode int
		Body       string
	}

	// Link is one release asset link.
	Link struct {
		Name     string `json:"name"`
		URL      string `json:"url"`
		LinkType string `json:"link_type"`
	}

	// Assets groups the asset links of a release.
	Assets struct {
		Links []Link `json:"links"`
	}

	// Release is the body of a create-release request.
	Release struct {
		Name        string `json:"name"`
		TagName     string `json:"tag_name"`
		Ref         string `json:"ref"`
		Description string `json:"description"`
		Assets      Assets `json:"assets"`
	}

	// Created is the subset of the create-release response callers use.
	Created struct {
		Name    string `json:"name"`
		TagName string `json:"tag_name"`
		Links   struct {
			Self string `json:"self"`
		} `json:"_links"`
	}

	// Client talks to the GitLab releases API.
	Client struct {
		httpClient *http.Client
		baseURL    string
		token      string
		userAgent  string
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)
)

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("release request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("release request failed with status %d: %s", e.StatusCode, body)
}

// Unwrap returns ErrRequestFailed for errors.Is() compatibility.
func (e *StatusError) Unwrap() error { return ErrRequestFailed }

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(g *Client) {
		g.httpClient = c
	}
}

// WithBaseURL overrides the GitLab base URL, e.g. for self-hosted instances.
func WithBaseURL(base string) ClientOption {
	return func(g *Client) {
		if base != "" {
			g.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithToken sets the private token sent as a bearer token.
func WithToken(token string) ClientOption {
	return func(g *Client) {
		g.token = token
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(g *Client) {
		g.userAgent = ua
	}
}

// NewClient creates a client for DefaultBaseURL using http.DefaultClient.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient: http.DefaultClient,
		baseURL:    DefaultBaseURL,
		userAgent:  "npmpub/dev",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds the release for version. The version may carry a leading "v".
func New(version, ref, changelog string, links ...Link) (*Release, error) {
	v := strings.TrimPrefix(version, "v")
	if !semver.IsValid("v" + v) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, version)
	}
	for i := range links {
		if links[i].LinkType == "" {
			links[i].LinkType = LinkTypePackage
		}
	}
	if links == nil {
		links = []Link{}
	}
	return &Release{
		Name:        "Release v" + v,
		TagName:     "v" + v,
		Ref:         ref,
		Description: changelog,
		Assets:      Assets{Links: links},
	}, nil
}

// Endpoint returns the releases URL of project.
func (c *Client) Endpoint(project string) string {
	return c.baseURL + "/api/v4/projects/" + url.PathEscape(project) + "/releases"
}

// Create posts r to the releases of project. Any status of 400 or above is
// returned as a *StatusError carrying the response body.
func (c *Client) Create(ctx context.Context, project string, r *Release) (*Created, error) {
	if project == "" {
		return nil, ErrMissingProject
	}
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encoding release: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(project), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var created Created
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &created); err != nil {
			return nil, fmt.Errorf("decoding response: %w", err)
		}
	}
	return &created, nil
}
