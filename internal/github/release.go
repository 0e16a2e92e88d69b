package github

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	snailerErrors "github.com/felixaihub/snailer-dist/internal/errors"
)

// Release is the subset of the GitHub Releases API response the tooling uses.
type Release struct {
	TagName    string  `json:"tag_name"`
	HTMLURL    string  `json:"html_url"`
	Draft      bool    `json:"draft"`
	Prerelease bool    `json:"prerelease"`
	Assets     []Asset `json:"assets"`
}

// Asset is a file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	// Digest is "sha256:<hex>" when GitHub has computed it.
	Digest string `json:"digest,omitempty"`
}

// FindAsset returns the asset named name.
func (r *Release) FindAsset(name string) (Asset, bool) {
	for _, a := range r.Assets {
		if a.Name == name {
			return a, true
		}
	}
	return Asset{}, false
}

// Client queries the GitHub Releases API.
type Client struct {
	http   *http.Client
	apiURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAPIURL points the client at a different API endpoint.
func WithAPIURL(apiURL string) ClientOption {
	return func(c *Client) {
		c.apiURL = strings.TrimRight(apiURL, "/")
	}
}

// NewClient creates a Client. A nil httpClient uses NewHTTPClient("", APITimeout).
func NewClient(httpClient *http.Client, opts ...ClientOption) *Client {
	if httpClient == nil {
		httpClient = NewHTTPClient("", APITimeout)
	}
	c := &Client{http: httpClient, apiURL: DefaultAPIURL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease fetches the newest non-draft, non-prerelease release.
func (c *Client) LatestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	return c.getRelease(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.apiURL, owner, repo))
}

// ReleaseByTag fetches the release published under tag.
func (c *Client) ReleaseByTag(ctx context.Context, owner, repo, tag string) (*Release, error) {
	if err := validateRepo(owner, repo); err != nil {
		return nil, err
	}
	if tag == "" {
		return nil, fmt.Errorf("tag must not be empty")
	}
	return c.getRelease(ctx, fmt.Sprintf("%s/repos/%s/%s/releases/tags/%s", c.apiURL, owner, repo, url.PathEscape(tag)))
}

func (c *Client) getRelease(ctx context.Context, endpoint string) (*Release, error) {
	slog.Debug("querying release API", "url", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, snailerErrors.NewNetworkError(endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, snailerErrors.NewHTTPError(endpoint, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if release.TagName == "" {
		return nil, fmt.Errorf("empty tag_name in release response from %s", endpoint)
	}

	return &release, nil
}

func validateRepo(owner, repo string) error {
	if owner == "" || repo == "" {
		return fmt.Errorf("owner and repo must not be empty")
	}
	if strings.Contains(owner, "/") || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid owner %q or repo %q: must not contain '/'", owner, repo)
	}
	return nil
}
