// Package github talks to GitHub Releases with optional token authentication.
//
// Requests to GitHub hosts carry an Authorization header when a token is
// configured, which raises the API rate limit and allows private repositories.
package github

import (
	"net/http"
	"strings"
	"time"
)

const (
	// APITimeout bounds release API calls. Asset downloads have no overall
	// timeout since archives can be large.
	APITimeout = 30 * time.Second

	// DefaultAPIURL is the public GitHub REST endpoint.
	DefaultAPIURL = "https://api.github.com"

	hostGitHub              = "github.com"
	hostGitHubAPI           = "api.github.com"
	suffixGitHub            = ".github.com"
	suffixGitHubusercontent = ".githubusercontent.com"
)

// NewHTTPClient creates an http.Client that adds a Bearer token to requests
// for GitHub hosts. A zero timeout means no overall timeout.
func NewHTTPClient(token string, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &tokenTransport{
			token: token,
			base:  http.DefaultTransport,
		},
	}
}

type tokenTransport struct {
	token string
	base  http.RoundTripper
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.token != "" && isGitHubHost(req.URL.Hostname()) {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
	return t.base.RoundTrip(req)
}

// isGitHubHost matches github.com, api.github.com and the asset CDN hosts
// release downloads redirect to.
func isGitHubHost(host string) bool {
	host = strings.ToLower(host)
	switch {
	case host == hostGitHub, host == hostGitHubAPI:
		return true
	case strings.HasSuffix(host, suffixGitHub), strings.HasSuffix(host, suffixGitHubusercontent):
		return true
	default:
		return false
	}
}
