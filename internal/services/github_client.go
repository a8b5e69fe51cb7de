package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubClientFactory builds go-github clients for a credential. An empty
// BaseURL targets api.github.com.
type GitHubClientFactory struct {
	BaseURL      *url.URL
	DefaultToken string
}

// NewGitHubClientFactory parses apiURL ("" for the public API)
func NewGitHubClientFactory(apiURL, defaultToken string) (*GitHubClientFactory, error) {
	factory := &GitHubClientFactory{DefaultToken: defaultToken}
	if apiURL == "" {
		return factory, nil
	}

	if !strings.HasSuffix(apiURL, "/") {
		apiURL += "/"
	}
	baseURL, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid GitHub API URL %q: %w", apiURL, err)
	}
	factory.BaseURL = baseURL
	return factory, nil
}

// publicHosts serve the public API and the diffs it links to
var publicHosts = []string{"github.com", "api.github.com", "patch-diff.githubusercontent.com"}

// TrustedHost reports whether host may receive the factory's credential. With
// a BaseURL only that host is trusted.
func (f *GitHubClientFactory) TrustedHost(host string) bool {
	host = strings.ToLower(host)
	if f.BaseURL != nil {
		return host == strings.ToLower(f.BaseURL.Host)
	}
	return slices.Contains(publicHosts, host)
}

// Client returns a client authenticated with token, falling back to the default token
func (f *GitHubClientFactory) Client(token string) *github.Client {
	if token == "" {
		token = f.DefaultToken
	}

	var client *github.Client
	if token == "" {
		client = github.NewClient(nil)
	} else {
		ts := oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		)
		httpClient := oauth2.NewClient(context.Background(), ts)
		httpClient.CheckRedirect = f.checkRedirect
		client = github.NewClient(httpClient)
	}

	if f.BaseURL != nil {
		client.BaseURL = f.BaseURL
	}
	return client
}

// checkRedirect keeps a credentialed client from following a redirect off the
// trusted hosts, since the oauth2 transport signs every hop
func (f *GitHubClientFactory) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	if !f.TrustedHost(req.URL.Host) {
		return fmt.Errorf("refusing redirect to untrusted host %s", req.URL.Host)
	}
	return nil
}
