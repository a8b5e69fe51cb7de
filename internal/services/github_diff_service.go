package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/alimgiray/gitlucky/internal/diff"
)

// ErrUntrustedDiffURL is returned for diff URLs outside the configured GitHub host
var ErrUntrustedDiffURL = errors.New("diff url is not on a trusted GitHub host")

// GitHubDiffService downloads pull request diffs
type GitHubDiffService struct {
	clients *GitHubClientFactory
}

func NewGitHubDiffService(clients *GitHubClientFactory) *GitHubDiffService {
	return &GitHubDiffService{clients: clients}
}

// Fetch downloads the raw diff text behind diffURL. Only trusted GitHub hosts
// are contacted since the request carries the configured token.
func (s *GitHubDiffService) Fetch(ctx context.Context, diffURL string) (string, error) {
	u, err := url.Parse(diffURL)
	if err != nil || (u.Scheme != "https" && u.Scheme != "http") {
		return "", fmt.Errorf("%w: %q", ErrUntrustedDiffURL, diffURL)
	}
	if !s.clients.TrustedHost(u.Host) {
		return "", fmt.Errorf("%w: %s", ErrUntrustedDiffURL, u.Host)
	}

	client := s.clients.Client("")

	req, err := client.NewRequest("GET", diffURL, nil)
	if err != nil {
		return "", fmt.Errorf("build diff request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3.diff")

	var body strings.Builder
	if _, err := client.Do(ctx, req, &body); err != nil {
		return "", fmt.Errorf("fetch diff %s: %w", diffURL, err)
	}
	return body.String(), nil
}

// FetchDocument downloads and parses the diff behind diffURL
func FetchDocument(ctx context.Context, fetcher DiffFetcher, diffURL string) (*diff.Document, error) {
	text, err := fetcher.Fetch(ctx, diffURL)
	if err != nil {
		return nil, err
	}
	return diff.Parse(text)
}
