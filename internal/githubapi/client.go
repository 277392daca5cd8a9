package githubapi

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	gh "github.com/google/go-github/v45/github"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/devbyzero/flowlens-gateway/internal/config"
	"github.com/devbyzero/flowlens-gateway/internal/domain"
)

// Client fetches file-level diff data from the origin platform's read API.
// All calls are best-effort: failures surface as an empty result, never as
// an error to the caller.
type Client struct {
	gh            *gh.Client
	logger        *zap.Logger
	timeout       time.Duration
	maxFiles      int
	maxPatchBytes int
}

// NewClient builds a client. A configured token raises rate limits via an
// oauth2 static-token transport; without one the client runs anonymously.
func NewClient(cfg config.GitHubConfig, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: cfg.FetchTimeout()}
	if cfg.Token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = cfg.FetchTimeout()
	}

	client := gh.NewClient(httpClient)
	if cfg.APIBaseURL != "" {
		if base, err := url.Parse(strings.TrimSuffix(cfg.APIBaseURL, "/") + "/"); err == nil {
			client.BaseURL = base
		} else {
			logger.Warn("invalid GITHUB_API_BASE_URL, using default", zap.Error(err))
		}
	}

	return &Client{
		gh:            client,
		logger:        logger,
		timeout:       cfg.FetchTimeout(),
		maxFiles:      cfg.MaxFiles,
		maxPatchBytes: cfg.MaxPatchBytes,
	}
}

// ListChangedFiles retrieves the file-level diff for a change request,
// skipping binary entries (no patch) and oversized patches to bound payload
// size. Any network or API error yields an empty list and a warning.
func (c *Client) ListChangedFiles(ctx context.Context, fullName string, number int) []domain.FileChange {
	owner, repo, ok := splitFullName(fullName)
	if !ok {
		c.logger.Warn("cannot parse repository full name for diff fetch", zap.String("full_name", fullName))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	files, _, err := c.gh.PullRequests.ListFiles(ctx, owner, repo, number, &gh.ListOptions{PerPage: 100})
	if err != nil {
		c.logger.Warn("diff fetch failed",
			zap.String("repository", fullName),
			zap.Int("number", number),
			zap.Error(err))
		return nil
	}

	out := make([]domain.FileChange, 0, len(files))
	for _, f := range files {
		if len(out) >= c.maxFiles {
			break
		}
		patch := f.GetPatch()
		if patch == "" && f.GetChanges() > 0 {
			// binary files report changes but carry no textual patch
			continue
		}
		if len(patch) > c.maxPatchBytes {
			continue
		}
		out = append(out, domain.FileChange{
			Filename:  f.GetFilename(),
			Status:    f.GetStatus(),
			Additions: f.GetAdditions(),
			Deletions: f.GetDeletions(),
			Changes:   f.GetChanges(),
			Patch:     patch,
		})
	}
	return out
}

func splitFullName(fullName string) (owner, repo string, ok bool) {
	parts := strings.SplitN(fullName, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
