package vcs

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"resty.dev/v3"
)

const (
	defaultGitHubAPI = "https://api.github.com"
	filesPerPage     = 100
	// GitHub stops listing pull request files after 3000 entries.
	maxFilesPages = 30
)

// GitHub lists pull request files through the GitHub REST API.
type GitHub struct {
	client *resty.Client
}

// NewGitHub creates a client for apiURL (api.github.com when empty). The
// token is optional.
func NewGitHub(apiURL, token string) *GitHub {
	if apiURL == "" {
		apiURL = defaultGitHubAPI
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(apiURL, "/")).
		SetTimeout(60*time.Second).
		SetHeader("Accept", "application/vnd.github+json")
	if token != "" {
		client.SetAuthToken(token)
	}
	return &GitHub{client: client}
}

type pullRequestFile struct {
	Filename string `json:"filename"`
}

// PullRequestFiles lists the files changed by pull request number of the
// repository at repoURL (e.g. https://github.com/owner/name).
func (g *GitHub) PullRequestFiles(ctx context.Context, repoURL string, number int) ([]string, error) {
	slug, err := repoSlug(repoURL)
	if err != nil {
		return nil, err
	}

	var files []string
	for page := 1; page <= maxFilesPages; page++ {
		var batch []pullRequestFile
		resp, err := g.client.R().
			SetContext(ctx).
			SetPathParam("number", strconv.Itoa(number)).
			SetQueryParam("per_page", strconv.Itoa(filesPerPage)).
			SetQueryParam("page", strconv.Itoa(page)).
			SetResult(&batch).
			Get("/repos/" + slug + "/pulls/{number}/files")
		if err != nil {
			return nil, fmt.Errorf("listing files of %s#%d: %w", slug, number, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("listing files of %s#%d: unexpected status %s", slug, number, resp.Status())
		}
		for _, f := range batch {
			files = append(files, f.Filename)
		}
		if len(batch) < filesPerPage {
			break
		}
	}
	return files, nil
}

// Close releases the underlying HTTP client.
func (g *GitHub) Close() error {
	return g.client.Close()
}

// repoSlug turns https://github.com/owner/name(.git) into owner/name.
func repoSlug(repoURL string) (string, error) {
	s := strings.TrimSuffix(strings.TrimSuffix(repoURL, "/"), ".git")
	for _, prefix := range []string{"https://github.com/", "http://github.com/", "git@github.com:"} {
		if strings.HasPrefix(s, prefix) {
			slug := strings.TrimPrefix(s, prefix)
			if strings.Count(slug, "/") == 1 && !strings.HasPrefix(slug, "/") && !strings.HasSuffix(slug, "/") {
				return slug, nil
			}
		}
	}
	return "", fmt.Errorf("not a GitHub repository URL: %q", repoURL)
}
