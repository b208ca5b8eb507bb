package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v58/github"
	"golang.org/x/oauth2"

	"github.com/tognete/codi/internal/changes"
	"github.com/tognete/codi/internal/logger"
)

// GitHubService mutates and reads a single GitHub repository.
type GitHubService struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubService creates a service for repo ("owner/name") authenticated with token.
// transport may be nil.
func NewGitHubService(ctx context.Context, token, repo string, transport http.RoundTripper) (*GitHubService, error) {
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN must be set")
	}

	if transport != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Transport: transport})
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return NewGitHubServiceWithClient(github.NewClient(oauth2.NewClient(ctx, ts)), repo)
}

// NewGitHubServiceWithClient wraps an existing client.
func NewGitHubServiceWithClient(client *github.Client, repo string) (*GitHubService, error) {
	parts := strings.Split(repo, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("invalid repo format %q, expected 'owner/repo'", repo)
	}
	return &GitHubService{client: client, owner: parts[0], repo: parts[1]}, nil
}

// Name returns "github".
func (g *GitHubService) Name() string {
	return "github"
}

// Initialize is a no-op; credentials are checked on first use.
func (g *GitHubService) Initialize() error {
	return nil
}

// Repo returns "owner/name".
func (g *GitHubService) Repo() string {
	return g.owner + "/" + g.repo
}

// CreatePullRequest creates branch from the default branch, writes every file in
// fileChanges to it and opens a pull request. It returns the pull request URL.
func (g *GitHubService) CreatePullRequest(ctx context.Context, branch, title, body string, fileChanges map[string]string) (string, error) {
	repository, _, err := g.client.Repositories.Get(ctx, g.owner, g.repo)
	if err != nil {
		return "", fmt.Errorf("error creating pull request: %w", err)
	}
	base := repository.GetDefaultBranch()

	source, _, err := g.client.Repositories.GetBranch(ctx, g.owner, g.repo, base, 1)
	if err != nil {
		return "", fmt.Errorf("error creating pull request: failed to read %s: %w", base, err)
	}

	ref := &github.Reference{
		Ref:    github.String("refs/heads/" + branch),
		Object: &github.GitObject{SHA: github.String(source.GetCommit().GetSHA())},
	}
	if _, _, err := g.client.Git.CreateRef(ctx, g.owner, g.repo, ref); err != nil {
		return "", fmt.Errorf("error creating pull request: failed to create branch %s: %w", branch, err)
	}
	logger.Info("Branch created", "repo", g.Repo(), "branch", branch, "base", base)

	for _, path := range changes.SortedPaths(fileChanges) {
		if err := g.putFile(ctx, branch, path, fileChanges[path]); err != nil {
			return "", fmt.Errorf("error creating pull request: %w", err)
		}
	}

	pr, _, err := g.client.PullRequests.Create(ctx, g.owner, g.repo, &github.NewPullRequest{
		Title: github.String(title),
		Body:  github.String(body),
		Head:  github.String(branch),
		Base:  github.String(base),
	})
	if err != nil {
		return "", fmt.Errorf("error creating pull request: %w", err)
	}

	logger.Info("Pull request opened", "repo", g.Repo(), "url", pr.GetHTMLURL())
	return pr.GetHTMLURL(), nil
}

func (g *GitHubService) putFile(ctx context.Context, branch, path, content string) error {
	opts := &github.RepositoryContentFileOptions{
		Content: []byte(content),
		Branch:  github.String(branch),
	}

	existing, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, &github.RepositoryContentGetOptions{Ref: branch})
	switch {
	case err == nil && existing != nil:
		opts.Message = github.String("Update " + path)
		opts.SHA = existing.SHA
		_, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.repo, path, opts)
	case err == nil || isNotFound(err):
		opts.Message = github.String("Create " + path)
		_, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.repo, path, opts)
	}
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// GetFileContent reads path at ref. An empty ref reads the default branch.
func (g *GitHubService) GetFileContent(ctx context.Context, path, ref string) (string, error) {
	file, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, path, &github.RepositoryContentGetOptions{Ref: ref})
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	if file == nil {
		return "", fmt.Errorf("error reading file %s: is a directory", path)
	}
	content, err := file.GetContent()
	if err != nil {
		return "", fmt.Errorf("error reading file %s: %w", path, err)
	}
	return content, nil
}

// ListFiles returns the content of every file under path, recursively.
// Files that cannot be decoded are skipped.
func (g *GitHubService) ListFiles(ctx context.Context, path, ref string) (map[string]string, error) {
	opts := &github.RepositoryContentGetOptions{Ref: ref}
	files := make(map[string]string)
	queue := []string{path}

	for len(queue) > 0 {
		dir := queue[0]
		queue = queue[1:]

		file, entries, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.repo, dir, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list %q: %w", dir, err)
		}
		if file != nil {
			entries = append(entries, file)
		}

		for _, entry := range entries {
			if entry.GetType() == "dir" {
				queue = append(queue, entry.GetPath())
				continue
			}
			content, err := g.GetFileContent(ctx, entry.GetPath(), ref)
			if err != nil {
				logger.Debug("Skipping unreadable file", "path", entry.GetPath(), "error", err)
				continue
			}
			files[entry.GetPath()] = content
		}
	}
	return files, nil
}

func isNotFound(err error) bool {
	var errResp *github.ErrorResponse
	return errors.As(err, &errResp) && errResp.Response != nil && errResp.Response.StatusCode == http.StatusNotFound
}
