package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultGitHubHost is the public GitHub API
const DefaultGitHubHost = "https://api.github.com"

// GitHub implements Backend over the GitHub REST API v3
type GitHub struct {
	client        *Client
	baseURL       string
	defaultBranch string
}

// NewGitHub creates a GitHub backend for owner/repo. An empty host selects
// the public API.
func NewGitHub(client *Client, host, owner, repo, defaultBranch string) *GitHub {
	if host == "" {
		host = DefaultGitHubHost
	}
	return &GitHub{
		client:        client,
		baseURL:       fmt.Sprintf("%s/repos/%s/%s", strings.TrimSuffix(host, "/"), owner, repo),
		defaultBranch: defaultBranch,
	}
}

type githubContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Sha      string `json:"sha"`
}

type githubBranch struct {
	Commit struct {
		Sha string `json:"sha"`
	} `json:"commit"`
}

type githubPullRequest struct {
	Number int64 `json:"number"`
}

func (g *GitHub) DefaultBranch() string   { return g.defaultBranch }
func (g *GitHub) ContentEncoding() string { return "base64" }

func (g *GitHub) GetFile(ctx context.Context, token, path, ref string) (*File, error) {
	var content githubContent
	err := g.client.do(ctx, request{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/contents/%s?ref=%s", g.baseURL, path, ref),
		auth:   githubAuth(token),
		out:    &content,
	})
	if err != nil {
		return nil, err
	}

	// files over 1 MB come back without inline content
	if content.Encoding == "none" {
		return g.getBlob(ctx, token, content.Sha)
	}

	return &File{Content: content.Content, Encoding: content.Encoding, Revision: content.Sha}, nil
}

// getBlob reads a file through the git data API, which serves blobs up to
// 100 MB. The blob sha doubles as the contents revision.
func (g *GitHub) getBlob(ctx context.Context, token, sha string) (*File, error) {
	var blob githubContent
	err := g.client.do(ctx, request{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/git/blobs/%s", g.baseURL, sha),
		auth:   githubAuth(token),
		out:    &blob,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s: %w", sha, err)
	}

	return &File{Content: blob.Content, Encoding: blob.Encoding, Revision: sha}, nil
}

func (g *GitHub) CreateFile(ctx context.Context, token, path, branch, content, message string) error {
	return g.commitOnNewBranch(ctx, token, path, branch, content, message, "")
}

func (g *GitHub) UpdateFile(ctx context.Context, token, path, branch, content, message, revision string) error {
	return g.commitOnNewBranch(ctx, token, path, branch, content, message, revision)
}

// commitOnNewBranch branches off the tip of the default branch, then
// commits the file there. GitHub has no single call for both.
func (g *GitHub) commitOnNewBranch(ctx context.Context, token, path, branch, content, message, sha string) error {
	var tip githubBranch
	err := g.client.do(ctx, request{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/branches/%s", g.baseURL, g.defaultBranch),
		auth:   githubAuth(token),
		out:    &tip,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve %s: %w", g.defaultBranch, err)
	}

	err = g.client.do(ctx, request{
		method: http.MethodPost,
		url:    g.baseURL + "/git/refs",
		auth:   githubAuth(token),
		body: map[string]string{
			"ref": "refs/heads/" + branch,
			"sha": tip.Commit.Sha,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create branch %s: %w", branch, err)
	}

	body := map[string]string{
		"message": message,
		"content": content,
		"branch":  branch,
	}
	if sha != "" {
		body["sha"] = sha
	}

	err = g.client.do(ctx, request{
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/contents/%s", g.baseURL, path),
		auth:   githubAuth(token),
		body:   body,
	})
	if err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

func (g *GitHub) DeleteBranch(ctx context.Context, token, branch string) error {
	return g.client.do(ctx, request{
		method: http.MethodDelete,
		url:    fmt.Sprintf("%s/git/refs/heads/%s", g.baseURL, branch),
		auth:   githubAuth(token),
	})
}

func (g *GitHub) CreateMergeRequest(ctx context.Context, token, title, head, base string) (int64, error) {
	var pr githubPullRequest
	err := g.client.do(ctx, request{
		method: http.MethodPost,
		url:    g.baseURL + "/pulls",
		auth:   githubAuth(token),
		body: map[string]string{
			"title": title,
			"head":  head,
			"base":  base,
		},
		out: &pr,
	})
	if err != nil {
		return 0, err
	}
	return pr.Number, nil
}

func (g *GitHub) MergeMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/pulls/%d/merge", g.baseURL, id),
		auth:   githubAuth(token),
		body:   map[string]string{},
	})
}

func (g *GitHub) CloseMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPatch,
		url:    fmt.Sprintf("%s/pulls/%d", g.baseURL, id),
		auth:   githubAuth(token),
		body:   map[string]string{"state": "closed"},
	})
}

// githubAuth sends "user:token" credentials as basic auth and anything
// else as a bearer token.
func githubAuth(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		if user, secret, ok := strings.Cut(token, ":"); ok {
			req.SetBasicAuth(user, secret)
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}
}
