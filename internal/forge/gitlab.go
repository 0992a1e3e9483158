package forge

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultGitLabHost is gitlab.com
const DefaultGitLabHost = "https://gitlab.com"

// GitLab implements Backend over the GitLab REST API v4
type GitLab struct {
	client        *Client
	baseURL       string
	defaultBranch string
}

// NewGitLab creates a GitLab backend for a project id or url-encoded path
func NewGitLab(client *Client, host, projectID, defaultBranch string) *GitLab {
	if host == "" {
		host = DefaultGitLabHost
	}
	return &GitLab{
		client:        client,
		baseURL:       fmt.Sprintf("%s/api/v4/projects/%s", strings.TrimSuffix(host, "/"), url.PathEscape(projectID)),
		defaultBranch: defaultBranch,
	}
}

type gitlabFile struct {
	Content       string `json:"content"`
	Encoding      string `json:"encoding"`
	ContentSha256 string `json:"content_sha256"`
	LastCommitID  string `json:"last_commit_id"`
}

type gitlabFileCommit struct {
	Branch        string `json:"branch"`
	StartBranch   string `json:"start_branch"`
	Encoding      string `json:"encoding"`
	Content       string `json:"content"`
	CommitMessage string `json:"commit_message"`
	LastCommitID  string `json:"last_commit_id,omitempty"`
}

type gitlabMergeRequest struct {
	IID int64 `json:"iid"`
}

func (g *GitLab) DefaultBranch() string   { return g.defaultBranch }
func (g *GitLab) ContentEncoding() string { return "base64" }

func (g *GitLab) fileURL(path string) string {
	return fmt.Sprintf("%s/repository/files/%s", g.baseURL, url.PathEscape(path))
}

func (g *GitLab) GetFile(ctx context.Context, token, path, ref string) (*File, error) {
	var file gitlabFile
	err := g.client.do(ctx, request{
		method: http.MethodGet,
		url:    g.fileURL(path) + "?ref=" + url.QueryEscape(ref),
		auth:   gitlabAuth(token),
		out:    &file,
	})
	if err != nil {
		return nil, err
	}

	return &File{Content: file.Content, Encoding: file.Encoding, Revision: file.LastCommitID}, nil
}

// CreateFile uses start_branch so the branch and the commit are created in one call
func (g *GitLab) CreateFile(ctx context.Context, token, path, branch, content, message string) error {
	return g.client.do(ctx, request{
		method: http.MethodPost,
		url:    g.fileURL(path),
		auth:   gitlabAuth(token),
		body: gitlabFileCommit{
			Branch:        branch,
			StartBranch:   g.defaultBranch,
			Encoding:      g.ContentEncoding(),
			Content:       content,
			CommitMessage: message,
		},
	})
}

func (g *GitLab) UpdateFile(ctx context.Context, token, path, branch, content, message, revision string) error {
	return g.client.do(ctx, request{
		method: http.MethodPut,
		url:    g.fileURL(path),
		auth:   gitlabAuth(token),
		body: gitlabFileCommit{
			Branch:        branch,
			StartBranch:   g.defaultBranch,
			Encoding:      g.ContentEncoding(),
			Content:       content,
			CommitMessage: message,
			LastCommitID:  revision,
		},
	})
}

func (g *GitLab) DeleteBranch(ctx context.Context, token, branch string) error {
	return g.client.do(ctx, request{
		method: http.MethodDelete,
		url:    fmt.Sprintf("%s/repository/branches/%s", g.baseURL, url.PathEscape(branch)),
		auth:   gitlabAuth(token),
	})
}

func (g *GitLab) CreateMergeRequest(ctx context.Context, token, title, head, base string) (int64, error) {
	var mr gitlabMergeRequest
	err := g.client.do(ctx, request{
		method: http.MethodPost,
		url:    g.baseURL + "/merge_requests",
		auth:   gitlabAuth(token),
		body: map[string]any{
			"source_branch":        head,
			"target_branch":        base,
			"title":                title,
			"remove_source_branch": false,
		},
		out: &mr,
	})
	if err != nil {
		return 0, err
	}
	return mr.IID, nil
}

func (g *GitLab) MergeMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/merge_requests/%d/merge", g.baseURL, id),
		auth:   gitlabAuth(token),
		body:   map[string]bool{"should_remove_source_branch": false},
	})
}

func (g *GitLab) CloseMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/merge_requests/%d", g.baseURL, id),
		auth:   gitlabAuth(token),
		body:   map[string]string{"state_event": "close"},
	})
}

// gitlabAuth accepts "user:token" or a bare token; only the token is sent
func gitlabAuth(token string) func(*http.Request) {
	if _, secret, ok := strings.Cut(token, ":"); ok {
		token = secret
	}
	return func(req *http.Request) {
		req.Header.Set("PRIVATE-TOKEN", token)
	}
}
