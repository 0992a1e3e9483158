package forge

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Gitea implements Backend over the Gitea REST API v1
type Gitea struct {
	client        *Client
	baseURL       string
	defaultBranch string
}

func NewGitea(client *Client, host, owner, repo, defaultBranch string) *Gitea {
	return &Gitea{
		client:        client,
		baseURL:       fmt.Sprintf("%s/api/v1/repos/%s/%s", strings.TrimSuffix(host, "/"), owner, repo),
		defaultBranch: defaultBranch,
	}
}

type giteaContent struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	Sha      string `json:"sha"`
}

type giteaFileCommit struct {
	Content   string `json:"content"`
	Branch    string `json:"branch"`
	NewBranch string `json:"new_branch"`
	Message   string `json:"message"`
	Sha       string `json:"sha,omitempty"`
}

type giteaPullRequest struct {
	Number int64 `json:"number"`
}

func (g *Gitea) DefaultBranch() string   { return g.defaultBranch }
func (g *Gitea) ContentEncoding() string { return "base64" }

func (g *Gitea) GetFile(ctx context.Context, token, path, ref string) (*File, error) {
	var content giteaContent
	err := g.client.do(ctx, request{
		method: http.MethodGet,
		url:    fmt.Sprintf("%s/contents/%s?ref=%s", g.baseURL, path, ref),
		auth:   giteaAuth(token),
		out:    &content,
	})
	if err != nil {
		return nil, err
	}

	return &File{Content: content.Content, Encoding: content.Encoding, Revision: content.Sha}, nil
}

// CreateFile uses new_branch so the branch and the commit are created in one call
func (g *Gitea) CreateFile(ctx context.Context, token, path, branch, content, message string) error {
	return g.client.do(ctx, request{
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/contents/%s", g.baseURL, path),
		auth:   giteaAuth(token),
		body: giteaFileCommit{
			Content:   content,
			Branch:    g.defaultBranch,
			NewBranch: branch,
			Message:   message,
		},
	})
}

func (g *Gitea) UpdateFile(ctx context.Context, token, path, branch, content, message, revision string) error {
	return g.client.do(ctx, request{
		method: http.MethodPut,
		url:    fmt.Sprintf("%s/contents/%s", g.baseURL, path),
		auth:   giteaAuth(token),
		body: giteaFileCommit{
			Content:   content,
			Branch:    g.defaultBranch,
			NewBranch: branch,
			Message:   message,
			Sha:       revision,
		},
	})
}

func (g *Gitea) DeleteBranch(ctx context.Context, token, branch string) error {
	return g.client.do(ctx, request{
		method: http.MethodDelete,
		url:    fmt.Sprintf("%s/branches/%s", g.baseURL, branch),
		auth:   giteaAuth(token),
	})
}

func (g *Gitea) CreateMergeRequest(ctx context.Context, token, title, head, base string) (int64, error) {
	var pr giteaPullRequest
	err := g.client.do(ctx, request{
		method: http.MethodPost,
		url:    g.baseURL + "/pulls",
		auth:   giteaAuth(token),
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

func (g *Gitea) MergeMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPost,
		url:    fmt.Sprintf("%s/pulls/%d/merge", g.baseURL, id),
		auth:   giteaAuth(token),
		body: map[string]any{
			"Do":                        "merge",
			"delete_branch_after_merge": false,
		},
	})
}

func (g *Gitea) CloseMergeRequest(ctx context.Context, token string, id int64) error {
	return g.client.do(ctx, request{
		method: http.MethodPatch,
		url:    fmt.Sprintf("%s/pulls/%d", g.baseURL, id),
		auth:   giteaAuth(token),
		body:   map[string]string{"state": "closed"},
	})
}

func giteaAuth(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "token "+token)
	}
}
