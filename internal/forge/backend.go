package forge

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested file, branch or merge
	// request does not exist on the forge.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a write was rejected because the target
	// changed since it was read.
	ErrConflict = errors.New("conflict")
)

// StatusError is a non-2xx answer from a forge API
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// TransportError is a request that never produced an HTTP response
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// File is the content of a file at a given ref
type File struct {
	Content  string
	Encoding string
	// Revision is the marker a subsequent update must present: the blob
	// sha on GitHub and Gitea, the last commit id on GitLab.
	Revision string
}

// Backend is the set of forge operations the index sagas are built on.
// Every call carries the caller's credential; merges use the credential
// returned by Credentials.ForMerge.
type Backend interface {
	DefaultBranch() string
	ContentEncoding() string

	GetFile(ctx context.Context, token, path, ref string) (*File, error)
	// CreateFile creates branch from the default branch and commits a new file on it
	CreateFile(ctx context.Context, token, path, branch, content, message string) error
	// UpdateFile creates branch from the default branch and commits a new
	// version of an existing file on it
	UpdateFile(ctx context.Context, token, path, branch, content, message, revision string) error
	DeleteBranch(ctx context.Context, token, branch string) error

	CreateMergeRequest(ctx context.Context, token, title, head, base string) (int64, error)
	MergeMergeRequest(ctx context.Context, token string, id int64) error
	CloseMergeRequest(ctx context.Context, token string, id int64) error
}

// Credentials holds the configured merge credential
type Credentials struct {
	MergeToken string
}

// ForMerge returns the credential used to merge a request opened with token
func (c Credentials) ForMerge(token string) string {
	if c.MergeToken != "" {
		return c.MergeToken
	}
	return token
}
