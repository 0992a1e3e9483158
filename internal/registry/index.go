package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/lgulliver/cargolifter/internal/forge"
	"github.com/lgulliver/cargolifter/internal/index"
	"github.com/rs/zerolog/log"
)

// Index runs the publish and yank sagas against a forge-hosted crate index
type Index struct {
	backend forge.Backend
	creds   forge.Credentials
}

// NewIndex creates an Index on top of backend
func NewIndex(backend forge.Backend, creds forge.Credentials) *Index {
	return &Index{
		backend: backend,
		creds:   creds,
	}
}

// indexFile is a crate's index file as read from the default branch
type indexFile struct {
	path     string
	records  index.Records
	revision string
	exists   bool
}

// change is a new version of an index file to be merged through a branch
type change struct {
	crate   string
	version string
	path    string
	branch  string
	message string
	records index.Records
	// revision of the file the records were derived from, empty when the
	// file is created
	revision string
	exists   bool
}

func (i *Index) readFile(ctx context.Context, token, name string) (*indexFile, error) {
	path := index.CrateFilePath(name)

	file, err := i.backend.GetFile(ctx, token, path, i.backend.DefaultBranch())
	if errors.Is(err, forge.ErrNotFound) {
		return &indexFile{path: path}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index file %s: %w", path, err)
	}

	records, err := index.Decode(file.Content, file.Encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to decode index file %s: %w", path, err)
	}

	return &indexFile{
		path:     path,
		records:  records,
		revision: file.Revision,
		exists:   true,
	}, nil
}

// submit commits the change on its own branch, opens a merge request and
// merges it. A failure after the branch exists triggers best-effort cleanup
// and is reported as an *IncompleteError.
func (i *Index) submit(ctx context.Context, token string, c change) error {
	content, err := index.Encode(c.records, i.backend.ContentEncoding())
	if err != nil {
		return fmt.Errorf("failed to encode index file %s: %w", c.path, err)
	}

	if c.exists {
		err = i.backend.UpdateFile(ctx, token, c.path, c.branch, content, c.message, c.revision)
	} else {
		err = i.backend.CreateFile(ctx, token, c.path, c.branch, content, c.message)
	}
	if err != nil {
		i.deleteBranch(ctx, token, c.branch)
		return &IncompleteError{Crate: c.crate, Version: c.version, Step: "commit", Err: err}
	}

	id, err := i.backend.CreateMergeRequest(ctx, token, c.message, c.branch, i.backend.DefaultBranch())
	if err != nil {
		i.deleteBranch(ctx, token, c.branch)
		return &IncompleteError{Crate: c.crate, Version: c.version, Step: "create merge request", Err: err}
	}

	if err := i.backend.MergeMergeRequest(ctx, i.creds.ForMerge(token), id); err != nil {
		if closeErr := i.backend.CloseMergeRequest(ctx, token, id); closeErr != nil {
			log.Warn().Err(closeErr).Int64("merge_request", id).Msg("Failed to close merge request")
		}
		i.deleteBranch(ctx, token, c.branch)
		return &IncompleteError{Crate: c.crate, Version: c.version, Step: "merge", Err: err}
	}

	i.deleteBranch(ctx, token, c.branch)

	log.Info().
		Str("crate", c.crate).
		Str("version", c.version).
		Int64("merge_request", id).
		Msg(c.message)
	return nil
}

func (i *Index) deleteBranch(ctx context.Context, token, branch string) {
	if err := i.backend.DeleteBranch(ctx, token, branch); err != nil {
		log.Warn().Err(err).Str("branch", branch).Msg("Failed to delete branch")
	}
}
