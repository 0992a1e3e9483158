package registry

import (
	"context"
	"time"

	"github.com/lgulliver/cargolifter/pkg/types"
)

// Saga is the set of index operations the command service executes
type Saga interface {
	Publish(ctx context.Context, token string, req *types.PublishRequest) error
	Yank(ctx context.Context, token string, req *types.YankRequest) error
	IsVersionPublished(ctx context.Context, token, name, vers string) (bool, error)
}

// Recorder keeps a trail of executed commands
type Recorder interface {
	Record(ctx context.Context, kind, crate, version string, outcome error, elapsed time.Duration) error
}

// PublishedCache remembers versions known to be in the index.
// Versions are never removed from an index, so only positive answers
// are cached.
type PublishedCache interface {
	IsPublished(ctx context.Context, name, vers string) (bool, error)
	MarkPublished(ctx context.Context, name, vers string) error
}
