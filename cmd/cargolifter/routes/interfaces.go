package routes

import (
	"context"

	"github.com/lgulliver/cargolifter/internal/audit"
	"github.com/lgulliver/cargolifter/pkg/types"
)

// IndexService is the command queue in front of the crate index
type IndexService interface {
	Publish(ctx context.Context, token string, req *types.PublishRequest) bool
	Yank(ctx context.Context, token string, req *types.YankRequest) bool
	IsVersionPublished(ctx context.Context, token, name, vers string) bool
}

// CrateStorage is the queue in front of the tarball store
type CrateStorage interface {
	Put(ctx context.Context, name, vers string, data []byte) bool
	Get(ctx context.Context, name, vers string) []byte
}

// OperationLog is the audit trail of executed commands
type OperationLog interface {
	List(ctx context.Context, crate string, limit int) ([]audit.Operation, error)
}
