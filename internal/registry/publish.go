package registry

import (
	"context"
	"fmt"

	"github.com/lgulliver/cargolifter/internal/index"
	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/rs/zerolog/log"
)

// Publish adds a version to the crate's index file. Publishing a version
// that is already present succeeds without touching the forge.
func (i *Index) Publish(ctx context.Context, token string, req *types.PublishRequest) error {
	name, vers := req.Meta.Name, req.Meta.Vers

	file, err := i.readFile(ctx, token, name)
	if err != nil {
		return err
	}

	if file.records.Contains(name, vers) {
		log.Info().Str("crate", name).Str("version", vers).Msg("Version already in index")
		return nil
	}

	return i.submit(ctx, token, change{
		crate:    name,
		version:  vers,
		path:     file.path,
		branch:   fmt.Sprintf("%s-%s", name, vers),
		message:  fmt.Sprintf("Adding %s %s", name, vers),
		records:  append(file.records, index.NewPublishedVersion(req)),
		revision: file.revision,
		exists:   file.exists,
	})
}

// IsVersionPublished reports whether the index lists the version
func (i *Index) IsVersionPublished(ctx context.Context, token, name, vers string) (bool, error) {
	file, err := i.readFile(ctx, token, name)
	if err != nil {
		return false, err
	}
	return file.records.Contains(name, vers), nil
}
