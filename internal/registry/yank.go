package registry

import (
	"context"
	"fmt"

	"github.com/lgulliver/cargolifter/pkg/types"
	"github.com/rs/zerolog/log"
)

// Yank sets or clears the yanked flag of a version. When there is nothing
// to change (unknown crate, unknown version, flag already set) it succeeds
// without creating a branch.
func (i *Index) Yank(ctx context.Context, token string, req *types.YankRequest) error {
	file, err := i.readFile(ctx, token, req.Name)
	if err != nil {
		return err
	}

	pos := file.records.Find(req.Name, req.Vers)
	if pos < 0 || file.records[pos].Yanked == req.Yank {
		log.Info().
			Str("crate", req.Name).
			Str("version", req.Vers).
			Bool("yank", req.Yank).
			Msg("Nothing to change in index")
		return nil
	}

	file.records[pos].SetYanked(req.Yank)

	prefix, verb := "unyank", "Unyanking"
	if req.Yank {
		prefix, verb = "yank", "Yanking"
	}

	return i.submit(ctx, token, change{
		crate:    req.Name,
		version:  req.Vers,
		path:     file.path,
		branch:   fmt.Sprintf("%s-%s-%s", prefix, req.Name, req.Vers),
		message:  fmt.Sprintf("%s %s %s", verb, req.Name, req.Vers),
		records:  file.records,
		revision: file.revision,
		exists:   true,
	})
}
