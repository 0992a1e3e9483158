package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/lgulliver/cargolifter/internal/index"
	"github.com/rs/zerolog/log"
)

const crateContentType = "application/gzip"

// BlobCrateStore keeps tarballs at "<index path of the crate>/<version>"
type BlobCrateStore struct {
	blobs BlobStorage
}

func NewBlobCrateStore(blobs BlobStorage) *BlobCrateStore {
	return &BlobCrateStore{blobs: blobs}
}

// CrateKey returns the blob key of a crate version
func CrateKey(name, vers string) string {
	return index.CrateFilePath(name) + "/" + vers
}

func (s *BlobCrateStore) Get(ctx context.Context, name, vers string) ([]byte, error) {
	rc, err := s.blobs.Retrieve(ctx, CrateKey(name, vers))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s %s: %w", name, vers, err)
	}
	return data, nil
}

// Put stores the tarball unless one is already there; published crate
// files are immutable
func (s *BlobCrateStore) Put(ctx context.Context, name, vers string, data []byte) error {
	key := CrateKey(name, vers)

	exists, err := s.blobs.Exists(ctx, key)
	if err != nil {
		return err
	}
	if exists {
		log.Info().Str("crate", name).Str("version", vers).Msg("Crate file already stored")
		return nil
	}

	return s.blobs.Store(ctx, key, bytes.NewReader(data), crateContentType)
}
