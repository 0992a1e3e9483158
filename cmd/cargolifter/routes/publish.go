package routes

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lgulliver/cargolifter/pkg/types"
)

// maxSectionSize bounds each length-prefixed section of a publish body
const maxSectionSize = 512 << 20

var errSectionTooLarge = errors.New("section too large")

// ParsePublishRequest decodes the body cargo sends to /crates/new:
//
//	u32 LE json length, json metadata, u32 LE tarball length, tarball
func ParsePublishRequest(body io.Reader) (*types.PublishRequest, error) {
	metaJSON, err := readSection(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta types.MetaData
	if err := json.Unmarshal(metaJSON, &meta); err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	data, err := readSection(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read crate file: %w", err)
	}

	return &types.PublishRequest{Meta: meta, Data: data}, nil
}

func readSection(r io.Reader) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, err
	}
	if size > maxSectionSize {
		return nil, errSectionTooLarge
	}

	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
