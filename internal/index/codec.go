package index

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// EncodingBase64 is the content encoding used by every supported forge API
const EncodingBase64 = "base64"

// ErrUnsupportedEncoding is returned for content encodings other than
// base64 and plain text
var ErrUnsupportedEncoding = errors.New("unsupported index content encoding")

// Decode parses the content of an index file as returned by a forge.
// An empty encoding means plain text. A line that is not valid JSON fails
// the whole decode.
func Decode(content, encoding string) (Records, error) {
	var text string
	switch encoding {
	case EncodingBase64:
		stripped := strings.NewReplacer("\n", "", "\r", "").Replace(content)
		decoded, err := base64.StdEncoding.DecodeString(stripped)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 index content: %w", err)
		}
		text = string(decoded)
	case "":
		text = content
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, encoding)
	}

	var records Records
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		var version PublishedVersion
		if err := json.Unmarshal([]byte(line), &version); err != nil {
			return nil, fmt.Errorf("invalid index record on line %d: %w", i+1, err)
		}
		version.raw = []byte(line)
		records = append(records, version)
	}

	return records, nil
}

// Encode serializes records one per line, base64-wrapping the result when
// the target encoding asks for it.
func Encode(records Records, encoding string) (string, error) {
	lines := make([]string, 0, len(records))
	for i := range records {
		line, err := marshalRecord(&records[i])
		if err != nil {
			return "", fmt.Errorf("failed to encode %s %s: %w", records[i].Name, records[i].Vers, err)
		}
		lines = append(lines, line)
	}

	text := strings.Join(lines, "\n")
	if encoding == EncodingBase64 {
		return base64.StdEncoding.EncodeToString([]byte(text)), nil
	}
	return text, nil
}

func marshalRecord(v *PublishedVersion) (string, error) {
	if v.raw != nil {
		return string(v.raw), nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
