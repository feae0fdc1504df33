package payloadcache

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/snappy"
	"github.com/pierrec/lz4/v4"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

// CompressionMinSize is the smallest encoded payload worth compressing.
// A payload with a filled-in description and keywords is already past it.
const CompressionMinSize = 256

// One-byte frame headers identifying how a cached value is encoded
const (
	frameRaw    byte = 'r'
	frameSnappy byte = 's'
	frameLZ4    byte = 'l'
)

// ErrDecompression is returned when a cached value cannot be decoded.
// Use errors.Is(err, ErrDecompression) to check for it.
var ErrDecompression = errors.New("decompression failed")

// encodeFrame compresses content with algorithm and prefixes the frame header.
// Content under CompressionMinSize, or an unknown algorithm, is stored raw.
func encodeFrame(content []byte, algorithm string) ([]byte, error) {
	if len(content) < CompressionMinSize {
		return append([]byte{frameRaw}, content...), nil
	}

	switch algorithm {
	case configtypes.CompressionSnappy:
		return append([]byte{frameSnappy}, snappy.Encode(nil, content)...), nil

	case configtypes.CompressionLZ4:
		// stream format embeds the size
		var buf bytes.Buffer
		buf.WriteByte(frameLZ4)
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(content); err != nil {
			w.Close()
			return nil, fmt.Errorf("lz4 compression failed: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("lz4 compression close failed: %w", err)
		}
		return buf.Bytes(), nil

	default:
		return append([]byte{frameRaw}, content...), nil
	}
}

// decodeFrame reverses encodeFrame
func decodeFrame(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrDecompression)
	}

	body := frame[1:]
	switch frame[0] {
	case frameRaw:
		return body, nil

	case frameSnappy:
		out, err := snappy.Decode(nil, body)
		if err != nil {
			return nil, fmt.Errorf("%w: snappy: %v", ErrDecompression, err)
		}
		return out, nil

	case frameLZ4:
		out, err := io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %v", ErrDecompression, err)
		}
		return out, nil

	default:
		return nil, fmt.Errorf("%w: unknown frame header %q", ErrDecompression, frame[0])
	}
}
