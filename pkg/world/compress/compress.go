// Package compress provides the transparent decompression used to unwrap
// the compressed chunk and NBT payloads found inside region files and
// standalone NBT documents.
package compress

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// ErrCorrupt is wrapped into every decompression failure returned by this
// package, so callers can test for it with errors.Is regardless of which
// scheme was attempted.
var ErrCorrupt = errors.New("compress: corrupt stream")

// InflateGzip decompresses a gzip-framed buffer in full.
func InflateGzip(buf []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: gzip header: %v", ErrCorrupt, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: gzip stream: %v", ErrCorrupt, err)
	}
	return out, nil
}

// InflateZlib decompresses a zlib-framed buffer in full.
func InflateZlib(buf []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("%w: zlib header: %v", ErrCorrupt, err)
	}
	defer r.Close()

	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: zlib stream: %v", ErrCorrupt, err)
	}
	return out, nil
}

// Raw is the identity passthrough scheme (compression_scheme == 3 in a
// region chunk header).
func Raw(buf []byte) ([]byte, error) {
	return buf, nil
}
