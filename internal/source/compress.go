package source

import (
	"context"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompress wraps r with a decoder chosen by the extension of path.
// Files without a known compression extension are returned as they are.
func decompress(path string, r io.Reader) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(path, ".zst"), strings.HasSuffix(path, ".zstd"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	default:
		return io.NopCloser(r), nil
	}
}

// open opens path through store and decompresses it if needed. Closing the
// returned reader closes both layers.
func open(ctx context.Context, store Store, path string) (io.ReadCloser, error) {
	raw, err := store.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	r, err := decompress(path, raw)
	if err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &stackedReader{ReadCloser: r, inner: raw}, nil
}

type stackedReader struct {
	io.ReadCloser
	inner io.Closer
}

func (s *stackedReader) Close() error {
	err := s.ReadCloser.Close()
	if cerr := s.inner.Close(); err == nil {
		err = cerr
	}
	return err
}
