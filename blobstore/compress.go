package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects the wire compression of a CompressedStore.
type Compression string

const (
	// CompressionZstd compresses blobs with zstandard.
	CompressionZstd Compression = "zstd"

	// CompressionLZ4 compresses blobs with the lz4 frame format.
	CompressionLZ4 Compression = "lz4"
)

// Stored blobs are self-describing: a 4-byte magic selects the
// decompressor on read, independent of the store's write setting.
var (
	magicZstd = []byte{'n', 'z', 's', 't'}
	magicLZ4  = []byte{'n', 'l', 'z', '4'}
)

// CompressedStore wraps a Store and transparently compresses blob
// contents. Blob names are unchanged; reads decode whichever
// compression the blob was written with.
type CompressedStore struct {
	inner Store
	algo  Compression
	enc   *zstd.Encoder
	dec   *zstd.Decoder
}

// NewCompressedStore wraps inner with the given write compression.
func NewCompressedStore(inner Store, algo Compression) (*CompressedStore, error) {
	switch algo {
	case CompressionZstd, CompressionLZ4:
	default:
		return nil, fmt.Errorf("blobstore: unknown compression %q", algo)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}

	return &CompressedStore{inner: inner, algo: algo, enc: enc, dec: dec}, nil
}

// Put compresses data and writes it to the inner store.
func (s *CompressedStore) Put(ctx context.Context, name string, data []byte) error {
	var buf bytes.Buffer

	switch s.algo {
	case CompressionZstd:
		buf.Write(magicZstd)
		buf.Write(s.enc.EncodeAll(data, nil))
	case CompressionLZ4:
		buf.Write(magicLZ4)
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}
	}

	return s.inner.Put(ctx, name, buf.Bytes())
}

// Get reads a blob and decompresses it according to its magic header.
func (s *CompressedStore) Get(ctx context.Context, name string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(raw) < len(magicZstd) {
		return nil, fmt.Errorf("blobstore: blob %s too short for compression header", name)
	}

	header, body := raw[:4], raw[4:]
	switch {
	case bytes.Equal(header, magicZstd):
		return s.dec.DecodeAll(body, nil)
	case bytes.Equal(header, magicLZ4):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(body)))
	default:
		return nil, fmt.Errorf("blobstore: blob %s has unknown compression header %q", name, header)
	}
}

// List delegates to the inner store.
func (s *CompressedStore) List(ctx context.Context, prefix string) ([]string, error) {
	return s.inner.List(ctx, prefix)
}

// Delete delegates to the inner store.
func (s *CompressedStore) Delete(ctx context.Context, name string) error {
	return s.inner.Delete(ctx, name)
}
