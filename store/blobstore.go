package store

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/tanski-labs/fpgist/blobstore"
	"github.com/tanski-labs/fpgist/codec"
	"github.com/tanski-labs/fpgist/gist"
)

// BlobStore is a PageStore backed by a blobstore.BlobStore: every page is
// serialized, compressed (lz4 for leaf pages, zstd for internal pages), and
// checksummed (see wire.go), then written
// as a single blob. This is the Go-native analogue of PostgreSQL's TOAST:
// pages are pushed out-of-line to object storage, compressed, rather than
// kept resident in a host page.
type BlobStore struct {
	blobs blobstore.BlobStore
	codec codec.Codec
}

// NewBlobStore creates a page store backed by blobs. If c is nil,
// codec.Default is used.
func NewBlobStore(blobs blobstore.BlobStore, c codec.Codec) *BlobStore {
	if c == nil {
		c = codec.Default
	}
	return &BlobStore{blobs: blobs, codec: c}
}

func (s *BlobStore) blobName(id gist.PageID) string {
	return fmt.Sprintf("page-%020d.bin", uint64(id))
}

func (s *BlobStore) Get(ctx context.Context, id gist.PageID) (*gist.Page, error) {
	blob, err := s.blobs.Open(ctx, s.blobName(id))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer blob.Close()

	rc, err := blob.ReadRange(ctx, 0, blob.Size())
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}

	page, err := decodePage(data, s.codec)
	if err != nil {
		return nil, err
	}
	// The ID on the wire should already match; the blob name is
	// authoritative either way.
	page.ID = id
	return page, nil
}

func (s *BlobStore) Put(ctx context.Context, page *gist.Page) error {
	blob, err := encodePage(page, s.codec)
	if err != nil {
		return err
	}
	return s.blobs.Put(ctx, s.blobName(page.ID), blob)
}

func (s *BlobStore) Delete(ctx context.Context, id gist.PageID) error {
	return s.blobs.Delete(ctx, s.blobName(id))
}
