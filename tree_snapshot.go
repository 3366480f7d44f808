package fpgist

import (
	"context"
	"fmt"
	"io"

	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/internal/mmap"
	"github.com/tanski-labs/fpgist/persistence"
)

// ExportSnapshot writes every live page reachable from the current root to a
// single atomically-renamed file at path, independent of whatever PageStore
// and manifest backend the tree was opened with. The file header's Checksum
// field is left zero, and ImportSnapshot does not verify one. It is a
// portable backup format: an ExportSnapshot taken from a BlobStore-backed
// tree can be fed to ImportSnapshot on a fresh MemStore-backed one.
func (t *Tree) ExportSnapshot(ctx context.Context, path string) error {
	t.mu.RLock()
	if t.closed.Load() {
		t.mu.RUnlock()
		return ErrClosed
	}
	rootID := t.rootID
	t.mu.RUnlock()

	pages, err := t.collectPages(ctx, rootID)
	if err != nil {
		return err
	}

	mgr := t.snapshotManager()
	return mgr.SnapshotToPath(ctx, path, func(ctx context.Context, w io.Writer) error {
		bw := persistence.NewBinaryIndexWriter(w)
		header := &persistence.FileHeader{
			PageType:   persistence.PageTypeInternal,
			EntryCount: uint64(len(pages)),
			RootPage:   uint32(rootID),
		}
		if err := bw.WriteHeader(header); err != nil {
			return fmt.Errorf("fpgist: write snapshot header: %w", err)
		}
		for _, p := range pages {
			if err := ctx.Err(); err != nil {
				return err
			}
			encoded, err := t.opts.codec.Marshal(p)
			if err != nil {
				return fmt.Errorf("fpgist: marshal page %d: %w", p.ID, err)
			}
			if err := bw.WriteUint64Slice([]uint64{uint64(p.ID), uint64(len(encoded))}); err != nil {
				return fmt.Errorf("fpgist: write page %d framing: %w", p.ID, err)
			}
			if _, err := w.Write(encoded); err != nil {
				return fmt.Errorf("fpgist: write page %d body: %w", p.ID, err)
			}
		}
		return nil
	})
}

// collectPages walks the tree breadth-first from rootID, returning every
// page currently reachable. A rootID of zero (empty tree) returns no pages.
func (t *Tree) collectPages(ctx context.Context, rootID gist.PageID) ([]*gist.Page, error) {
	if rootID == 0 {
		return nil, nil
	}
	var pages []*gist.Page
	queue := []gist.PageID{rootID}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]
		page, err := t.pages.Get(ctx, id)
		if err != nil {
			return nil, translateError(err)
		}
		pages = append(pages, page)
		if !page.IsLeaf() {
			for _, e := range page.Entries {
				queue = append(queue, e.Child)
			}
		}
	}
	return pages, nil
}

// snapshotLoaderFunc adapts a plain function to persistence.SnapshotLoader.
type snapshotLoaderFunc func(ctx context.Context, path string) error

func (f snapshotLoaderFunc) LoadSnapshot(ctx context.Context, path string) error {
	return f(ctx, path)
}

// ImportSnapshot loads a file written by ExportSnapshot, overwriting every
// page it names in the tree's current PageStore and replacing the root.
// Page IDs are taken from the snapshot verbatim, so the tree's next
// allocated page ID is advanced past the highest one seen.
func (t *Tree) ImportSnapshot(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return ErrClosed
	}

	var newRoot gist.PageID
	var maxID gist.PageID

	mgr := t.snapshotManager()
	err := mgr.RecoverFromPath(ctx, path, snapshotLoaderFunc(func(ctx context.Context, snapshotPath string) error {
		return persistence.LoadFromFile(snapshotPath, func(r io.Reader) error {
			br := persistence.NewBinaryIndexReader(r)
			header, err := br.ReadHeader()
			if err != nil {
				return fmt.Errorf("fpgist: read snapshot header: %w", err)
			}
			newRoot = gist.PageID(header.RootPage)

			for i := uint64(0); i < header.EntryCount; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				framing, err := br.ReadUint64Slice(2)
				if err != nil {
					return fmt.Errorf("fpgist: read page framing: %w", err)
				}
				pageID, length := gist.PageID(framing[0]), framing[1]
				body := make([]byte, length)
				if _, err := io.ReadFull(r, body); err != nil {
					return fmt.Errorf("fpgist: read page %d body: %w", pageID, err)
				}
				var page gist.Page
				if err := t.opts.codec.Unmarshal(body, &page); err != nil {
					return fmt.Errorf("fpgist: unmarshal page %d: %w", pageID, err)
				}
				if err := t.pages.Put(ctx, &page); err != nil {
					return fmt.Errorf("fpgist: restore page %d: %w", pageID, err)
				}
				if pageID > maxID {
					maxID = pageID
				}
			}
			return nil
		})
	}))
	if err != nil {
		return err
	}

	t.rootID = newRoot
	if next := uint64(maxID) + 1; next > t.nextPageID.Load() {
		t.nextPageID.Store(next)
	}
	return t.saveManifest(ctx)
}

// ImportSnapshotMmap is equivalent to ImportSnapshot but reads the file
// through a memory mapping instead of a buffered stream, avoiding a page
// cache copy for large snapshots restored on a machine with room to map
// them. Callers on platforms without mmap support should use ImportSnapshot.
func (t *Tree) ImportSnapshotMmap(ctx context.Context, path string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return ErrClosed
	}

	m, err := mmap.Open(path)
	if err != nil {
		return fmt.Errorf("fpgist: mmap snapshot %s: %w", path, err)
	}
	defer m.Close()

	sr := persistence.NewSliceReader(m.Bytes())
	header, err := sr.ReadFileHeader()
	if err != nil {
		return fmt.Errorf("fpgist: read mapped snapshot header: %w", err)
	}

	var maxID gist.PageID
	for i := uint64(0); i < header.EntryCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		pageID, err := sr.ReadUint64()
		if err != nil {
			return fmt.Errorf("fpgist: read mapped page id: %w", err)
		}
		length, err := sr.ReadUint64()
		if err != nil {
			return fmt.Errorf("fpgist: read mapped page length: %w", err)
		}
		body, err := sr.ReadBytes(int(length))
		if err != nil {
			return fmt.Errorf("fpgist: read mapped page %d body: %w", pageID, err)
		}
		var page gist.Page
		if err := t.opts.codec.Unmarshal(body, &page); err != nil {
			return fmt.Errorf("fpgist: unmarshal mapped page %d: %w", pageID, err)
		}
		if err := t.pages.Put(ctx, &page); err != nil {
			return fmt.Errorf("fpgist: restore mapped page %d: %w", pageID, err)
		}
		if gist.PageID(pageID) > maxID {
			maxID = gist.PageID(pageID)
		}
	}

	t.rootID = gist.PageID(header.RootPage)
	if next := uint64(maxID) + 1; next > t.nextPageID.Load() {
		t.nextPageID.Store(next)
	}
	return t.saveManifest(ctx)
}

// snapshotManager returns the tree's persistence manager, or a throwaway one
// scoped to a single call when the tree was opened without a WAL (Manager's
// atomic SnapshotToPath/RecoverFromPath helpers are still useful there).
func (t *Tree) snapshotManager() *persistence.Manager {
	if t.persist != nil {
		return t.persist
	}
	return persistence.NewManagerWithWAL("", nil, t.opts.codec)
}
