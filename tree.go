package fpgist

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/tanski-labs/fpgist/blobstore"
	"github.com/tanski-labs/fpgist/fingerprint"
	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/internal/fs"
	"github.com/tanski-labs/fpgist/manifest"
	"github.com/tanski-labs/fpgist/match"
	"github.com/tanski-labs/fpgist/persistence"
	"github.com/tanski-labs/fpgist/resource"
	"github.com/tanski-labs/fpgist/store"
	"github.com/tanski-labs/fpgist/unionkey"
	"github.com/tanski-labs/fpgist/wal"
)

// Match is a single result yielded by Search: the leaf record, the page it
// lives on, and its Cpfm similarity score against the query.
type Match struct {
	PageID gist.PageID
	FP     *fingerprint.FP
	Score  float64
}

// Tree is an embeddable R-tree over fingerprint records, built from the
// GiST-style operators in package gist. It owns page storage, a manifest
// tracking the root and next page ID, and optionally a write-ahead log for
// crash recovery.
//
// A Tree serializes mutation (Insert) with a single mutex; Search takes a
// read lock only long enough to snapshot the root page ID, then walks the
// store without holding it, so searches do not block each other.
type Tree struct {
	mu   sync.RWMutex
	opts options

	pages     gist.PageStore
	manifestS *manifest.Store
	persist   *persistence.Manager
	resources *resource.Controller

	rootID     gist.PageID
	nextPageID atomic.Uint64
	manifestID uint64
	closed     atomic.Bool
}

// Open creates or loads a tree. With no options it builds an ephemeral
// in-memory tree; pass Local(dir) to persist pages, manifest, and
// (optionally) a WAL under dir.
func Open(ctx context.Context, optFns ...Option) (*Tree, error) {
	o := applyOptions(optFns)

	t := &Tree{opts: o}
	if o.matchConcurrency > 1 {
		t.resources = resource.NewController(resource.Config{MaxBackgroundWorkers: int64(o.matchConcurrency)})
	}

	var m *manifest.Manifest
	switch {
	case o.dir != "":
		if err := fs.Default.MkdirAll(o.dir, 0o755); err != nil {
			return nil, fmt.Errorf("fpgist: create data dir: %w", err)
		}
		t.manifestS = manifest.NewStore(fs.Default, o.dir)
		loaded, err := t.manifestS.Load()
		if err != nil {
			return nil, fmt.Errorf("fpgist: load manifest: %w", err)
		}
		m = loaded

		if o.pageStore == nil {
			pagesDir := filepath.Join(o.dir, "pages")
			if err := fs.Default.MkdirAll(pagesDir, 0o755); err != nil {
				return nil, fmt.Errorf("fpgist: create pages dir: %w", err)
			}
			o.pageStore = store.NewBlobStore(blobstore.NewLocalStore(pagesDir), o.codec)
		}
	default:
		m = &manifest.Manifest{Version: manifest.CurrentVersion, NextPageID: 1}
		if o.pageStore == nil {
			o.pageStore = store.NewMemStore()
		}
	}

	t.pages = o.pageStore
	t.opts = o
	t.rootID = gist.PageID(m.RootPageID)
	t.manifestID = m.ID
	if m.NextPageID == 0 {
		m.NextPageID = 1
	}
	t.nextPageID.Store(m.NextPageID)

	if o.walPath != "" {
		pm, err := persistence.NewManager(persistence.ManagerOptions{
			SnapshotPath:   o.snapshotPath,
			WALPath:        o.walPath,
			WALOptions:     o.walOptions,
			Codec:          o.codec,
			AutoCheckpoint: true,
		})
		if err != nil {
			return nil, fmt.Errorf("fpgist: create persistence manager: %w", err)
		}
		t.persist = pm

		if err := t.recover(ctx); err != nil {
			return nil, fmt.Errorf("fpgist: recovery: %w", err)
		}
	}

	return t, nil
}

// recover replays committed WAL entries against the page store. Insert logs
// each page to the WAL before writing it to the store, so a page whose store
// write was lost in a crash is restored here; every committed entry is
// re-applied in log order, rewriting pages that already reached the store.
func (t *Tree) recover(ctx context.Context) error {
	w := t.persist.WAL()
	if w == nil {
		return nil
	}
	return w.ReplayCommitted(func(e wal.Entry) error {
		switch e.Type {
		case wal.OpDelete:
			return t.pages.Delete(ctx, gist.PageID(e.ID))
		default:
			if len(e.Data) == 0 {
				return nil
			}
			var page gist.Page
			if err := t.opts.codec.Unmarshal(e.Data, &page); err != nil {
				return fmt.Errorf("fpgist: replay decode page %d: %w", e.ID, err)
			}
			return t.pages.Put(ctx, &page)
		}
	})
}

// Close releases resources held by the tree, flushing the WAL if one is
// configured. Close does not delete any persisted state.
func (t *Tree) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	if t.persist != nil {
		if w := t.persist.WAL(); w != nil {
			return w.Close()
		}
	}
	return nil
}

func (t *Tree) allocatePageID() gist.PageID {
	return gist.PageID(t.nextPageID.Add(1) - 1)
}

// Insert places fp into the tree, descending to the leaf page whose
// existing entries have the smallest Penalty against fp, splitting pages
// (possibly cascading up to a new root) if the descent target overflows
// WithMaxEntries. It returns the ID of the page fp ultimately landed on.
func (t *Tree) Insert(ctx context.Context, fp *fingerprint.FP) (gist.PageID, error) {
	if err := fp.Validate(); err != nil {
		return 0, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed.Load() {
		return 0, ErrClosed
	}

	leafEntry := gist.CompressTo(gist.NewLeafEntry(fp), t.opts.maxKeyCprintLen)

	if t.rootID == 0 {
		id := t.allocatePageID()
		page := &gist.Page{ID: id, Level: 0, Entries: []*gist.Entry{leafEntry}}
		if err := t.commitPages(ctx, []*gist.Page{page}, nil); err != nil {
			return 0, err
		}
		t.rootID = id
		if err := t.saveManifest(ctx); err != nil {
			return 0, err
		}
		t.opts.logger.LogInsert(ctx, uint64(id), nil)
		return id, nil
	}

	path, err := t.descend(ctx, leafEntry)
	if err != nil {
		t.opts.logger.LogInsert(ctx, 0, err)
		return 0, err
	}

	leafPageID := path[len(path)-1]
	leafPage, err := t.pages.Get(ctx, leafPageID)
	if err != nil {
		return 0, translateError(err)
	}
	leafPage.Entries = append(leafPage.Entries, leafEntry)

	changed, err := t.splitUpward(ctx, path, leafPage)
	if err != nil {
		t.opts.logger.LogInsert(ctx, uint64(leafPageID), err)
		return 0, err
	}

	if err := t.commitPages(ctx, changed, nil); err != nil {
		return 0, err
	}
	if err := t.saveManifest(ctx); err != nil {
		return 0, err
	}

	landedID := leafPageID
	for _, p := range changed {
		if !p.IsLeaf() {
			continue
		}
		for _, e := range p.Entries {
			if e == leafEntry {
				landedID = p.ID
			}
		}
	}

	t.opts.logger.LogInsert(ctx, uint64(landedID), nil)
	return landedID, nil
}

// descend walks from the root to a leaf page, choosing at each internal
// level the child entry with the smallest Penalty against candidate.
func (t *Tree) descend(ctx context.Context, candidate *gist.Entry) ([]gist.PageID, error) {
	path := []gist.PageID{t.rootID}
	cur := t.rootID
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := t.pages.Get(ctx, cur)
		if err != nil {
			return nil, translateError(err)
		}
		if page.IsLeaf() {
			return path, nil
		}
		if len(page.Entries) == 0 {
			return nil, fmt.Errorf("fpgist: internal page %d has no entries", cur)
		}

		bestIdx := 0
		bestPenalty := t.penalty(page.Entries[0], candidate)
		for i := 1; i < len(page.Entries); i++ {
			p := t.penalty(page.Entries[i], candidate)
			if p < bestPenalty {
				bestIdx, bestPenalty = i, p
			}
		}

		cur = page.Entries[bestIdx].Child
		path = append(path, cur)
	}
}

func (t *Tree) penalty(orig, candidate *gist.Entry) float64 {
	start := time.Now()
	p := gist.Penalty(orig, candidate)
	t.opts.metricsObserver.OnPenalty(time.Since(start), p)
	return p
}

// splitUpward applies leafPage's modified entry set (already appended to by
// the caller) and, if it overflows WithMaxEntries, splits it and propagates
// the split upward along path, growing a new root if the split reaches the
// top. It returns every page that was modified or created and must be
// persisted.
func (t *Tree) splitUpward(ctx context.Context, path []gist.PageID, leafPage *gist.Page) ([]*gist.Page, error) {
	var changed []*gist.Page
	cur := leafPage
	idx := len(path) - 1

	for {
		if len(cur.Entries) <= t.opts.maxEntries {
			changed = append(changed, cur)
			if idx == 0 {
				return changed, nil
			}
			parent, err := t.pages.Get(ctx, path[idx-1])
			if err != nil {
				return nil, translateError(err)
			}
			if err := t.refreshChildKey(parent, cur); err != nil {
				return nil, err
			}
			cur, idx = parent, idx-1
			continue
		}

		start := time.Now()
		split, err := gist.PickSplitConcurrent(ctx, cur.Entries, t.resources)
		if err != nil {
			return nil, err
		}
		t.opts.metricsObserver.OnPickSplit(time.Since(start), len(cur.Entries), len(split.Left), len(split.Right), split.AllEqual)
		t.opts.logger.LogPickSplit(ctx, uint64(cur.ID), len(split.Left), len(split.Right))
		enforceMinEntries(split, t.opts.minEntries)

		cur.Entries = split.Left
		siblingID := t.allocatePageID()
		sibling := &gist.Page{ID: siblingID, Level: cur.Level, Entries: split.Right}
		changed = append(changed, cur, sibling)

		if idx == 0 {
			rootID := t.allocatePageID()
			newRoot := &gist.Page{
				ID:    rootID,
				Level: cur.Level + 1,
				Entries: []*gist.Entry{
					gist.NewNodeEntry(split.LeftKey, cur.ID),
					gist.NewNodeEntry(split.RightKey, siblingID),
				},
			}
			changed = append(changed, newRoot)
			t.rootID = rootID
			return changed, nil
		}

		parent, err := t.pages.Get(ctx, path[idx-1])
		if err != nil {
			return nil, translateError(err)
		}
		if err := t.setChildKey(parent, cur.ID, split.LeftKey); err != nil {
			return nil, err
		}
		parent.Entries = append(parent.Entries, gist.NewNodeEntry(split.RightKey, siblingID))

		cur, idx = parent, idx-1
	}
}

// enforceMinEntries moves entries from the larger side of split to the
// smaller one until both sides meet min, re-unioning the keys of whichever
// side changed. PickSplit optimizes for balanced bounding boxes, not for a
// fill-factor floor, so the host enforces the floor itself rather than
// pushing it into the ported split algorithm.
func enforceMinEntries(split *gist.Split, min int) {
	if min <= 0 {
		return
	}
	moved := false
	for len(split.Left) < min && len(split.Right) > min {
		last := len(split.Right) - 1
		split.Left = append(split.Left, split.Right[last])
		split.Right = split.Right[:last]
		moved = true
	}
	for len(split.Right) < min && len(split.Left) > min {
		last := len(split.Left) - 1
		split.Right = append(split.Right, split.Left[last])
		split.Left = split.Left[:last]
		moved = true
	}
	if !moved {
		return
	}
	if leftKey, err := gist.Union(split.Left); err == nil {
		split.LeftKey = leftKey
	}
	if rightKey, err := gist.Union(split.Right); err == nil {
		split.RightKey = rightKey
	}
}

func (t *Tree) refreshChildKey(parent, child *gist.Page) error {
	start := time.Now()
	key, err := gist.Union(child.Entries)
	t.opts.metricsObserver.OnUnion(time.Since(start), len(child.Entries), key.CprintLen())
	if err != nil {
		return err
	}
	return t.setChildKey(parent, child.ID, key)
}

func (t *Tree) setChildKey(parent *gist.Page, childID gist.PageID, key *unionkey.UFP) error {
	for _, e := range parent.Entries {
		if !e.IsLeaf() && e.Child == childID {
			e.Key = key
			return nil
		}
	}
	return fmt.Errorf("fpgist: parent page %d missing child %d", parent.ID, childID)
}

// commitPages writes pages to the store, write-ahead logging each one
// first when a WAL is configured. deleted, if non-nil, lists page IDs to
// remove from the store after the writes succeed (used by future
// compaction; empty for Insert).
func (t *Tree) commitPages(ctx context.Context, pages []*gist.Page, deleted []gist.PageID) error {
	w := t.walOrNil()

	for _, p := range pages {
		var data []byte
		if w != nil {
			encoded, err := t.opts.codec.Marshal(p)
			if err != nil {
				return fmt.Errorf("fpgist: encode page %d for WAL: %w", p.ID, err)
			}
			data = encoded
			if err := w.LogInsert(wal.PageID(p.ID), data); err != nil {
				return fmt.Errorf("fpgist: WAL log page %d: %w", p.ID, err)
			}
		}

		start := time.Now()
		err := t.pages.Put(ctx, p)
		t.opts.metricsObserver.OnPageFlush(time.Since(start), uint64(p.ID), len(data), err)
		if err != nil {
			return fmt.Errorf("fpgist: write page %d: %w", p.ID, err)
		}
	}

	for _, id := range deleted {
		if w != nil {
			if err := w.LogDelete(wal.PageID(id)); err != nil {
				return fmt.Errorf("fpgist: WAL log delete %d: %w", id, err)
			}
		}
		if err := t.pages.Delete(ctx, id); err != nil {
			return fmt.Errorf("fpgist: delete page %d: %w", id, err)
		}
	}

	return nil
}

func (t *Tree) walOrNil() *wal.WAL {
	if t.persist == nil {
		return nil
	}
	return t.persist.WAL()
}

func (t *Tree) saveManifest(ctx context.Context) error {
	if t.manifestS == nil {
		return nil
	}
	m := &manifest.Manifest{
		ID:         t.manifestID,
		RootPageID: uint64(t.rootID),
		NextPageID: t.nextPageID.Load(),
	}
	if err := t.manifestS.Save(m); err != nil {
		return fmt.Errorf("fpgist: save manifest: %w", err)
	}
	t.manifestID = m.ID
	return nil
}

// Search returns an iterator over every leaf record accepted by strategy
// against q, driving Consistent top-down from the root and descending into
// any internal entry Consistent does not rule out. Iteration stops early if
// the range-over-func body stops pulling values.
func (t *Tree) Search(ctx context.Context, q *fingerprint.FP, strategy gist.Strategy) iter.Seq2[Match, error] {
	return func(yield func(Match, error) bool) {
		t.mu.RLock()
		rootID := t.rootID
		closed := t.closed.Load()
		t.mu.RUnlock()

		if closed {
			yield(Match{}, ErrClosed)
			return
		}
		if rootID == 0 {
			return
		}

		n := 0
		seen := roaring64.New()
		_, err := t.searchPage(ctx, rootID, q, strategy, seen, func(m Match) bool {
			n++
			return yield(m, nil)
		})
		t.opts.logger.LogSearch(ctx, strategy, n, err)
		if err != nil {
			yield(Match{}, err)
		}
	}
}

// leafKey packs a page ID and its entry index into one 64-bit roaring key,
// so seen tracks individual leaf entries rather than whole pages. Pages
// rarely hold anywhere near 2^24 entries, leaving the low bits ample room.
func leafKey(id gist.PageID, entryIdx int) uint64 {
	return uint64(id)<<24 | uint64(uint32(entryIdx))
}

func (t *Tree) searchPage(ctx context.Context, id gist.PageID, q *fingerprint.FP, strategy gist.Strategy, seen *roaring64.Bitmap, yield func(Match) bool) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	page, err := t.pages.Get(ctx, id)
	if err != nil {
		return false, translateError(err)
	}

	for idx, e := range page.Entries {
		start := time.Now()
		accepted, recheck, err := gist.Consistent(e, q, strategy)
		t.opts.metricsObserver.OnConsistent(time.Since(start), strategy, accepted, recheck)
		if err != nil {
			return false, err
		}
		if !accepted {
			continue
		}

		if e.IsLeaf() {
			if !seen.CheckedAdd(leafKey(id, idx)) {
				continue
			}
			m := Match{PageID: id, FP: e.Leaf, Score: match.Cpfm(q, e.Leaf)}
			if !yield(m) {
				return false, nil
			}
			continue
		}

		cont, err := t.searchPage(ctx, e.Child, q, strategy, seen, yield)
		if err != nil {
			return false, err
		}
		if !cont {
			return false, nil
		}
	}

	return true, nil
}
