package gist

import (
	"github.com/tanski-labs/fpgist/fingerprint"
	"github.com/tanski-labs/fpgist/unionkey"
)

// PageID identifies a page owned by a PageStore. The zero value is never a
// valid allocated page.
type PageID uint64

// Entry is a single child reference as seen by the index operators: either
// a leaf (Leaf set, a compressed fingerprint record) or an internal node
// (Leaf nil, Key summarising everything beneath Child). Every operator in
// this package treats Key as the authoritative bounding summary and
// consults Leaf only to choose between the leaf-vs-leaf and
// leaf-vs-union comparison kernels.
type Entry struct {
	Key   *unionkey.UFP
	Leaf  *fingerprint.FP
	Child PageID
}

// IsLeaf reports whether e is a leaf entry.
func (e *Entry) IsLeaf() bool { return e.Leaf != nil }

// NewLeafEntry builds an Entry around a compressed leaf record.
func NewLeafEntry(fp *fingerprint.FP) *Entry {
	return &Entry{Key: unionkey.FromFP(fp), Leaf: fp}
}

// NewNodeEntry builds an Entry around an internal node's union key.
func NewNodeEntry(key *unionkey.UFP, child PageID) *Entry {
	return &Entry{Key: key, Child: child}
}
