package gist

import (
	"errors"
	"fmt"
)

// ErrTooFewEntries is returned by PickSplit when called with fewer than
// two entries: a page of one causes infinite descent in the host tree.
var ErrTooFewEntries = errors.New("gist: picksplit requires at least two entries")

// ErrUnknownStrategy is returned by Consistent for a strategy number none
// of EQ/MATCH/NEQ.
type ErrUnknownStrategy struct {
	Strategy Strategy
}

func (e *ErrUnknownStrategy) Error() string {
	return fmt.Sprintf("gist: unknown strategy %d", int(e.Strategy))
}

// ErrNilEntry is returned when an operator is given a nil entry where one
// is required.
var ErrNilEntry = errors.New("gist: nil entry")

// ErrCorruptEntry is returned when a stored entry's chroma length is far
// beyond anything Compress would ever produce, meaning the backing page
// was corrupted.
type ErrCorruptEntry struct {
	CprintLen int
}

func (e *ErrCorruptEntry) Error() string {
	return fmt.Sprintf("gist: corrupt entry cprint_len %d (ceiling %d)", e.CprintLen, corruptCprintLenCeiling)
}

// ErrPageNotFound is returned by a PageStore when the requested page does
// not exist.
type ErrPageNotFound struct {
	PageID uint64
}

func (e *ErrPageNotFound) Error() string {
	return fmt.Sprintf("gist: page %d not found", e.PageID)
}
