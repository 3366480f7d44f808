package fpgist

import (
	"errors"
	"fmt"

	"github.com/tanski-labs/fpgist/gist"
	"github.com/tanski-labs/fpgist/store"
)

var (
	// ErrNotFound is returned when a requested page or fingerprint does not exist.
	ErrNotFound = errors.New("fpgist: not found")

	// ErrClosed is returned when an operation is attempted on a closed tree.
	ErrClosed = errors.New("fpgist: tree is closed")
)

// ErrCorruptPage indicates a page read back from storage failed structural
// validation (e.g. a cprint_len far beyond anything Compress would produce).
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrCorruptPage struct {
	PageID uint64
	cause  error
}

func (e *ErrCorruptPage) Error() string {
	return fmt.Sprintf("fpgist: page %d is corrupt", e.PageID)
}

func (e *ErrCorruptPage) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var pnf *gist.ErrPageNotFound
	if errors.As(err, &pnf) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	var ce *gist.ErrCorruptEntry
	if errors.As(err, &ce) {
		return &ErrCorruptPage{cause: err}
	}

	return err
}
