package store

import "errors"

// ErrNotFound is returned by Get when a page does not exist.
var ErrNotFound = errors.New("store: page not found")
