// Package store provides implementations of gist.PageStore: an in-memory
// implementation for tests and small collections, and a compressed
// blob-backed implementation for larger catalogs.
package store
