// Package docstore defines the document transaction contract that the
// group and user stores are written against.
//
// A transaction is a function that reads zero or more documents and then
// buffers writes. Backends guarantee that:
//   - all reads issued inside one transaction observe a single consistent
//     snapshot,
//   - buffered writes commit atomically after the function returns nil,
//   - a transaction that loses a race with a concurrent commit is retried
//     (re-running the function) or fails with ErrConflict.
//
// Reads must happen before writes. Once a transaction has buffered a write,
// Get returns ErrReadAfterWrite.
package docstore

import (
	"context"
	"errors"
)

var (
	// ErrAlreadyExists is returned from commit when a Create targets a key
	// that is already present.
	ErrAlreadyExists = errors.New("docstore: document already exists")

	// ErrConflict is returned when a transaction could not be committed
	// because of concurrent writers, after the backend gave up retrying.
	ErrConflict = errors.New("docstore: transaction conflict")

	// ErrReadAfterWrite is returned by Tx.Get once a write has been buffered.
	ErrReadAfterWrite = errors.New("docstore: reads must happen before writes in a transaction")
)

// Key addresses one document.
type Key struct {
	Collection string
	ID         string
}

func (k Key) String() string {
	return k.Collection + "/" + k.ID
}

// Tx is the handle passed to a transaction function.
type Tx interface {
	// Get decodes the document at key into out. It reports false (and leaves
	// out untouched) when the document does not exist.
	Get(ctx context.Context, key Key, out any) (bool, error)

	// Create buffers a write that succeeds only if key is absent at commit.
	Create(key Key, doc any) error

	// Set buffers an unconditional write.
	Set(key Key, doc any) error
}

// TxFunc is the body of a transaction. It may be invoked more than once.
type TxFunc func(ctx context.Context, tx Tx) error

// Document is one result of Find.
type Document interface {
	ID() string
	Decode(out any) error
}

// Store is a transactional document store.
type Store interface {
	RunTransaction(ctx context.Context, fn TxFunc) error

	// Get is a single non-transactional read.
	Get(ctx context.Context, key Key, out any) (bool, error)

	// Find returns the documents in collection whose top-level field equals
	// value, ordered by document ID.
	Find(ctx context.Context, collection, field, value string) ([]Document, error)

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
