package docstore

import "errors"

// Op is the kind of a buffered write.
type Op int

const (
	OpCreate Op = iota + 1
	OpSet
)

// Write is one buffered write.
type Write struct {
	Op  Op
	Key Key
	Doc any
}

// Buffer collects the writes of one transaction attempt. Backends embed it
// in their Tx implementation and apply Writes() at commit.
type Buffer struct {
	writes []Write
}

var errEmptyKey = errors.New("docstore: key collection and id are required")

// Create implements Tx.Create.
func (b *Buffer) Create(key Key, doc any) error {
	return b.add(OpCreate, key, doc)
}

// Set implements Tx.Set.
func (b *Buffer) Set(key Key, doc any) error {
	return b.add(OpSet, key, doc)
}

func (b *Buffer) add(op Op, key Key, doc any) error {
	if key.Collection == "" || key.ID == "" {
		return errEmptyKey
	}
	b.writes = append(b.writes, Write{Op: op, Key: key, Doc: doc})
	return nil
}

// Wrote reports whether any write has been buffered.
func (b *Buffer) Wrote() bool {
	return len(b.writes) > 0
}

// Writes returns the buffered writes in the order they were issued.
func (b *Buffer) Writes() []Write {
	return b.writes
}

// CheckRead returns ErrReadAfterWrite once a write has been buffered, and
// rejects incomplete keys.
func (b *Buffer) CheckRead(key Key) error {
	if b.Wrote() {
		return ErrReadAfterWrite
	}
	if key.Collection == "" || key.ID == "" {
		return errEmptyKey
	}
	return nil
}
