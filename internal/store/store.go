package store

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrNotFound signals an absent entity or blob. It is an expected
	// result, not a fault; callers map it to an empty response.
	ErrNotFound = errors.New("not_found")
	// ErrStorageUnavailable wraps failures reaching the backing store.
	ErrStorageUnavailable = errors.New("storage_unavailable")
)

// TableStore is a partitioned key-value entity store. Upsert semantics are
// last-write-wins; there is no optimistic locking.
type TableStore interface {
	Upsert(ctx context.Context, table string, entity Entity) error
	// Get is an O(1) point lookup; returns ErrNotFound when absent.
	Get(ctx context.Context, table, partition, row string) (Entity, error)
	// Query returns entities matching a single-clause equality filter, in
	// unspecified order.
	Query(ctx context.Context, table string, filter Filter) ([]Entity, error)
	// Delete removes an entity; returns ErrNotFound when absent.
	Delete(ctx context.Context, table, partition, row string) error
}

// BlobStore stores opaque byte payloads under container/name. Writes do not
// suppress overwrites; last write wins on name collision.
type BlobStore interface {
	Put(ctx context.Context, container, name string, data []byte) error
	// Get returns the blob content; the caller must drain and close it.
	Get(ctx context.Context, container, name string) (io.ReadCloser, error)
	List(ctx context.Context, container string) ([]string, error)
}

// Handler consumes one queue message. A nil return acknowledges the message;
// an error triggers redelivery.
type Handler func(ctx context.Context, body []byte) error

// Queue delivers messages at least once. Consumers must tolerate duplicates.
type Queue interface {
	Send(ctx context.Context, queue string, body []byte) error
	// Consume blocks delivering messages one at a time until ctx is done.
	Consume(ctx context.Context, queue string, handler Handler) error
}
