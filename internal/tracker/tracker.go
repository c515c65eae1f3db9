// Package tracker keeps the identifiers of in-flight batch computations in
// a keyed store with an expiry, so abandoned batches disappear on their own.
package tracker

import "context"

// Tracker is the narrow interface the rest of the app sees: register a
// batch, look the pending ones up, remove a finished one.
type Tracker interface {
	Add(ctx context.Context, owner, batchID, params string) error
	Pending(ctx context.Context, owner string) (map[string]string, error)
	Remove(ctx context.Context, owner, batchID string) error
	Close() error
}
