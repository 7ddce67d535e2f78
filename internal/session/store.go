// Package session keeps live game sessions and their save slots.
package session

import "context"

// Store is a keyed store of T. Get reports ok=false for a missing id.
type Store[T any] interface {
	Get(ctx context.Context, id string) (T, bool, error)
	Put(ctx context.Context, id string, v T) error
	Delete(ctx context.Context, id string) error
	NewID() string
}
