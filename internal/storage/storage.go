// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"

	"newsbot/internal/model"
)

// Storage is the durable dedup and subscriber store.
//
// Every method is a single atomic statement, so concurrent callers never
// lose updates. Posted links are append-only.
type Storage interface {
	// HasBeenPosted reports whether link was already recorded.
	HasBeenPosted(ctx context.Context, link string) (bool, error)
	// RecordPosted stores post.Link as delivered. Recording an existing
	// link is a no-op; the bool reports whether this call inserted it.
	RecordPosted(ctx context.Context, post model.Post) (bool, error)
	// RecentPosts returns up to limit most recently recorded posts, newest first.
	RecentPosts(ctx context.Context, limit int) ([]model.Post, error)

	ListSubscribers(ctx context.Context) ([]int64, error)
	AddSubscriber(ctx context.Context, chatID int64) (bool, error)
	RemoveSubscriber(ctx context.Context, chatID int64) (bool, error)

	Close() error
}
