package catalog

import (
	"context"
	"errors"
)

// ErrUnavailable marks a store failure, as opposed to a legitimate empty
// result. Callers must never present a store outage as "not found".
var ErrUnavailable = errors.New("catalog unavailable")

// ErrNotFound marks an operation against an entry that does not exist.
var ErrNotFound = errors.New("entry not found")

// Store is the durable collection of indexed entries. Find methods take a
// language tag restricting the match; the empty tag means any language. All
// bounds are hard caps: they keep the fuzzy stage from ever scanning the whole
// catalog. No ordering guarantee is made beyond insertion order.
type Store interface {
	// Upsert writes an entry keyed by (channel_id, message_id). Re-indexing
	// the same source post overwrites the derived fields in place and leaves
	// counters and raters untouched.
	Upsert(ctx context.Context, e *Entry) error

	// Get returns the entry for a source post, or nil if none exists.
	Get(ctx context.Context, channelID int64, messageID int) (*Entry, error)

	FindByKeyPrefix(ctx context.Context, prefix, language string, limit int) ([]Entry, error)
	FindByKeyContains(ctx context.Context, substring, language string, limit int) ([]Entry, error)

	// MostViewedByLanguage backs the popularity fallback used when a language
	// filter arrives with an empty query.
	MostViewedByLanguage(ctx context.Context, language string, limit int) ([]Entry, error)

	// IncrementViews bumps the view counter for a delivered post.
	IncrementViews(ctx context.Context, channelID int64, messageID int) error

	// Rate records a like or dislike for userID. Returns false when the user
	// has already rated this entry; the raters set prevents double counting.
	// Rating an entry that does not exist reports ErrNotFound.
	Rate(ctx context.Context, channelID int64, messageID int, userID int64, like bool) (bool, error)
}
