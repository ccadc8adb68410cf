package search

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"moviefinder-tg-bot/internal/catalog"
)

// broadSeedLen is how much of the query seeds the broad candidate pool. The
// contains-query on the full normalized key finds nothing whenever the typo
// sits past the first few characters, so the pool is fetched on a short
// prefix instead and the fuzzy stage re-ranks it.
const broadSeedLen = 4

// Options tune the engine. Zero values fall back to operational defaults.
type Options struct {
	ResultLimit  int
	BroadLimit   int
	ScoreCutoff  int
	MatchWorkers int
	Languages    []string
	Logger       zerolog.Logger
}

// Engine is the search-and-match core: it indexes source posts into the
// catalog and resolves free-text queries against it. Queries are independent
// and may run concurrently; the CPU-bound fuzzy stage is bounded by a
// weighted semaphore so scoring never starves the I/O path.
type Engine struct {
	store       catalog.Store
	resultLimit int
	broadLimit  int
	scoreCutoff int
	languages   []string
	sem         *semaphore.Weighted
	log         zerolog.Logger
}

// Result is one presentable match.
type Result struct {
	ChannelID int64
	MessageID int
	Title     string
	Language  string
	Year      int
	Views     int64
	Score     int
}

// DeepLink returns the t.me URL that replays this result's source post.
func (r Result) DeepLink(botUsername string) string {
	return DeepLink(botUsername, r.ChannelID, r.MessageID)
}

// New builds an engine over the given store.
func New(store catalog.Store, opts Options) *Engine {
	if opts.ResultLimit <= 0 {
		opts.ResultLimit = 10
	}
	if opts.BroadLimit <= 0 {
		opts.BroadLimit = 500
	}
	if opts.ScoreCutoff <= 0 {
		opts.ScoreCutoff = 60
	}
	if opts.MatchWorkers <= 0 {
		opts.MatchWorkers = 4
	}
	return &Engine{
		store:       store,
		resultLimit: opts.ResultLimit,
		broadLimit:  opts.BroadLimit,
		scoreCutoff: opts.ScoreCutoff,
		languages:   opts.Languages,
		sem:         semaphore.NewWeighted(int64(opts.MatchWorkers)),
		log:         opts.Logger.With().Str("component", "search").Logger(),
	}
}

// Index derives an entry from a raw source post and upserts it. Indexing the
// same (channel, message) pair again overwrites the derived fields in place.
func (e *Engine) Index(ctx context.Context, channelID int64, messageID int, rawText string) error {
	entry := catalog.NewEntry(channelID, messageID, rawText, e.languages)
	if err := e.store.Upsert(ctx, entry); err != nil {
		return fmt.Errorf("index %d/%d: %w", channelID, messageID, err)
	}
	e.log.Debug().
		Int64("channel", channelID).
		Int("message", messageID).
		Str("key", entry.Key).
		Str("language", entry.Language).
		Int("year", entry.Year).
		Msg("indexed source post")
	return nil
}

// Search resolves a raw user query into a ranked, bounded result list. An
// empty result with a nil error means no match; a non-nil error means the
// store failed and the caller must not present it as "not found".
func (e *Engine) Search(ctx context.Context, rawQuery string) ([]Result, error) {
	return e.search(ctx, catalog.Normalize(rawQuery), "")
}

// SearchLanguage re-runs the two-stage search restricted to one language tag.
// An empty query degrades to the most-viewed entries in that language instead
// of attempting degenerate fuzzy matching.
func (e *Engine) SearchLanguage(ctx context.Context, rawQuery, language string) ([]Result, error) {
	key := catalog.Normalize(rawQuery)
	if key == "" {
		entries, err := e.store.MostViewedByLanguage(ctx, language, e.resultLimit)
		if err != nil {
			return nil, fmt.Errorf("popularity fallback: %w", err)
		}
		return compose(entries, nil), nil
	}
	return e.search(ctx, key, language)
}

func (e *Engine) search(ctx context.Context, key, language string) ([]Result, error) {
	// An empty key would trivially prefix-match the whole catalog.
	if key == "" {
		return nil, nil
	}

	direct, err := e.store.FindByKeyPrefix(ctx, key, language, e.resultLimit)
	if err != nil {
		return nil, fmt.Errorf("prefix retrieval: %w", err)
	}
	if len(direct) > 0 {
		// A prefix hit is a confident signal; skip approximate matching.
		return compose(direct, nil), nil
	}

	pool, err := e.store.FindByKeyContains(ctx, broadSeed(key), language, e.broadLimit)
	if err != nil {
		return nil, fmt.Errorf("broad retrieval: %w", err)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	if err := e.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("fuzzy stage: %w", err)
	}
	matches := Match(key, pool, e.scoreCutoff, e.resultLimit)
	e.sem.Release(1)

	e.log.Debug().
		Str("key", key).
		Str("language", language).
		Int("pool", len(pool)).
		Int("matches", len(matches)).
		Msg("fuzzy stage completed")

	return compose(nil, matches), nil
}

func broadSeed(key string) string {
	if len(key) > broadSeedLen {
		return key[:broadSeedLen]
	}
	return key
}

func compose(direct []catalog.Entry, fuzzy []Scored) []Result {
	results := make([]Result, 0, len(direct)+len(fuzzy))
	for _, e := range direct {
		results = append(results, toResult(e, 0))
	}
	for _, s := range fuzzy {
		results = append(results, toResult(s.Entry, s.Score))
	}
	return results
}

func toResult(e catalog.Entry, score int) Result {
	return Result{
		ChannelID: e.ChannelID,
		MessageID: e.MessageID,
		Title:     e.Title(),
		Language:  e.Language,
		Year:      e.Year,
		Views:     e.Views,
		Score:     score,
	}
}
