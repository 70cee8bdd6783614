package memory

import "context"

// NoopSearcher always returns an empty result set without error. Used when
// no memory client is configured (duplicate detection and exploration hints
// both degrade gracefully per spec §8).
type NoopSearcher struct{}

func (NoopSearcher) Search(ctx context.Context, collection, queryText string, limit int) ([]Result, error) {
	return nil, nil
}
