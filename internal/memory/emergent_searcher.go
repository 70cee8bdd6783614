package memory

import (
	"context"
	"log/slog"

	"github.com/emergent-company/emergent/apps/server-go/pkg/sdk/graph"
)

// graphSearcher is the subset of the emergent client this package depends
// on, so tests can fake it without standing up a real SDK client.
type graphSearcher interface {
	FTSSearch(ctx context.Context, opts *graph.FTSSearchOptions) (*graph.SearchResponse, error)
}

// EmergentSearcher adapts the teacher's Emergent SDK full-text search onto
// the Searcher contract, matching entities by name/content proximity as a
// stand-in for true vector similarity (the real embedding/vector pipeline is
// an out-of-scope collaborator per spec §6).
type EmergentSearcher struct {
	client graphSearcher
	logger *slog.Logger
}

// NewEmergentSearcher wraps client for use as a Searcher.
func NewEmergentSearcher(client graphSearcher, logger *slog.Logger) *EmergentSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmergentSearcher{client: client, logger: logger}
}

// Search absorbs any underlying failure and returns an empty result set
// (spec §8's "never blocks validation" contract) rather than an error.
func (s *EmergentSearcher) Search(ctx context.Context, collection, queryText string, limit int) ([]Result, error) {
	resp, err := s.client.FTSSearch(ctx, &graph.FTSSearchOptions{
		Types: []string{collection},
		Query: queryText,
		Limit: limit,
	})
	if err != nil {
		s.logger.Warn("memory search failed, degrading to empty result", "collection", collection, "error", err)
		return nil, nil
	}
	if resp == nil {
		return nil, nil
	}

	out := make([]Result, 0, len(resp.Data))
	for _, item := range resp.Data {
		if item.Object == nil {
			continue
		}
		out = append(out, Result{
			Score:      float64(item.Score),
			Name:       stringProp(item.Object.Properties, "name"),
			EntityType: item.Object.Type,
			FilePath:   stringProp(item.Object.Properties, "file_path"),
			Content:    stringProp(item.Object.Properties, "content"),
		})
	}
	return out, nil
}

func stringProp(props map[string]any, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}
