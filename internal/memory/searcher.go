// Package memory defines the contract the rule engine uses to query the
// external vector store (spec §6 "Vector store client... Provides
// search(collection_name, query_text, limit) -> result list"). The store and
// its embedding provider are out-of-scope collaborators; this package only
// owns the thin interface the duplicate-detection rule and the exploration-
// hints generator depend on, plus an adapter onto the teacher's Emergent SDK
// wrapper.
package memory

import "context"

// Result is one hit from a similarity search. Score is in [0,1]; the payload
// fields mirror spec §6's "name, entity_type, file_path, content".
type Result struct {
	Score      float64
	Name       string
	EntityType string
	FilePath   string
	Content    string
}

// Searcher performs a similarity search over a named collection. Callers
// that can tolerate a degraded experience (duplicate detection, exploration
// hints) should treat any error as "no results" rather than surfacing it
// (spec §8 "Memory-search calls catch and absorb exceptions, yielding an
// empty result, so a transiently unavailable store never blocks
// validation").
type Searcher interface {
	Search(ctx context.Context, collection, queryText string, limit int) ([]Result, error)
}

// FilterByScore keeps only results whose score is at least minScore,
// preserving order (spec §4.9 "Keep results whose similarity score >=
// configured threshold").
func FilterByScore(results []Result, minScore float64) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Score >= minScore {
			out = append(out, r)
		}
	}
	return out
}

// TopN truncates results to at most n entries.
func TopN(results []Result, n int) []Result {
	if n <= 0 || len(results) <= n {
		return results
	}
	return results[:n]
}

// MaxScore returns the highest score among results, or 0 for an empty slice.
func MaxScore(results []Result) float64 {
	var max float64
	for _, r := range results {
		if r.Score > max {
			max = r.Score
		}
	}
	return max
}
