package memory

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFilterByScore(t *testing.T) {
	results := []Result{{Score: 0.9}, {Score: 0.5}, {Score: 0.7}}
	got := FilterByScore(results, 0.7)
	require.Len(t, got, 2)
	require.Equal(t, 0.9, got[0].Score)
	require.Equal(t, 0.7, got[1].Score)
}

func TestTopN(t *testing.T) {
	results := []Result{{Score: 0.9}, {Score: 0.8}, {Score: 0.7}}
	require.Len(t, TopN(results, 2), 2)
	require.Len(t, TopN(results, 10), 3)
}

func TestMaxScore(t *testing.T) {
	require.Equal(t, 0.0, MaxScore(nil))
	require.Equal(t, 0.9, MaxScore([]Result{{Score: 0.4}, {Score: 0.9}, {Score: 0.2}}))
}

func TestNoopSearcher_AlwaysEmpty(t *testing.T) {
	var s Searcher = NoopSearcher{}
	got, err := s.Search(nil, "functions", "AuthService", 5)
	require.NoError(t, err)
	require.Empty(t, got)
}
