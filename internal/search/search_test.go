package search

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCatalogue() []Organization {
	return []Organization{
		{ID: "1", Name: "Chess Club", TypicalMajors: "History", Bio: "Weekly chess games."},
		{ID: "2", Name: "Society of Women Engineers", TypicalMajors: "Engineering", TypicalActivities: "Workshops, Projects", Bio: "Supporting women in engineering."},
		{ID: "3", Name: "Robotics Club", TypicalMajors: "Engineering", TypicalActivities: "Competitions, Projects", Bio: "We build robots."},
		{ID: "4", Name: "Pottery Guild", TypicalMajors: "Art", Bio: "Clay and kilns."},
	}
}

func names(results []Result) []string {
	out := make([]string, len(results))
	for i, r := range results {
		out[i] = r.Name
	}
	return out
}

func TestSearch(t *testing.T) {
	orgs := testCatalogue()

	t.Run("only positive scores, best first", func(t *testing.T) {
		results := Search(orgs, Request{Query: "engineering projects"})
		require.Len(t, results, 2)
		for i := 1; i < len(results); i++ {
			assert.GreaterOrEqual(t, results[i-1].RelevanceScore, results[i].RelevanceScore)
		}
		assert.NotContains(t, names(results), "Pottery Guild")
	})

	t.Run("eligibility filter", func(t *testing.T) {
		results := Search(orgs, Request{Query: "engineering", Profile: &Profile{Gender: "Male"}})
		assert.Equal(t, []string{"Robotics Club"}, names(results))
	})

	t.Run("top n", func(t *testing.T) {
		all := Search(orgs, Request{Query: "engineering projects"})
		top := Search(orgs, Request{Query: "engineering projects", TopN: 1})
		require.Len(t, top, 1)
		assert.Equal(t, all[0], top[0])
	})

	t.Run("empty query", func(t *testing.T) {
		results := Search(orgs, Request{Query: " | "})
		assert.NotNil(t, results)
		assert.Empty(t, results)
	})

	t.Run("empty catalogue", func(t *testing.T) {
		assert.Empty(t, Search(nil, Request{Query: "chess"}))
	})

	t.Run("ties keep catalogue order", func(t *testing.T) {
		tied := []Organization{
			{Name: "Chess Club A", TypicalMajors: "History"},
			{Name: "Chess Club B", TypicalMajors: "History"},
		}
		assert.Equal(t, []string{"Chess Club A", "Chess Club B"}, names(Search(tied, Request{Query: "chess"})))
	})
}

func TestSearch_ResultShape(t *testing.T) {
	bio := strings.Repeat("chess ", 50)
	results := Search([]Organization{{ID: "7", Name: "Chess Club", TypicalMajors: "History", Bio: bio, Website: "https://chess.example"}}, Request{Query: "chess"})
	require.Len(t, results, 1)

	r := results[0]
	assert.Equal(t, "7", r.ID)
	assert.Equal(t, bio[:200]+"...", r.BioSnippet)
	assert.Equal(t, bio, r.FullBio)
	assert.Equal(t, "https://chess.example", r.Website)
	assert.Equal(t, ScoreBreakdown{NameMatches: 10, BioMatches: 1}, r.ScoreBreakdown)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "short", snippet("short"))
	exact := strings.Repeat("é", 200)
	assert.Equal(t, exact, snippet(exact))
	assert.Equal(t, exact+"...", snippet(exact+"x"))
}

type staticSource struct {
	orgs  []Organization
	err   error
	loads int
}

func (s *staticSource) Name() string { return "static" }

func (s *staticSource) Load(context.Context) ([]Organization, error) {
	s.loads++
	return s.orgs, s.err
}

func TestService_Search(t *testing.T) {
	source := &staticSource{orgs: testCatalogue()}
	svc := NewService(NewCatalogue(source, 0, nil), 1, nil)

	results, err := svc.Search(context.Background(), Request{Query: "engineering projects"})
	require.NoError(t, err)
	assert.Len(t, results, 1, "default top n applies")

	results, err = svc.Search(context.Background(), Request{Query: "engineering projects", TopN: -1})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestService_SourceError(t *testing.T) {
	source := &staticSource{err: errors.New("table missing")}
	svc := NewService(NewCatalogue(source, 0, nil), 0, nil)

	_, err := svc.Search(context.Background(), Request{Query: "chess"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "table missing")
}
