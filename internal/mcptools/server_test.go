package mcptools

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	got     *search.Request
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) ([]search.Result, error) {
	f.got = &req
	return f.results, f.err
}

type fakeResolver struct {
	profile       *search.Profile
	err           error
	authorization string
}

func (f *fakeResolver) ResolveProfile(_ context.Context, authorization string) (*search.Profile, error) {
	f.authorization = authorization
	return f.profile, f.err
}

func newCallToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      SearchToolName,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestHandleSearch(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{{Name: "Robotics Club", RelevanceScore: 8}}}
	s := NewServer(searcher, nil, "test")

	result, err := s.handleSearch(context.Background(), newCallToolRequest(map[string]any{
		"query":          "robotics",
		"top_n":          5,
		"gender":         "Female",
		"career_fields":  "Engineering, Law",
		"classification": " Junior ",
	}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var body search.SearchResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &body))
	assert.Equal(t, []search.Result{{Name: "Robotics Club", RelevanceScore: 8}}, body.Results)

	require.NotNil(t, searcher.got)
	assert.Equal(t, "robotics", searcher.got.Query)
	assert.Equal(t, 5, searcher.got.TopN)
	assert.Equal(t, &search.Profile{
		Gender:         "Female",
		Classification: "Junior",
		CareerFields:   search.CareerFields{"Engineering", "Law"},
	}, searcher.got.Profile)
}

func TestHandleSearch_CareerFieldsList(t *testing.T) {
	searcher := &fakeSearcher{}
	s := NewServer(searcher, nil, "test")

	_, err := s.handleSearch(context.Background(), newCallToolRequest(map[string]any{
		"query":         "music",
		"career_fields": []any{"Arts/Entertainment"},
	}))
	require.NoError(t, err)

	require.NotNil(t, searcher.got)
	assert.Equal(t, search.CareerFields{"Arts/Entertainment"}, searcher.got.Profile.CareerFields)
}

func TestHandleSearch_ToolErrors(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]any
		searcher *fakeSearcher
	}{
		{name: "missing query", args: map[string]any{}, searcher: &fakeSearcher{}},
		{name: "blank query", args: map[string]any{"query": "  "}, searcher: &fakeSearcher{}},
		{name: "negative top_n", args: map[string]any{"query": "robotics", "top_n": -1}, searcher: &fakeSearcher{}},
		{name: "wrong type", args: map[string]any{"query": 42}, searcher: &fakeSearcher{}},
		{name: "search failure", args: map[string]any{"query": "robotics"}, searcher: &fakeSearcher{err: errors.New("catalogue unavailable")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(tt.searcher, nil, "test")

			result, err := s.handleSearch(context.Background(), newCallToolRequest(tt.args))

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.True(t, result.IsError)
		})
	}
}

func TestHandleSearch_UsesStoredProfile(t *testing.T) {
	searcher := &fakeSearcher{}
	resolver := &fakeResolver{profile: &search.Profile{Religion: "Muslim"}}
	s := NewServer(searcher, resolver, "test")

	ctx := context.WithValue(context.Background(), authorizationKey{}, "Bearer abc")
	_, err := s.handleSearch(ctx, newCallToolRequest(map[string]any{"query": "community"}))
	require.NoError(t, err)

	assert.Equal(t, "Bearer abc", resolver.authorization)
	assert.Equal(t, &search.Profile{Religion: "Muslim"}, searcher.got.Profile)
}

func TestHandleSearch_ExplicitProfileSkipsResolver(t *testing.T) {
	searcher := &fakeSearcher{}
	resolver := &fakeResolver{profile: &search.Profile{Religion: "Muslim"}}
	s := NewServer(searcher, resolver, "test")

	ctx := context.WithValue(context.Background(), authorizationKey{}, "Bearer abc")
	_, err := s.handleSearch(ctx, newCallToolRequest(map[string]any{"query": "community", "major": "History"}))
	require.NoError(t, err)

	assert.Empty(t, resolver.authorization)
	assert.Equal(t, &search.Profile{Major: "History"}, searcher.got.Profile)
}

func TestHandleSearch_ResolverFailureSearchesUnfiltered(t *testing.T) {
	searcher := &fakeSearcher{}
	s := NewServer(searcher, &fakeResolver{err: errors.New("token rejected")}, "test")

	ctx := context.WithValue(context.Background(), authorizationKey{}, "Bearer abc")
	result, err := s.handleSearch(ctx, newCallToolRequest(map[string]any{"query": "community"}))
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.Nil(t, searcher.got.Profile)
}

func postJSONRPC(t *testing.T, h http.Handler, sessionID, authorization, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, EndpointPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestStreamableHTTP(t *testing.T) {
	searcher := &fakeSearcher{results: []search.Result{{Name: "Chess Club", RelevanceScore: 12}}}
	resolver := &fakeResolver{}
	s := NewServer(searcher, resolver, "test")
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	w := postJSONRPC(t, s.Handler(), "", "", `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0.0"}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"clubfinder"`)
	sessionID := w.Header().Get("Mcp-Session-Id")

	w = postJSONRPC(t, s.Handler(), sessionID, "", `{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), SearchToolName)

	w = postJSONRPC(t, s.Handler(), sessionID, "Bearer abc", `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"search_organizations","arguments":{"query":"chess"}}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Chess Club")
	assert.Equal(t, "Bearer abc", resolver.authorization)
}
