// Package mcptools exposes organization search to MCP clients.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/clubfinder/clubfinder/internal/log"
	"github.com/clubfinder/clubfinder/internal/search"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const (
	serverName = "clubfinder"
	// EndpointPath is where the streamable HTTP transport is mounted.
	EndpointPath = "/mcp/"

	SearchToolName = "search_organizations"
)

type authorizationKey struct{}

// Server serves the search_organizations tool over streamable HTTP.
type Server struct {
	searcher  search.Searcher
	profiles  search.ProfileResolver
	mcpServer *mcpserver.MCPServer
	transport *mcpserver.StreamableHTTPServer
}

// NewServer builds the MCP server. profiles may be nil; when set, callers
// that send a bearer token and no profile fields are filtered by their saved
// profile.
func NewServer(searcher search.Searcher, profiles search.ProfileResolver, version string) *Server {
	s := &Server{
		searcher: searcher,
		profiles: profiles,
	}

	s.mcpServer = mcpserver.NewMCPServer(serverName, version,
		mcpserver.WithToolCapabilities(false),
		mcpserver.WithRecovery(),
	)
	s.mcpServer.AddTool(searchTool(), s.handleSearch)

	s.transport = mcpserver.NewStreamableHTTPServer(s.mcpServer,
		mcpserver.WithEndpointPath(EndpointPath),
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return context.WithValue(ctx, authorizationKey{}, r.Header.Get("Authorization"))
		}),
	)

	return s
}

func (s *Server) Handler() http.Handler {
	return s.transport
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.transport.Shutdown(ctx)
}

func searchTool() mcp.Tool {
	return mcp.NewTool(SearchToolName,
		mcp.WithDescription("Search student organizations by interests. Results are ranked by relevance, and organizations the student is not eligible for are left out when profile fields are given."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Interests to search for, e.g. \"robotics, volunteering\""),
		),
		mcp.WithNumber("top_n",
			mcp.Description("Maximum number of results; omit for the server default"),
			mcp.Min(0),
		),
		mcp.WithString("gender", mcp.Description("Student gender")),
		mcp.WithString("race", mcp.Description("Student race or ethnicity")),
		mcp.WithString("classification", mcp.Description("Freshman, Sophomore, Junior, Senior or Graduate")),
		mcp.WithString("sexuality", mcp.Description("Student sexuality")),
		mcp.WithString("religion", mcp.Description("Student religion")),
		mcp.WithString("major", mcp.Description("Student major")),
		mcp.WithString("career_fields", mcp.Description("Career fields of interest, comma-separated")),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// SearchInput is the argument object of the search tool.
type SearchInput struct {
	Query          string              `json:"query"`
	TopN           int                 `json:"top_n"`
	Gender         string              `json:"gender"`
	Race           string              `json:"race"`
	Classification string              `json:"classification"`
	Sexuality      string              `json:"sexuality"`
	Religion       string              `json:"religion"`
	Major          string              `json:"major"`
	CareerFields   search.CareerFields `json:"career_fields"`
}

// profile returns nil when no profile field was supplied.
func (in SearchInput) profile() *search.Profile {
	p := &search.Profile{
		Gender:         strings.TrimSpace(in.Gender),
		Race:           strings.TrimSpace(in.Race),
		Classification: strings.TrimSpace(in.Classification),
		Sexuality:      strings.TrimSpace(in.Sexuality),
		Religion:       strings.TrimSpace(in.Religion),
		Major:          strings.TrimSpace(in.Major),
		CareerFields:   in.CareerFields,
	}
	if p.IsZero() {
		return nil
	}
	return p
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SearchInput
	if err := request.BindArguments(&input); err != nil {
		return mcp.NewToolResultErrorFromErr("invalid search arguments", err), nil
	}
	if strings.TrimSpace(input.Query) == "" {
		return mcp.NewToolResultError("Missing query parameter"), nil
	}
	if input.TopN < 0 {
		return mcp.NewToolResultError("top_n must not be negative"), nil
	}

	profile := input.profile()
	if profile == nil && s.profiles != nil {
		if auth, _ := ctx.Value(authorizationKey{}).(string); auth != "" {
			stored, err := s.profiles.ResolveProfile(ctx, auth)
			if err != nil {
				log.LogDebugWithFields("mcp", "No stored profile for caller", map[string]any{
					"error": err.Error(),
				})
			}
			profile = stored
		}
	}

	results, err := s.searcher.Search(ctx, search.Request{
		Query:   input.Query,
		Profile: profile,
		TopN:    input.TopN,
	})
	if err != nil {
		log.LogErrorWithFields("mcp", "Search failed", map[string]any{
			"error": err.Error(),
		})
		return mcp.NewToolResultErrorFromErr("search failed", err), nil
	}

	body, err := json.Marshal(search.SearchResponse{Results: results})
	if err != nil {
		return nil, fmt.Errorf("encoding results: %w", err)
	}

	log.LogDebugWithFields("mcp", "Search tool called", map[string]any{
		"query":   input.Query,
		"results": len(results),
	})
	return mcp.NewToolResultText(string(body)), nil
}
