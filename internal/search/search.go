package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/clubfinder/clubfinder/internal/metrics"
)

const snippetLength = 200

// ScoreBreakdown counts keyword hits per field for display.
type ScoreBreakdown struct {
	NameMatches       int `json:"name_matches"`
	MajorsMatches     int `json:"majors_matches"`
	ActivitiesMatches int `json:"activities_matches"`
	CultureMatches    int `json:"culture_matches"`
	BioMatches        int `json:"bio_matches"`
}

// Result is one ranked organization.
type Result struct {
	ID                        string         `json:"id,omitempty"`
	Name                      string         `json:"name"`
	RelevanceScore            int            `json:"relevance_score"`
	BioSnippet                string         `json:"bio_snippet"`
	TypicalMajors             string         `json:"typical_majors"`
	TypicalActivities         string         `json:"typical_activities"`
	ClubCultureStyle          string         `json:"club_culture_style"`
	ScoreBreakdown            ScoreBreakdown `json:"score_breakdown"`
	FullBio                   string         `json:"full_bio"`
	Website                   string         `json:"website"`
	AdministrativeContactInfo string         `json:"administrative_contact_info"`
	MeetingFrequency          string         `json:"meeting_frequency"`
	MeetingTimes              string         `json:"meeting_times"`
	MeetingLocations          string         `json:"meeting_locations"`
	DuesRequired              string         `json:"dues_required"`
	DuesCost                  string         `json:"dues_cost"`
	ApplicationRequired       string         `json:"application_required"`
	TimeCommitment            string         `json:"time_commitment"`
	MemberCount               string         `json:"member_count"`
}

// Request is a search over the catalogue.
type Request struct {
	Query   string
	Profile *Profile
	// TopN limits the number of results; zero or less returns every match.
	TopN int
}

// Search ranks orgs against the query. Only organizations with a positive
// score that the profile is eligible for are returned, best first; ties keep
// catalogue order.
func Search(orgs []Organization, req Request) []Result {
	keywords := ParseKeywords(req.Query)
	if len(orgs) == 0 || len(keywords) == 0 {
		return []Result{}
	}

	type scored struct {
		org   Organization
		score int
	}
	var matches []scored
	for _, org := range orgs {
		score := Score(org, keywords, req.Profile)
		if score <= 0 || !Eligible(org, req.Profile) {
			continue
		}
		matches = append(matches, scored{org: org, score: score})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if req.TopN > 0 && len(matches) > req.TopN {
		matches = matches[:req.TopN]
	}

	results := make([]Result, 0, len(matches))
	for _, m := range matches {
		results = append(results, newResult(m.org, m.score, keywords))
	}
	return results
}

func newResult(o Organization, score int, keywords []string) Result {
	return Result{
		ID:                        o.ID,
		Name:                      o.Name,
		RelevanceScore:            score,
		BioSnippet:                snippet(o.Bio),
		TypicalMajors:             o.TypicalMajors,
		TypicalActivities:         o.TypicalActivities,
		ClubCultureStyle:          o.ClubCultureStyle,
		ScoreBreakdown:            breakdown(o, keywords),
		FullBio:                   o.Bio,
		Website:                   o.Website,
		AdministrativeContactInfo: o.AdministrativeContactInfo,
		MeetingFrequency:          o.MeetingFrequency,
		MeetingTimes:              o.MeetingTimes,
		MeetingLocations:          o.MeetingLocations,
		DuesRequired:              o.DuesRequired,
		DuesCost:                  o.DuesCost,
		ApplicationRequired:       o.ApplicationRequired,
		TimeCommitment:            o.TimeCommitment,
		MemberCount:               o.MemberCount,
	}
}

func snippet(bio string) string {
	if utf8.RuneCountInString(bio) <= snippetLength {
		return bio
	}
	return string([]rune(bio)[:snippetLength]) + "..."
}

func breakdown(o Organization, keywords []string) ScoreBreakdown {
	f := lowerFields(o)
	var b ScoreBreakdown
	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if strings.Contains(f.name, kw) {
			b.NameMatches += 10
		}
		if strings.Contains(f.majors, kw) {
			b.MajorsMatches += 10
		}
		if strings.Contains(f.activities, kw) {
			b.ActivitiesMatches += 5
		}
		if strings.Contains(f.culture, kw) {
			b.CultureMatches += 5
		}
		if strings.Contains(f.bio, kw) {
			b.BioMatches++
		}
	}
	return b
}

// Service runs searches against a cached catalogue.
type Service struct {
	catalogue   *Catalogue
	defaultTopN int
	metrics     metrics.Recorder
}

// NewService creates a search service. A nil recorder disables metrics.
func NewService(catalogue *Catalogue, defaultTopN int, recorder metrics.Recorder) *Service {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &Service{
		catalogue:   catalogue,
		defaultTopN: defaultTopN,
		metrics:     recorder,
	}
}

// Search loads the catalogue and ranks it. A request without TopN uses the
// service default.
func (s *Service) Search(ctx context.Context, req Request) ([]Result, error) {
	start := time.Now()
	defer func() { s.metrics.RecordSearchLatency(time.Since(start)) }()

	orgs, err := s.catalogue.Organizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading organizations: %w", err)
	}

	if req.TopN == 0 {
		req.TopN = s.defaultTopN
	}
	return Search(orgs, req), nil
}
