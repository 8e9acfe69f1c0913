package search

import "strings"

// Field weights.
const (
	weightName          = 12
	weightMajors        = 10
	weightActivities    = 8
	weightCulture       = 4
	weightBio           = 2
	weightBioNoMajors   = 8
	weightBioPhrase     = 6
	exactPhraseBonus    = 12
	techOrgBonus        = 5
	competitionBonus    = 3
	noAlignmentPenalty  = 0.7
	strongKeywordWeight = 1.2
	demographicWeight   = 0.3
)

var (
	careerKeywords = []string{
		"engineering", "business", "finance", "medicine", "healthcare",
		"law", "education", "arts", "design", "technology", "computer",
		"science", "research", "agriculture", "communication", "media",
		"social", "work", "government", "public", "service", "sports",
		"fitness", "hospitality", "tourism",
	}
	activityKeywords = []string{
		"volunteering", "social", "events", "projects", "competitions",
		"workshops", "trips",
	}
	demographicKeywords = []string{
		"male", "female", "asian", "white", "black", "hispanic",
		"freshman", "sophomore", "junior", "senior", "graduate",
		"christian", "muslim", "jewish", "hindu", "buddhist",
		"campus", "off-campus", "on-campus",
	}

	techOrgTerms     = []string{"hack", "acm", "programming", "coding", "data science", "computing", "software", "developer"}
	techQueryTerms   = []string{"computer", "technology", "tech", "programming", "coding", "engineering", "software", "data"}
	competitionTerms = []string{"competitions", "competition", "hack", "hackathon"}
)

// keywordWeight ranks career and activity terms above neutral ones, and
// demographic terms below, since demographics are for filtering.
func keywordWeight(keyword string) float64 {
	switch {
	case containsAny(keyword, careerKeywords), containsAny(keyword, activityKeywords):
		return strongKeywordWeight
	case containsAny(keyword, demographicKeywords):
		return demographicWeight
	}
	return 1.0
}

// lowered holds the lowercase text fields used for matching.
type lowered struct {
	name, majors, activities, culture, bio string
	hasMajors                              bool
}

func lowerFields(o Organization) lowered {
	l := lowered{
		name:       strings.ToLower(o.Name),
		majors:     strings.ToLower(o.TypicalMajors),
		activities: strings.ToLower(o.TypicalActivities),
		culture:    strings.ToLower(o.ClubCultureStyle),
		bio:        strings.ToLower(o.Bio),
	}
	l.hasMajors = l.majors != "" && l.majors != "nan"
	if l.activities == "nan" {
		l.activities = ""
	}
	if l.culture == "nan" {
		l.culture = ""
	}
	return l
}

func majorBonus(f lowered, major string) float64 {
	if major == "" || !f.hasMajors {
		return 0
	}
	if strings.Contains(f.majors, major) {
		return weightMajors * 1.8
	}
	for _, word := range strings.Fields(major) {
		if len(word) > 3 && strings.Contains(f.majors, word) {
			return weightMajors * 1.3
		}
	}
	for _, orgMajor := range strings.Split(f.majors, ",") {
		orgMajor = strings.TrimSpace(orgMajor)
		if len(orgMajor) > 3 && strings.Contains(major, orgMajor) {
			return weightMajors * 1.1
		}
	}
	return 0
}

// careerFieldScore scores the profile's career fields against the
// organization's comma-separated typical majors.
func careerFieldScore(f lowered, careerFields []string) (score float64, matches int) {
	if len(careerFields) == 0 || !f.hasMajors {
		return 0, 0
	}

	var orgFields []string
	for _, field := range strings.Split(f.majors, ",") {
		if field = strings.TrimSpace(field); field != "" {
			orgFields = append(orgFields, field)
		}
	}

	for _, career := range careerFields {
		switch {
		case contains(orgFields, career):
			score += weightMajors * 0.8
		case partialMatch(orgFields, career):
			score += weightMajors * 0.6
		case containsAny(f.majors, strings.Fields(career)):
			score += weightMajors * 0.4
		default:
			continue
		}
		matches++
	}
	return score, matches
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func partialMatch(list []string, s string) bool {
	for _, item := range list {
		if strings.Contains(item, s) || strings.Contains(s, item) {
			return true
		}
	}
	return false
}

func bioHasPhrase(bioWords []string, keyword string) bool {
	for i := 0; i+1 < len(bioWords); i++ {
		if strings.Contains(bioWords[i]+" "+bioWords[i+1], keyword) {
			return true
		}
	}
	return false
}

// Score computes the relevance of o for the given keywords. The profile's
// major and career fields add bonuses; p may be nil.
func Score(o Organization, keywords []string, p *Profile) int {
	f := lowerFields(o)

	var major string
	var careerFields []string
	if p != nil {
		major = norm(p.Major)
		careerFields = p.CareerFields.normalized()
	}

	score := majorBonus(f, major)
	careerScore, careerMatches := careerFieldScore(f, careerFields)
	score += careerScore

	bioWords := strings.Fields(f.bio)
	matchedKeywords := 0
	activityMatches := 0

	for _, keyword := range keywords {
		kw := strings.ToLower(strings.TrimSpace(keyword))
		if len(kw) < 2 {
			continue
		}

		weight := keywordWeight(kw)
		matched := false

		if strings.Contains(f.name, kw) {
			score += weightName * weight
			matched = true
		}
		if f.hasMajors && strings.Contains(f.majors, kw) {
			score += weightMajors * weight
			matched = true
			if weight >= strongKeywordWeight {
				careerMatches++
			}
		}
		if f.activities != "" && strings.Contains(f.activities, kw) {
			score += weightActivities * weight
			matched = true
			if weight >= strongKeywordWeight {
				activityMatches++
			}
		}
		if f.culture != "" && strings.Contains(f.culture, kw) {
			score += weightCulture * weight
			matched = true
		}
		if strings.Contains(f.bio, kw) {
			bioWeight := float64(weightBio)
			if !f.hasMajors {
				bioWeight = weightBioNoMajors
			}
			score += bioWeight * weight
			matched = true
		}
		if len(kw) > 4 && bioHasPhrase(bioWords, kw) {
			score += weightBioPhrase * weight
		}

		if matched {
			matchedKeywords++
		}
	}

	switch {
	case careerMatches >= 2:
		score += 8
	case careerMatches >= 1:
		score += 4
	}

	switch {
	case activityMatches >= 3:
		score += 10
	case activityMatches >= 2:
		score += 5
	}

	switch {
	case matchedKeywords >= 5:
		score += 8
	case matchedKeywords >= 3:
		score += 5
	case matchedKeywords >= 2:
		score += 2
	}

	orgText := strings.Join([]string{f.name, f.majors, f.activities, f.bio}, " ")
	for i := 0; i+1 < len(keywords); i++ {
		phrase := strings.ToLower(keywords[i] + " " + keywords[i+1])
		if strings.Contains(orgText, phrase) {
			score += exactPhraseBonus
			break
		}
	}

	queryText := strings.ToLower(strings.Join(keywords, " "))
	if containsAny(f.name, techOrgTerms) && containsAny(queryText, techQueryTerms) {
		score += techOrgBonus
	}
	if (strings.Contains(f.activities, "competitions") || strings.Contains(f.name, "hack")) &&
		containsAny(queryText, competitionTerms) {
		score += competitionBonus
	}

	if careerMatches == 0 && activityMatches == 0 {
		score *= noAlignmentPenalty
	}

	return int(score)
}
