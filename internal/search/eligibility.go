package search

import (
	"strings"
	"unicode"
)

type religionKeywords struct {
	religion string
	keywords []string
}

// religions is checked in order; the first religion whose keywords appear
// in an organization's name or bio is the organization's religion.
var religions = []religionKeywords{
	{"christian", []string{"christian", "christ", "jesus", "bible", "gospel", "church", "ministry", "campus crusade", "cru", "methodist", "catholic", "baptist", "presbyterian", "lutheran", "episcopal", "orthodox christian", "wesley", "intervarsity", "navigators"}},
	{"muslim", []string{"muslim", "islam", "islamic", "mosque", "masjid", "ramadan", "hijab"}},
	{"jewish", []string{"jewish", "judaism", "hillel", "synagogue", "hebrew", "shabbat", "kosher"}},
	{"hindu", []string{"hindu", "hinduism", "temple", "puja", "veda", "yoga", "bhakti"}},
	{"buddhist", []string{"buddhist", "buddhism", "buddha", "meditation", "zen", "dharma"}},
}

// careerFieldKeywords maps survey career fields to terms that signal them
// in an organization's typical majors.
var careerFieldKeywords = map[string][]string{
	"engineering":                 {"engineering", "engineer", "tech"},
	"technology/computer science": {"computer", "technology", "tech", "cs", "programming", "software", "coding", "science"},
	"business/finance":            {"business", "finance", "mays", "accounting", "economics"},
	"medicine/healthcare":         {"medicine", "medical", "health", "healthcare", "pre-med", "premed", "bims", "biology"},
	"law":                         {"law", "legal", "pre-law", "prelaw"},
	"education":                   {"education", "teaching", "teach"},
	"arts/design":                 {"art", "arts", "design", "graphic"},
	"science/research":            {"science", "research", "chemistry", "physics"},
	"agriculture":                 {"agriculture", "ag", "agri"},
	"communication/media":         {"communication", "media", "journalism", "journal"},
	"social work":                 {"social work", "social"},
	"government/public service":   {"government", "public", "public service", "political", "politics"},
	"sports/fitness":              {"sports", "fitness", "athletic", "athletics", "recreation"},
	"hospitality/tourism":         {"hospitality", "tourism", "hotel", "restaurant"},
}

var (
	femaleTerms = []string{"female", "women", "woman"}
	maleTerms   = []string{"male", "men", "man"}
)

func norm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func hasAnyWord(s string, words []string) bool {
	for _, token := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		for _, w := range words {
			if token == w {
				return true
			}
		}
	}
	return false
}

func isFemale(gender string) bool { return gender == "female" || gender == "woman" }
func isMale(gender string) bool   { return gender == "male" || gender == "man" }

// Eligible reports whether a student with profile p may join o.
// A nil or empty profile is eligible everywhere.
func Eligible(o Organization, p *Profile) bool {
	if p.IsZero() {
		return true
	}
	return genderEligible(o, norm(p.Gender)) &&
		raceEligible(o, norm(p.Race)) &&
		classificationEligible(o, norm(p.Classification)) &&
		sexualityEligible(o, norm(p.Sexuality)) &&
		religionEligible(o, norm(p.Religion)) &&
		careerEligible(o, p.CareerFields.normalized())
}

func genderEligible(o Organization, gender string) bool {
	if gender == "" {
		return true
	}

	name := strings.ToLower(o.Name)
	switch {
	case hasAnyWord(name, femaleTerms):
		if !isFemale(gender) {
			return false
		}
	case hasAnyWord(name, maleTerms):
		if !isMale(gender) {
			return false
		}
	}

	eligible := norm(o.EligibleGender)
	if blank(eligible) || eligible == "all" {
		return true
	}
	switch {
	case containsAny(eligible, femaleTerms):
		return isFemale(gender)
	case containsAny(eligible, maleTerms):
		return isMale(gender)
	}

	// Free-form value: accept either containing the other or a shared word.
	if strings.Contains(eligible, gender) || strings.Contains(gender, eligible) {
		return true
	}
	for _, word := range strings.Fields(gender) {
		if strings.Contains(eligible, word) {
			return true
		}
	}
	return false
}

func raceEligible(o Organization, race string) bool {
	eligible := norm(o.EligibleRaces)
	if race == "" || blank(eligible) || strings.Contains(eligible, "all") {
		return true
	}

	for _, group := range []string{"asian", "hispanic", "black", "white"} {
		if strings.Contains(race, group) && strings.Contains(eligible, group) {
			return true
		}
	}
	return strings.Contains(eligible, race)
}

func classificationEligible(o Organization, classification string) bool {
	if classification == "" {
		return true
	}

	typical := norm(o.TypicalClassifications)
	all := norm(o.AllEligibleClassifications)
	if !blank(typical) && strings.Contains(typical, classification) {
		return true
	}
	if !blank(all) {
		return strings.Contains(all, classification)
	}

	// Typical classifications describe who usually joins, not who may.
	name := strings.ToLower(o.Name)
	switch {
	case strings.Contains(name, "graduate student"):
		return classification == "graduate"
	case strings.Contains(name, "freshman"), strings.Contains(name, "freshmen"):
		return classification == "freshman"
	}
	return true
}

func sexualityEligible(o Organization, sexuality string) bool {
	eligible := norm(o.EligibleSexuality)
	if sexuality == "" || blank(eligible) || eligible == "all" {
		return true
	}
	return strings.Contains(eligible, sexuality) || strings.Contains(sexuality, eligible)
}

// organizationReligion returns the religion an organization is affiliated
// with, or "" when it is not religious.
func organizationReligion(o Organization) string {
	text := strings.ToLower(o.Name + " " + o.Bio)
	for _, r := range religions {
		if containsAny(text, r.keywords) {
			return r.religion
		}
	}
	return ""
}

func religionEligible(o Organization, religion string) bool {
	if religion == "" {
		return true
	}
	orgReligion := organizationReligion(o)
	return orgReligion == "" || orgReligion == religion
}

func careerEligible(o Organization, careerFields []string) bool {
	majors := strings.ToLower(o.TypicalMajors)
	if len(careerFields) == 0 || blank(majors) {
		return true
	}

	for _, field := range careerFields {
		if strings.Contains(majors, field) {
			return true
		}
		if containsAny(majors, careerFieldKeywords[field]) {
			return true
		}
	}
	return false
}

// CareerFieldOptions are the career fields offered on the survey.
var CareerFieldOptions = []string{
	"Engineering",
	"Technology/Computer Science",
	"Business/Finance",
	"Medicine/Healthcare",
	"Law",
	"Education",
	"Arts/Design",
	"Science/Research",
	"Agriculture",
	"Communication/Media",
	"Social Work",
	"Government/Public Service",
	"Sports/Fitness",
	"Hospitality/Tourism",
}
