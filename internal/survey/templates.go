package survey

import (
	_ "embed"
	"html/template"

	"github.com/clubfinder/clubfinder/internal/search"
)

//go:embed templates/survey.html
var surveyPageTemplateHTML string

var surveyPageTemplate = template.Must(template.New("survey").Parse(surveyPageTemplateHTML))

// PageData represents the data for the survey page
type PageData struct {
	CSRFToken    string
	Query        string
	Profile      search.Profile
	Questions    []Question
	CareerFields []CareerFieldOption
	Submitted    bool
	Results      []search.Result
	Message      string
	MessageType  string // "success" or "error"
}

// Question is a single-choice demographic question
type Question struct {
	Name     string
	Label    string
	Options  []string
	Selected string
}

// CareerFieldOption is one checkbox of the career field list
type CareerFieldOption struct {
	Value   string
	Checked bool
}

var (
	genderOptions         = []string{"Male", "Female", "Non-binary", "Other"}
	raceOptions           = []string{"Asian", "South Asian", "Black", "Hispanic", "White", "Other"}
	classificationOptions = []string{"Freshman", "Sophomore", "Junior", "Senior", "Graduate"}
	sexualityOptions      = []string{"Straight", "Gay", "Lesbian", "Bisexual", "Other"}
	religionOptions       = []string{"Christian", "Muslim", "Jewish", "Hindu", "Buddhist", "Other"}
)

func questions(p search.Profile) []Question {
	return []Question{
		{Name: "gender", Label: "Gender", Options: genderOptions, Selected: p.Gender},
		{Name: "race", Label: "Race / ethnicity", Options: raceOptions, Selected: p.Race},
		{Name: "classification", Label: "Classification", Options: classificationOptions, Selected: p.Classification},
		{Name: "sexuality", Label: "Sexuality", Options: sexualityOptions, Selected: p.Sexuality},
		{Name: "religion", Label: "Religion", Options: religionOptions, Selected: p.Religion},
	}
}

func careerFieldOptions(selected search.CareerFields) []CareerFieldOption {
	checked := make(map[string]bool, len(selected))
	for _, f := range selected {
		checked[f] = true
	}
	options := make([]CareerFieldOption, len(search.CareerFieldOptions))
	for i, f := range search.CareerFieldOptions {
		options[i] = CareerFieldOption{Value: f, Checked: checked[f]}
	}
	return options
}

func newPageData(csrfToken, query string, p search.Profile) PageData {
	return PageData{
		CSRFToken:    csrfToken,
		Query:        query,
		Profile:      p,
		Questions:    questions(p),
		CareerFields: careerFieldOptions(p.CareerFields),
	}
}
