// Package search ranks student organizations against a free-text query and
// filters them by what a student's profile makes them eligible for.
package search

import "strings"

// Organization is one row of the catalogue. Missing values are empty strings.
type Organization struct {
	ID                         string
	Name                       string
	Bio                        string
	TypicalMajors              string
	TypicalActivities          string
	ClubCultureStyle           string
	EligibleGender             string
	EligibleRaces              string
	TypicalClassifications     string
	AllEligibleClassifications string
	EligibleSexuality          string
	Website                    string
	AdministrativeContactInfo  string
	MeetingFrequency           string
	MeetingTimes               string
	MeetingLocations           string
	DuesRequired               string
	DuesCost                   string
	ApplicationRequired        string
	TimeCommitment             string
	MemberCount                string
}

// columns maps catalogue column names to Organization fields.
var columns = map[string]func(o *Organization) *string{
	"id":                           func(o *Organization) *string { return &o.ID },
	"name":                         func(o *Organization) *string { return &o.Name },
	"bio":                          func(o *Organization) *string { return &o.Bio },
	"typical_majors":               func(o *Organization) *string { return &o.TypicalMajors },
	"typical_activities":           func(o *Organization) *string { return &o.TypicalActivities },
	"club_culture_style":           func(o *Organization) *string { return &o.ClubCultureStyle },
	"eligible_gender":              func(o *Organization) *string { return &o.EligibleGender },
	"eligible_races":               func(o *Organization) *string { return &o.EligibleRaces },
	"typical_classifications":      func(o *Organization) *string { return &o.TypicalClassifications },
	"all_eligible_classifications": func(o *Organization) *string { return &o.AllEligibleClassifications },
	"eligible_sexuality":           func(o *Organization) *string { return &o.EligibleSexuality },
	"website":                      func(o *Organization) *string { return &o.Website },
	"administrative_contact_info":  func(o *Organization) *string { return &o.AdministrativeContactInfo },
	"meeting_frequency":            func(o *Organization) *string { return &o.MeetingFrequency },
	"meeting_times":                func(o *Organization) *string { return &o.MeetingTimes },
	"meeting_locations":            func(o *Organization) *string { return &o.MeetingLocations },
	"dues_required":                func(o *Organization) *string { return &o.DuesRequired },
	"dues_cost":                    func(o *Organization) *string { return &o.DuesCost },
	"application_required":         func(o *Organization) *string { return &o.ApplicationRequired },
	"time_commitment":              func(o *Organization) *string { return &o.TimeCommitment },
	"member_count":                 func(o *Organization) *string { return &o.MemberCount },
}

// Columns lists the catalogue columns in a stable order.
var Columns = []string{
	"id", "name", "bio", "typical_majors", "typical_activities", "club_culture_style",
	"eligible_gender", "eligible_races", "typical_classifications",
	"all_eligible_classifications", "eligible_sexuality", "website",
	"administrative_contact_info", "meeting_frequency", "meeting_times",
	"meeting_locations", "dues_required", "dues_cost", "application_required",
	"time_commitment", "member_count",
}

// Set assigns a column value. Unknown columns are ignored.
func (o *Organization) Set(column, value string) {
	field, ok := columns[strings.ToLower(strings.TrimSpace(column))]
	if !ok {
		return
	}
	*field(o) = value
}

// Get returns a column value, or "" for unknown columns.
func (o *Organization) Get(column string) string {
	field, ok := columns[strings.ToLower(strings.TrimSpace(column))]
	if !ok {
		return ""
	}
	return *field(o)
}

// blank reports values that carry no information, including the
// literal placeholders spreadsheets leave behind.
func blank(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "nan", "none":
		return true
	}
	return false
}
