package search

import (
	"encoding/json"
	"strings"
)

// Profile holds a student's survey answers.
type Profile struct {
	Gender         string       `json:"gender,omitempty"`
	Race           string       `json:"race,omitempty"`
	Classification string       `json:"classification,omitempty"`
	Sexuality      string       `json:"sexuality,omitempty"`
	Religion       string       `json:"religion,omitempty"`
	Major          string       `json:"major,omitempty"`
	CareerFields   CareerFields `json:"careerFields,omitempty"`
}

// IsZero reports whether no answer was given.
func (p *Profile) IsZero() bool {
	if p == nil {
		return true
	}
	return p.Gender == "" && p.Race == "" && p.Classification == "" &&
		p.Sexuality == "" && p.Religion == "" && p.Major == "" &&
		len(p.CareerFields) == 0
}

// CareerFields accepts either a JSON list or a comma-separated string.
type CareerFields []string

func (c *CareerFields) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*c = list
		return nil
	}

	var joined string
	if err := json.Unmarshal(data, &joined); err != nil {
		return err
	}
	*c = SplitCareerFields(joined)
	return nil
}

// SplitCareerFields splits a comma-separated list, dropping empty entries.
func SplitCareerFields(s string) CareerFields {
	var fields CareerFields
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// normalized returns the lowercased, trimmed, non-empty career fields.
func (c CareerFields) normalized() []string {
	out := make([]string, 0, len(c))
	for _, f := range c {
		if f = strings.ToLower(strings.TrimSpace(f)); f != "" {
			out = append(out, f)
		}
	}
	return out
}
