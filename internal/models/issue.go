package models

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Severity ranks a scan issue.
type Severity string

const (
	// SeverityCritical marks a missing target with an on-disk whitespace-free candidate.
	SeverityCritical Severity = "critical"
	// SeverityWarning marks a spaced path segment containing Han ideographs.
	SeverityWarning Severity = "warning"
	// SeverityInfo marks any other spaced path.
	SeverityInfo Severity = "info"
)

// ParseSeverity returns the severity named by s and whether it is known.
func ParseSeverity(s string) (Severity, bool) {
	switch Severity(s) {
	case SeverityCritical, SeverityWarning, SeverityInfo:
		return Severity(s), true
	}
	return "", false
}

// Issue is an image reference flagged by the scanner.
type Issue struct {
	Ref        ImageRef `json:"ref"`
	HasSpaces  bool     `json:"has_spaces"`
	Suspicious []string `json:"suspicious,omitempty"`
	Exists     bool     `json:"exists"`
	Resolved   string   `json:"resolved"`
	Suggestion string   `json:"suggestion,omitempty"`
	Severity   Severity `json:"severity"`
}

// SuggestedLink renders the matched link with the suggested path
// substituted for the destination. Alt text, title and angle brackets are
// kept as written.
func (i Issue) SuggestedLink() string {
	if i.Suggestion == "" {
		return ""
	}
	m := i.Ref.Match
	if open := strings.Index(m, "]("); open >= 0 {
		dest := m[open+2:]
		if at := strings.Index(dest, i.Ref.Path); at >= 0 {
			return m[:open+2] + dest[:at] + i.Suggestion + dest[at+len(i.Ref.Path):]
		}
	}
	return "![" + i.Ref.Alt + "](" + i.Suggestion + ")"
}

// FixEntry is one literal substitution to perform inside File.
type FixEntry struct {
	File     string `json:"file" yaml:"file"`
	Original string `json:"original" yaml:"original"`
	Fixed    string `json:"fixed" yaml:"fixed"`
}

// FixTable is the serialized form of a list of fix entries.
type FixTable struct {
	Fixes []FixEntry `json:"fixes" yaml:"fixes"`
}

// Validate checks that the entry names a file and a fragment to replace.
func (e FixEntry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.File, validation.Required),
		validation.Field(&e.Original, validation.Required),
	)
}
