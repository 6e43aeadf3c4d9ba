package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// absoluteLayouts are tried in order; the first layout that parses wins.
// Unambiguous ISO forms come first so they always beat the ambiguous
// day/month orderings further down. This ordering is a contract: callers
// rely on "2024-05-12" never being read day-first.
var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
	"January 2, 2006 15:04",
	"January 2, 2006",
	"Jan 2, 2006 15:04",
	"Jan 2, 2006",
	"2 January 2006 15:04",
	"2 January 2006",
	"2 Jan 2006 15:04",
	"2 Jan 2006",
}

// datePatterns locate a date-shaped substring (with optional adjacent
// time) inside free-form text, for re-parsing against absoluteLayouts.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{4}-\d{2}-\d{2}(?:[T ]\d{2}:\d{2}(?::\d{2})?(?:Z|[+-]\d{2}:?\d{2})?)?`),
	regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}(?:\s+\d{1,2}:\d{2})?`),
	regexp.MustCompile(`(?i)\d{1,2}\s+(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{4}(?:\s+\d{1,2}:\d{2})?`),
	regexp.MustCompile(`(?i)(?:Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec)[a-z]*\s+\d{1,2},?\s+\d{4}(?:\s+\d{1,2}:\d{2})?`),
}

// countdownPattern captures optional day/hour/minute/second components of
// a relative deadline ("Ends in 2 days 3 hours"). A match with no
// components present is no match at all.
var countdownPattern = regexp.MustCompile(
	`(?i)(?:(\d+)\s*d(?:ay)?s?\b)?[,\s]*` +
		`(?:(\d+)\s*h(?:(?:ou)?r)?s?\b)?[,\s]*` +
		`(?:(\d+)\s*m(?:in(?:ute)?)?s?\b)?[,\s]*` +
		`(?:(\d+)\s*s(?:ec(?:ond)?)?s?\b)?`)

// Deadline resolves raw deadline text into a UTC instant. Absolute
// formats are tried first, then a date-shaped substring extracted from
// the text, then relative countdown components added to referenceNow.
// Values carrying no UTC offset are taken as already UTC. Returns nil
// when nothing matches; it never fails.
func Deadline(text string, referenceNow time.Time) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if t := parseAbsolute(text); t != nil {
		return t
	}
	if t := extractAbsolute(text); t != nil {
		return t
	}
	return addCountdown(text, referenceNow)
}

func parseAbsolute(text string) *time.Time {
	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			utc := t.UTC()
			return &utc
		}
	}
	return nil
}

func extractAbsolute(text string) *time.Time {
	for _, pattern := range datePatterns {
		fragment := pattern.FindString(text)
		if fragment == "" {
			continue
		}
		if t := parseAbsolute(strings.TrimSpace(fragment)); t != nil {
			return t
		}
	}
	return nil
}

func addCountdown(text string, referenceNow time.Time) *time.Time {
	for _, m := range countdownPattern.FindAllStringSubmatch(text, -1) {
		if m[1] == "" && m[2] == "" && m[3] == "" && m[4] == "" {
			continue
		}
		d := time.Duration(atoi(m[1]))*24*time.Hour +
			time.Duration(atoi(m[2]))*time.Hour +
			time.Duration(atoi(m[3]))*time.Minute +
			time.Duration(atoi(m[4]))*time.Second
		t := referenceNow.Add(d).UTC()
		return &t
	}
	return nil
}

func atoi(s string) int {
	if s == "" {
		return 0
	}
	n, _ := strconv.Atoi(s)
	return n
}
