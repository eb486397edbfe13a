// Package dates resolves Spanish natural-language date references against a
// reference clock. It covers the shapes the extractor actually produces
// (relative day words, DMY numeric dates, "hace N días"); anything else
// resolves to the reference time itself.
package dates

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultLocation is the user-facing time zone when none is configured.
const DefaultLocation = "America/Lima"

var (
	numericDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2,4}))?$`)
	daysAgo     = regexp.MustCompile(`^hace (\d+) d[ií]as?$`)
)

// Resolver resolves date references in a fixed location.
type Resolver struct {
	loc *time.Location
}

// NewResolver loads the named location, falling back to UTC when the zone
// database does not know it.
func NewResolver(location string) *Resolver {
	loc, err := time.LoadLocation(location)
	if err != nil {
		loc = time.UTC
	}
	return &Resolver{loc: loc}
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// Resolve maps a raw date reference to a concrete time. Empty or unparseable
// references resolve to now; this is the documented default, not an error.
func (r *Resolver) Resolve(ref string, now time.Time) time.Time {
	now = now.In(r.loc)
	ref = strings.ToLower(strings.TrimSpace(ref))

	switch ref {
	case "", "hoy", "ahora", "ahorita", "now", "today":
		return now
	case "ayer", "yesterday":
		return now.AddDate(0, 0, -1)
	case "anteayer", "antier":
		return now.AddDate(0, 0, -2)
	case "mañana", "tomorrow":
		return now.AddDate(0, 0, 1)
	}

	if m := daysAgo.FindStringSubmatch(ref); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return now.AddDate(0, 0, -n)
		}
		return now
	}

	if m := numericDate.FindStringSubmatch(ref); m != nil {
		// DMY order, current year when omitted.
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year := now.Year()
		if m[3] != "" {
			y, _ := strconv.Atoi(m[3])
			if y < 100 {
				y += 2000
			}
			year = y
		}
		if month >= 1 && month <= 12 && day >= 1 && day <= 31 {
			t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, r.loc)
			// Reject rollover like 31/02.
			if t.Day() == day && t.Month() == time.Month(month) {
				return t
			}
		}
	}

	return now
}
