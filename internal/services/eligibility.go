package services

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/ndavydov/applicant-sync/internal/entities"
)

// Rules are the configured eligibility criteria.
type Rules struct {
	AllowedCountries   []string
	MaxPreferredRate   float64
	MinAvailability    float64
	MinExperienceYears float64
	Tier1Companies     []string
}

// Evaluator derives the shortlisting decision from a snapshot. Pure: no I/O,
// no writes.
type Evaluator struct {
	rules Rules
	now   func() time.Time
}

func NewEvaluator(rules Rules) *Evaluator {
	return &Evaluator{rules: rules, now: time.Now}
}

// MeetsCriteria is true only when all three gates pass:
// location country in the allow-list, preferred rate at or under the ceiling
// with availability at or over the floor, and tenure at or over the minimum
// or any tier-1 employer on record.
func (e *Evaluator) MeetsCriteria(snapshot entities.Snapshot) bool {

	country := countryOf(string(snapshot.Personal.Location))
	if country == "" || !lo.Contains(e.rules.AllowedCountries, country) {
		return false
	}

	preferredRate, err := snapshot.Salary.PreferredRate.Float()
	if err != nil {
		return false
	}
	availability, err := snapshot.Salary.Availability.Float()
	if err != nil {
		return false
	}
	if preferredRate > e.rules.MaxPreferredRate || availability < e.rules.MinAvailability {
		return false
	}

	if ExperienceYears(snapshot.Experience, e.now()) < e.rules.MinExperienceYears &&
		!e.workedAtTier1(snapshot.Experience) {
		return false
	}

	return true
}

// countryOf extracts the country from a free-text location: the part after
// the last comma, or the whole string when there is none.
func countryOf(location string) string {
	if idx := strings.LastIndex(location, ","); idx >= 0 {
		return strings.TrimSpace(location[idx+1:])
	}
	return strings.TrimSpace(location)
}

// ExperienceYears sums the durations of all entries in years, rounded to one
// decimal. An absent end date means a still-current role and defaults to
// today; entries with unparseable dates or end before start contribute zero.
func ExperienceYears(experience []entities.ExperienceEntry, today time.Time) float64 {

	var totalDays float64
	for _, entry := range experience {
		start, err := parseFlexibleDate(string(entry.Start))
		if err != nil {
			continue
		}

		end := today
		if !entry.End.IsBlank() {
			if end, err = parseFlexibleDate(string(entry.End)); err != nil {
				continue
			}
		}

		if end.Before(start) {
			continue
		}
		totalDays += end.Sub(start).Hours() / 24
	}

	return math.Round(totalDays/365.25*10) / 10
}

// parseFlexibleDate accepts YYYY-MM-DD or a bare 4-digit year (taken as
// January 1st of that year).
func parseFlexibleDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if strings.Contains(value, "-") {
		return time.Parse("2006-01-02", value)
	}

	year, err := strconv.Atoi(value)
	if err != nil || len(value) != 4 {
		return time.Time{}, &ValidationError{Message: "not a 4-digit year or YYYY-MM-DD date: " + value}
	}
	return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), nil
}

func (e *Evaluator) workedAtTier1(experience []entities.ExperienceEntry) bool {
	for _, entry := range experience {
		company := strings.TrimSpace(string(entry.Company))
		if lo.Contains(e.rules.Tier1Companies, company) {
			return true
		}
	}
	return false
}
