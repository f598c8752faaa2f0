package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ndavydov/applicant-sync/internal/entities"
)

func testRules() Rules {
	return Rules{
		AllowedCountries:   []string{"Germany", "United States", "Canada"},
		MaxPreferredRate:   100,
		MinAvailability:    20,
		MinExperienceYears: 4,
		Tier1Companies:     []string{"Google", "Meta", "OpenAI"},
	}
}

func eligibleSnapshot() entities.Snapshot {
	return entities.Snapshot{
		Personal: entities.Personal{Name: "Jane Doe", Location: "Berlin, Germany"},
		Experience: []entities.ExperienceEntry{
			{Company: "Acme GmbH", Title: "Engineer", Start: "2018-01-01", End: "2022-12-31"},
		},
		Salary: entities.Salary{PreferredRate: "90", Availability: "40"},
	}
}

func Test_MeetsCriteria_WhenAllGatesPass_ShouldBeTrue(t *testing.T) {
	evaluator := NewEvaluator(testRules())
	assert.True(t, evaluator.MeetsCriteria(eligibleSnapshot()))
}

func Test_MeetsCriteria_ShouldUsePartAfterLastCommaAsCountry(t *testing.T) {
	evaluator := NewEvaluator(testRules())

	snapshot := eligibleSnapshot()
	snapshot.Personal.Location = "Toronto, Ontario, Canada"
	assert.True(t, evaluator.MeetsCriteria(snapshot))

	snapshot.Personal.Location = "Germany"
	assert.True(t, evaluator.MeetsCriteria(snapshot))

	snapshot.Personal.Location = "Paris, France"
	assert.False(t, evaluator.MeetsCriteria(snapshot))

	snapshot.Personal.Location = "  "
	assert.False(t, evaluator.MeetsCriteria(snapshot))
}

func Test_MeetsCriteria_WhenCompensationOutOfRange_ShouldBeFalse(t *testing.T) {
	evaluator := NewEvaluator(testRules())

	snapshot := eligibleSnapshot()
	snapshot.Salary.PreferredRate = "150"
	assert.False(t, evaluator.MeetsCriteria(snapshot))

	snapshot = eligibleSnapshot()
	snapshot.Salary.Availability = "10"
	assert.False(t, evaluator.MeetsCriteria(snapshot))

	snapshot = eligibleSnapshot()
	snapshot.Salary.PreferredRate = "100"
	snapshot.Salary.Availability = "20"
	assert.True(t, evaluator.MeetsCriteria(snapshot), "gate boundaries are inclusive")
}

func Test_MeetsCriteria_WhenCompensationUnparseable_ShouldBeFalse(t *testing.T) {
	evaluator := NewEvaluator(testRules())

	snapshot := eligibleSnapshot()
	snapshot.Salary.PreferredRate = "ninety"
	assert.False(t, evaluator.MeetsCriteria(snapshot))

	snapshot = eligibleSnapshot()
	snapshot.Salary.Availability = ""
	assert.False(t, evaluator.MeetsCriteria(snapshot))
}

func Test_MeetsCriteria_WhenTenureShort_ShouldRequireTier1Employer(t *testing.T) {
	evaluator := NewEvaluator(testRules())

	snapshot := eligibleSnapshot()
	snapshot.Experience = []entities.ExperienceEntry{
		{Company: "Acme GmbH", Start: "2023-01-01", End: "2023-06-30"},
	}
	assert.False(t, evaluator.MeetsCriteria(snapshot))

	snapshot.Experience[0].Company = " Google "
	assert.True(t, evaluator.MeetsCriteria(snapshot))
}

func Test_ExperienceYears_ShouldSumEntriesAndRoundToOneDecimal(t *testing.T) {

	today := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	years := ExperienceYears([]entities.ExperienceEntry{
		{Start: "2018-01-01", End: "2022-12-31"},
	}, today)
	assert.Equal(t, 5.0, years)

	years = ExperienceYears([]entities.ExperienceEntry{
		{Start: "2018-01-01", End: "2020-01-01"},
		{Start: "2021-01-01", End: "2022-07-01"},
	}, today)
	assert.Equal(t, 3.5, years)
}

func Test_ExperienceYears_WhenEndMissing_ShouldDefaultToToday(t *testing.T) {

	today := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)

	years := ExperienceYears([]entities.ExperienceEntry{
		{Start: "2023-01-01", End: ""},
	}, today)
	assert.Equal(t, 2.0, years)
}

func Test_ExperienceYears_ShouldAcceptBareYears(t *testing.T) {

	today := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	years := ExperienceYears([]entities.ExperienceEntry{
		{Start: "2019", End: "2021"},
	}, today)
	assert.Equal(t, 2.0, years)
}

func Test_ExperienceYears_ShouldSkipMalformedAndInvertedEntries(t *testing.T) {

	today := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	years := ExperienceYears([]entities.ExperienceEntry{
		{Start: "not-a-date", End: "2022-01-01"},
		{Start: "2022-01-01", End: "soon"},
		{Start: "2022-01-01", End: "2020-01-01"},
		{Start: "2020-01-01", End: "2021-01-01"},
	}, today)
	assert.Equal(t, 1.0, years)
}
