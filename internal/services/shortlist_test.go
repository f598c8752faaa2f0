package services

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/events"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

func ineligibleSnapshot() entities.Snapshot {
	snapshot := eligibleSnapshot()
	snapshot.Salary.PreferredRate = "150"
	return snapshot
}

func testShortlister(t *testing.T, store *memStore, schema tablestore.Schema,
	enricher enricher, bus EventBus.Bus) *Shortlister {

	shortlister, err := NewShortlister(store, schema, NewEvaluator(testRules()), enricher, bus)
	assert.NoError(t, err)
	return shortlister
}

func Test_NewShortlister_WhenBusNil_ShouldFail(t *testing.T) {
	_, err := NewShortlister(newMemStore(), tablestore.PlainSchema(), NewEvaluator(testRules()),
		&stubEnricher{}, nil)
	assert.Error(t, err)
}

func Test_ShortlistOne_WhenEligibleAndAbsent_ShouldCreateRecordAndEnrich(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", eligibleSnapshot())

	enrichment := &entities.Enrichment{Summary: "Solid", Score: 8, Issues: "None", FollowUps: "- rate?"}
	bus := EventBus.New()
	var shortlisted []events.ApplicantShortlisted
	assert.NoError(t, bus.Subscribe(events.ApplicantShortlistedTopic,
		func(event events.ApplicantShortlisted) { shortlisted = append(shortlisted, event) }))

	shortlister := testShortlister(t, store, schema, &stubEnricher{result: enrichment}, bus)
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err)
	assert.Equal(t, string(entities.StatusShortlisted), result.Status)
	assert.Equal(t, "shortlist created for APP-001", result.Message)

	rows, _ := store.List(context.Background(), schema.Shortlist.Name, nil)
	assert.Len(t, rows, 1)
	assert.Equal(t, "APP-001", rows[0].Fields[schema.Shortlist.KeyField])
	assert.Equal(t, "None", rows[0].Fields[schema.Shortlist.ScoreReasonField])

	applicant, _ := store.Get(context.Background(), schema.Applicants.Name, applicantID)
	assert.Equal(t, string(entities.StatusShortlisted), applicant.Fields[schema.Applicants.StatusField])
	assert.Equal(t, "Solid", applicant.Fields[schema.Applicants.SummaryField])
	assert.Equal(t, 8, applicant.Fields[schema.Applicants.ScoreField])
	assert.Equal(t, "- rate?", applicant.Fields[schema.Applicants.FollowUpsField])

	assert.Equal(t, []events.ApplicantShortlisted{{ApplicantKey: "APP-001", Created: true}}, shortlisted)
}

func Test_ShortlistOne_WhenIneligibleAndPresent_ShouldDeleteRecord(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", ineligibleSnapshot())
	store.seed(schema.Shortlist.Name, map[string]any{schema.Shortlist.KeyField: "APP-001"})

	bus := EventBus.New()
	var revoked []events.ShortlistRevoked
	assert.NoError(t, bus.Subscribe(events.ShortlistRevokedTopic,
		func(event events.ShortlistRevoked) { revoked = append(revoked, event) }))

	enricher := &stubEnricher{}
	shortlister := testShortlister(t, store, schema, enricher, bus)
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err)
	assert.Equal(t, string(entities.StatusNotShortlisted), result.Status)

	rows, _ := store.List(context.Background(), schema.Shortlist.Name, nil)
	assert.Empty(t, rows)
	assert.Equal(t, 0, enricher.calls)
	assert.Equal(t, []events.ShortlistRevoked{{ApplicantKey: "APP-001"}}, revoked)

	applicant, _ := store.Get(context.Background(), schema.Applicants.Name, applicantID)
	assert.Equal(t, string(entities.StatusNotShortlisted), applicant.Fields[schema.Applicants.StatusField])
}

func Test_ShortlistOne_WhenIneligibleAndAbsent_ShouldOnlyFlipStatus(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", ineligibleSnapshot())

	shortlister := testShortlister(t, store, schema, &stubEnricher{}, EventBus.New())
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err)
	assert.Equal(t, string(entities.StatusNotShortlisted), result.Status)
	assert.Equal(t, 0, store.writes(schema.Shortlist.Name))
}

func Test_ShortlistOne_WhenFingerprintUnchanged_ShouldSkipWritesAndOracle(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	snapshot := eligibleSnapshot()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", snapshot)

	compact, err := snapshot.Compact()
	assert.NoError(t, err)
	store.seed(schema.Shortlist.Name, map[string]any{
		schema.Shortlist.KeyField:      "APP-001",
		schema.Shortlist.SnapshotField: compact,
	})

	enricher := &stubEnricher{}
	shortlister := testShortlister(t, store, schema, enricher, EventBus.New())
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err)
	assert.Equal(t, "shortlist already up-to-date for APP-001", result.Message)
	assert.Equal(t, 0, store.writes(schema.Shortlist.Name))
	assert.Equal(t, 0, enricher.calls)
}

func Test_ShortlistOne_WhenFingerprintChanged_ShouldUpdateAndReEnrich(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	snapshot := eligibleSnapshot()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", snapshot)
	store.seed(schema.Shortlist.Name, map[string]any{
		schema.Shortlist.KeyField:      "APP-001",
		schema.Shortlist.SnapshotField: `{"stale": true}`,
	})

	enricher := &stubEnricher{result: &entities.Enrichment{Summary: "Solid", Score: 7, Issues: "None"}}
	shortlister := testShortlister(t, store, schema, enricher, EventBus.New())
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err)
	assert.Equal(t, "shortlist updated for APP-001", result.Message)
	assert.Equal(t, 1, enricher.calls)

	rows, _ := store.List(context.Background(), schema.Shortlist.Name, nil)
	assert.Len(t, rows, 1)
	compact, _ := snapshot.Compact()
	assert.Equal(t, compact, rows[0].Fields[schema.Shortlist.SnapshotField])
}

func Test_ShortlistOne_WhenEnrichmentFails_ShouldKeepCommittedTransition(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	applicantID := seedApplicantWithSnapshot(t, store, schema, "APP-001", eligibleSnapshot())

	enricher := &stubEnricher{err: assert.AnError}
	shortlister := testShortlister(t, store, schema, enricher, EventBus.New())
	result, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)
	assert.NoError(t, err, "enrichment failures never roll back the transition")
	assert.Equal(t, "shortlist created for APP-001 (llm: error)", result.Message)

	rows, _ := store.List(context.Background(), schema.Shortlist.Name, nil)
	assert.Len(t, rows, 1)

	applicant, _ := store.Get(context.Background(), schema.Applicants.Name, applicantID)
	assert.Equal(t, string(entities.StatusShortlisted), applicant.Fields[schema.Applicants.StatusField])
	assert.Nil(t, applicant.Fields[schema.Applicants.SummaryField])
}

func Test_ShortlistOne_WhenSnapshotEmpty_ShouldReportCorruption(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()
	applicantID := store.seed(schema.Applicants.Name, map[string]any{schema.Applicants.KeyField: "APP-001"})

	shortlister := testShortlister(t, store, schema, &stubEnricher{}, EventBus.New())
	_, err := shortlister.ShortlistOne(context.Background(), "APP-001", applicantID)

	var corruptErr *CorruptSnapshotError
	assert.ErrorAs(t, err, &corruptErr)
}

func Test_ShortlistAll_ShouldAggregateTransitionsAndSkips(t *testing.T) {

	store := newMemStore()
	schema := tablestore.PlainSchema()

	seedApplicantWithSnapshot(t, store, schema, "APP-001", eligibleSnapshot())
	seedApplicantWithSnapshot(t, store, schema, "APP-002", ineligibleSnapshot())
	store.seed(schema.Shortlist.Name, map[string]any{schema.Shortlist.KeyField: "APP-002"})
	store.seed(schema.Applicants.Name, map[string]any{
		schema.Applicants.KeyField:      "APP-003",
		schema.Applicants.SnapshotField: "{broken",
	})
	store.seed(schema.Applicants.Name, map[string]any{schema.Applicants.KeyField: ""})

	enricher := &stubEnricher{result: &entities.Enrichment{Summary: "ok", Score: 6, Issues: "None"}}
	shortlister := testShortlister(t, store, schema, enricher, EventBus.New())

	summary, err := shortlister.ShortlistAll(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, 1, summary.Created)
	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, 1, summary.LLMOk)
	assert.Equal(t, 0, summary.LLMErrors)
}
