package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/asaskevich/EventBus"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/events"
	"github.com/ndavydov/applicant-sync/internal/logger"
	"github.com/ndavydov/applicant-sync/internal/metrics"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

type enricher interface {
	Enrich(ctx context.Context, snapshot entities.Snapshot) (*entities.Enrichment, error)
}

// Shortlister keeps the shortlist table equal to the evaluator's current
// verdict: a record exists if and only if the applicant meets the criteria.
// The stored snapshot copy doubles as a change fingerprint, so enrichment only
// runs on a create or a meaningful update.
type Shortlister struct {
	store     tablestore.Store
	schema    tablestore.Schema
	evaluator *Evaluator
	enricher  enricher
	bus       EventBus.Bus
}

func NewShortlister(store tablestore.Store, schema tablestore.Schema, evaluator *Evaluator,
	enricher enricher, bus EventBus.Bus) (*Shortlister, error) {

	if bus == nil {
		return nil, errors.New("bus is nil")
	}

	return &Shortlister{
		store:     store,
		schema:    schema,
		evaluator: evaluator,
		enricher:  enricher,
		bus:       bus,
	}, nil
}

type shortlistTransition string

const (
	transitionCreated  shortlistTransition = "created"
	transitionUpdated  shortlistTransition = "updated"
	transitionUpToDate shortlistTransition = "up-to-date"
	transitionDeleted  shortlistTransition = "deleted"
	transitionNone     shortlistTransition = "none"
)

// ShortlistOne evaluates one applicant and reconciles their shortlist record
// and parent status accordingly. Enrichment failures are reported in the
// message but never roll back the committed transition.
func (s *Shortlister) ShortlistOne(ctx context.Context, applicantKey string, recordID string) (OpResult, error) {

	if strings.TrimSpace(applicantKey) == "" {
		return OpResult{}, &ValidationError{Message: "applicant key is required"}
	}

	record, err := s.store.Get(ctx, s.schema.Applicants.Name, recordID)
	if err != nil {
		return OpResult{}, errors.Wrapf(err, "failed to fetch applicant %v", applicantKey)
	}

	raw := string(entities.TextFromField(record.Fields[s.schema.Applicants.SnapshotField]))
	if strings.TrimSpace(raw) == "" {
		return OpResult{}, &CorruptSnapshotError{ApplicantKey: applicantKey, Err: errors.New("snapshot field is empty")}
	}

	snapshot, err := entities.ParseSnapshot(raw)
	if err != nil {
		return OpResult{}, &CorruptSnapshotError{ApplicantKey: applicantKey, Err: err}
	}

	transition, llmStatus, err := s.reconcile(ctx, record.ID, applicantKey, raw, snapshot)
	if err != nil {
		return OpResult{}, err
	}

	metrics.SyncOpsCounter.WithLabelValues("shortlist").Inc()
	return opResultFor(applicantKey, transition, llmStatus), nil
}

// ShortlistAll sweeps every applicant row, skipping rows with no key or no
// parseable snapshot, and aggregates transition and enrichment counts.
func (s *Shortlister) ShortlistAll(ctx context.Context) (ShortlistSummary, error) {

	records, err := s.store.List(ctx, s.schema.Applicants.Name, nil)
	if err != nil {
		return ShortlistSummary{}, errors.Wrap(err, "failed to list applicants")
	}

	var summary ShortlistSummary
	for _, record := range records {
		applicantKey := string(entities.TextFromField(record.Fields[s.schema.Applicants.KeyField]))
		raw := string(entities.TextFromField(record.Fields[s.schema.Applicants.SnapshotField]))

		if strings.TrimSpace(applicantKey) == "" || strings.TrimSpace(raw) == "" {
			summary.Skipped++
			continue
		}

		snapshot, err := entities.ParseSnapshot(raw)
		if err != nil {
			summary.Skipped++
			continue
		}

		transition, llmStatus, err := s.reconcile(ctx, record.ID, applicantKey, raw, snapshot)
		if err != nil {
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
				Errorf("failed to reconcile shortlist for applicant %v: %v", applicantKey, err)
			summary.Skipped++
			continue
		}

		switch transition {
		case transitionCreated:
			summary.Created++
		case transitionUpdated:
			summary.Updated++
		case transitionDeleted:
			summary.Deleted++
		default:
			summary.Skipped++
		}

		switch llmStatus {
		case "ok":
			summary.LLMOk++
		case "":
		default:
			summary.LLMErrors++
		}
	}

	log.Infof("shortlist sweep done: %v", summary.Message())
	return summary, nil
}

// reconcile performs one transition. The stored snapshot string is compared
// verbatim against the applicant's: any byte difference counts as a
// meaningful change.
func (s *Shortlister) reconcile(ctx context.Context, recordID string, applicantKey string,
	raw string, snapshot entities.Snapshot) (shortlistTransition, string, error) {

	table := s.schema.Shortlist

	existingRows, err := s.store.List(ctx, table.Name,
		&tablestore.Filter{Field: table.KeyField, Value: applicantKey})
	if err != nil {
		return transitionNone, "", errors.Wrapf(err, "failed to fetch shortlist record for %v", applicantKey)
	}
	var existing *tablestore.Record
	if len(existingRows) > 0 {
		existing = &existingRows[0]
	}

	if !s.evaluator.MeetsCriteria(snapshot) {
		if err = s.setStatus(ctx, recordID, entities.StatusNotShortlisted); err != nil {
			return transitionNone, "", err
		}
		if existing == nil {
			return transitionNone, "", nil
		}
		if err = s.store.Delete(ctx, table.Name, existing.ID); err != nil {
			return transitionNone, "", errors.Wrapf(err, "failed to delete shortlist record for %v", applicantKey)
		}
		metrics.ShortlistTransitionsCounter.WithLabelValues(string(transitionDeleted)).Inc()
		s.bus.Publish(events.ShortlistRevokedTopic, events.ShortlistRevoked{ApplicantKey: applicantKey})
		return transitionDeleted, "", nil
	}

	if err = s.setStatus(ctx, recordID, entities.StatusShortlisted); err != nil {
		return transitionNone, "", err
	}

	if existing != nil {
		fingerprint := string(entities.TextFromField(existing.Fields[table.SnapshotField]))
		if fingerprint == raw {
			return transitionUpToDate, "", nil
		}

		err = s.store.Update(ctx, table.Name, existing.ID, map[string]any{table.SnapshotField: raw})
		if err != nil {
			return transitionNone, "", errors.Wrapf(err, "failed to update shortlist record for %v", applicantKey)
		}
		metrics.ShortlistTransitionsCounter.WithLabelValues(string(transitionUpdated)).Inc()

		llmStatus := s.applyEnrichment(ctx, recordID, existing.ID, snapshot)
		s.bus.Publish(events.ApplicantShortlistedTopic,
			events.ApplicantShortlisted{ApplicantKey: applicantKey, Created: false})
		return transitionUpdated, llmStatus, nil
	}

	created, err := s.store.Create(ctx, table.Name, map[string]any{
		table.KeyField:      applicantKey,
		table.SnapshotField: raw,
	})
	if err != nil {
		return transitionNone, "", errors.Wrapf(err, "failed to create shortlist record for %v", applicantKey)
	}
	metrics.ShortlistTransitionsCounter.WithLabelValues(string(transitionCreated)).Inc()

	llmStatus := s.applyEnrichment(ctx, recordID, created.ID, snapshot)
	s.bus.Publish(events.ApplicantShortlistedTopic,
		events.ApplicantShortlisted{ApplicantKey: applicantKey, Created: true})
	return transitionCreated, llmStatus, nil
}

// applyEnrichment runs the oracle and writes its outputs to the applicant row
// and the shortlist record. The shortlist transition is already committed, so
// every failure here is reported, not propagated.
func (s *Shortlister) applyEnrichment(ctx context.Context, recordID string, shortlistID string,
	snapshot entities.Snapshot) string {

	enrichment, err := s.enricher.Enrich(ctx, snapshot)
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeAiApi).
			Errorf("enrichment failed: %v", err)
		return "error"
	}

	err = s.store.Update(ctx, s.schema.Applicants.Name, recordID, map[string]any{
		s.schema.Applicants.SummaryField:   enrichment.Summary,
		s.schema.Applicants.ScoreField:     enrichment.Score,
		s.schema.Applicants.FollowUpsField: enrichment.FollowUps,
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
			Errorf("failed to write enrichment to applicant: %v", err)
		return "partial"
	}

	err = s.store.Update(ctx, s.schema.Shortlist.Name, shortlistID, map[string]any{
		s.schema.Shortlist.ScoreReasonField: enrichment.Issues,
	})
	if err != nil {
		log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
			Errorf("failed to write score reason to shortlist record: %v", err)
		return "partial"
	}

	return "ok"
}

func (s *Shortlister) setStatus(ctx context.Context, recordID string, status entities.ShortlistStatus) error {
	err := s.store.Update(ctx, s.schema.Applicants.Name, recordID,
		map[string]any{s.schema.Applicants.StatusField: string(status)})
	return errors.Wrap(err, "failed to update applicant status")
}

func opResultFor(applicantKey string, transition shortlistTransition, llmStatus string) OpResult {
	switch transition {
	case transitionCreated:
		return OpResult{Status: string(entities.StatusShortlisted),
			Message: withLLMStatus(fmt.Sprintf("shortlist created for %v", applicantKey), llmStatus)}
	case transitionUpdated:
		return OpResult{Status: string(entities.StatusShortlisted),
			Message: withLLMStatus(fmt.Sprintf("shortlist updated for %v", applicantKey), llmStatus)}
	case transitionUpToDate:
		return OpResult{Status: string(entities.StatusShortlisted),
			Message: fmt.Sprintf("shortlist already up-to-date for %v", applicantKey)}
	case transitionDeleted:
		return OpResult{Status: string(entities.StatusNotShortlisted),
			Message: fmt.Sprintf("shortlist removed for %v", applicantKey)}
	default:
		return OpResult{Status: string(entities.StatusNotShortlisted),
			Message: fmt.Sprintf("not shortlisted; no existing record for %v", applicantKey)}
	}
}

func withLLMStatus(message string, llmStatus string) string {
	if llmStatus == "" || llmStatus == "ok" {
		return message
	}
	return message + " (llm: " + llmStatus + ")"
}
