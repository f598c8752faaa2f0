package services

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/logger"
	"github.com/ndavydov/applicant-sync/internal/metrics"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

// Compressor folds the three child tables of an applicant into the canonical
// snapshot document and writes it onto the parent row.
type Compressor struct {
	store  tablestore.Store
	schema tablestore.Schema
}

func NewCompressor(store tablestore.Store, schema tablestore.Schema) *Compressor {
	return &Compressor{store: store, schema: schema}
}

// CompressOne assembles the snapshot for one applicant, stores it on the
// parent row and returns the serialized form. Absent child rows are not an
// error; every missing leaf defaults to the empty string.
func (c *Compressor) CompressOne(ctx context.Context, applicantKey string, recordID string) (string, error) {

	if strings.TrimSpace(applicantKey) == "" {
		return "", &ValidationError{Message: "applicant key is required"}
	}

	snapshot, err := c.BuildSnapshot(ctx, applicantKey)
	if err != nil {
		return "", err
	}

	compact, err := snapshot.Compact()
	if err != nil {
		return "", errors.Wrapf(err, "failed to serialize snapshot for applicant %v", applicantKey)
	}

	err = c.store.Update(ctx, c.schema.Applicants.Name, recordID,
		map[string]any{c.schema.Applicants.SnapshotField: compact})
	if err != nil {
		return "", errors.Wrapf(err, "failed to write snapshot for applicant %v", applicantKey)
	}

	metrics.SyncOpsCounter.WithLabelValues("compress").Inc()
	log.Infof("compressed applicant %v", applicantKey)
	return compact, nil
}

// BuildSnapshot reads the child tables without touching them. Duplicate
// singleton rows are a data-quality concern upstream; the first row wins.
func (c *Compressor) BuildSnapshot(ctx context.Context, applicantKey string) (entities.Snapshot, error) {

	snapshot := entities.Snapshot{Experience: []entities.ExperienceEntry{}}

	personalRows, err := c.listByKey(ctx, c.schema.Personal, applicantKey)
	if err != nil {
		return snapshot, err
	}
	if len(personalRows) > 0 {
		columns := c.schema.Personal.Columns
		fields := personalRows[0].Fields
		snapshot.Personal = entities.Personal{
			Name:     entities.TextFromField(fields[columns["name"]]),
			Email:    entities.TextFromField(fields[columns["email"]]),
			Location: entities.TextFromField(fields[columns["location"]]),
			Linkedin: entities.TextFromField(fields[columns["linkedin"]]),
		}
	}

	workRows, err := c.listByKey(ctx, c.schema.Work, applicantKey)
	if err != nil {
		return snapshot, err
	}
	columns := c.schema.Work.Columns
	snapshot.Experience = lo.Map(workRows, func(row tablestore.Record, _ int) entities.ExperienceEntry {
		return entities.ExperienceEntry{
			Company: entities.TextFromField(row.Fields[columns["company"]]),
			Title:   entities.TextFromField(row.Fields[columns["title"]]),
			Start:   entities.TextFromField(row.Fields[columns["start"]]),
			End:     entities.TextFromField(row.Fields[columns["end"]]),
			Tech:    entities.TextFromField(row.Fields[columns["tech"]]),
		}
	})

	salaryRows, err := c.listByKey(ctx, c.schema.Salary, applicantKey)
	if err != nil {
		return snapshot, err
	}
	if len(salaryRows) > 0 {
		columns := c.schema.Salary.Columns
		fields := salaryRows[0].Fields
		snapshot.Salary = entities.Salary{
			PreferredRate: entities.TextFromField(fields[columns["preferred_rate"]]),
			MinRate:       entities.TextFromField(fields[columns["min_rate"]]),
			Currency:      entities.TextFromField(fields[columns["currency"]]),
			Availability:  entities.TextFromField(fields[columns["availability"]]),
		}
	}

	return snapshot, nil
}

// CompressAll sweeps the whole Applicants table, skipping rows without a key.
func (c *Compressor) CompressAll(ctx context.Context) (BulkResult, error) {

	records, err := c.store.List(ctx, c.schema.Applicants.Name, nil)
	if err != nil {
		return BulkResult{}, errors.Wrap(err, "failed to list applicants")
	}

	result := BulkResult{Processed: len(records)}
	for _, record := range records {
		applicantKey := string(entities.TextFromField(record.Fields[c.schema.Applicants.KeyField]))
		if record.ID == "" || strings.TrimSpace(applicantKey) == "" {
			result.Skipped++
			continue
		}

		if _, err := c.CompressOne(ctx, applicantKey, record.ID); err != nil {
			result.Errored++
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
				Errorf("failed to compress applicant %v: %v", applicantKey, err)
			continue
		}
		result.Succeeded++
	}

	log.Infof("compress sweep done: %v", result.Message())
	return result, nil
}

func (c *Compressor) listByKey(ctx context.Context, table tablestore.TableSchema,
	applicantKey string) ([]tablestore.Record, error) {

	rows, err := c.store.List(ctx, table.Name, &tablestore.Filter{Field: table.KeyField, Value: applicantKey})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch %v for applicant %v", table.Name, applicantKey)
	}
	return rows, nil
}
