package services

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/logger"
	"github.com/ndavydov/applicant-sync/internal/metrics"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
	"github.com/ndavydov/applicant-sync/pkg/keymutex"
)

// Decompressor expands the snapshot stored on an applicant row back into the
// child tables. Per-applicant calls are serialized by a keyed mutex so two
// expands for the same key never interleave their read-modify-write sequence;
// a separate process-wide lock keeps full-table sweeps from racing each other.
type Decompressor struct {
	store  tablestore.Store
	schema tablestore.Schema
	locks  *keymutex.KeyedMutex
	bulkMu sync.Mutex
}

func NewDecompressor(store tablestore.Store, schema tablestore.Schema, locks *keymutex.KeyedMutex) *Decompressor {
	return &Decompressor{store: store, schema: schema, locks: locks}
}

// DecompressOne reconciles the child tables of one applicant to match its
// snapshot exactly. With dryRun set, reads and skip decisions still happen but
// no write is issued.
func (d *Decompressor) DecompressOne(ctx context.Context, applicantKey string, recordID string,
	dryRun bool) (*entities.Snapshot, error) {

	if strings.TrimSpace(applicantKey) == "" {
		return nil, &ValidationError{Message: "applicant key is required"}
	}

	unlock := d.locks.Lock(applicantKey)
	defer unlock()

	record, err := d.store.Get(ctx, d.schema.Applicants.Name, recordID)
	if err != nil {
		return nil, &CorruptSnapshotError{ApplicantKey: applicantKey, Err: err}
	}

	raw := string(entities.TextFromField(record.Fields[d.schema.Applicants.SnapshotField]))
	if strings.TrimSpace(raw) == "" {
		return nil, &CorruptSnapshotError{ApplicantKey: applicantKey, Err: errors.New("snapshot field is empty")}
	}

	snapshot, err := entities.ParseSnapshot(raw)
	if err != nil {
		return nil, &CorruptSnapshotError{ApplicantKey: applicantKey, Err: err}
	}

	err = d.upsertSingleton(ctx, d.schema.Personal, applicantKey, snapshot.Personal.Values(), dryRun)
	if err != nil {
		return nil, err
	}

	err = d.upsertSingleton(ctx, d.schema.Salary, applicantKey, snapshot.Salary.Values(), dryRun)
	if err != nil {
		return nil, err
	}

	err = d.syncExperience(ctx, applicantKey, snapshot.Experience, dryRun)
	if err != nil {
		return nil, err
	}

	if !dryRun {
		metrics.SyncOpsCounter.WithLabelValues("decompress").Inc()
	}
	log.Infof("decompressed applicant %v (dry run: %v)", applicantKey, dryRun)
	return &snapshot, nil
}

// DecompressAll expands every applicant row. At most one full-table sweep
// runs at a time; per-applicant errors become counts, not aborts.
func (d *Decompressor) DecompressAll(ctx context.Context) (BulkResult, error) {

	d.bulkMu.Lock()
	defer d.bulkMu.Unlock()

	records, err := d.store.List(ctx, d.schema.Applicants.Name, nil)
	if err != nil {
		return BulkResult{}, errors.Wrap(err, "failed to list applicants")
	}

	result := BulkResult{Processed: len(records)}
	for _, record := range records {
		applicantKey := string(entities.TextFromField(record.Fields[d.schema.Applicants.KeyField]))
		if record.ID == "" || strings.TrimSpace(applicantKey) == "" {
			result.Skipped++
			continue
		}

		if _, err := d.DecompressOne(ctx, applicantKey, record.ID, false); err != nil {
			result.Errored++
			log.WithField(logger.ErrorTypeField, logger.ErrorTypeStore).
				Errorf("failed to decompress applicant %v: %v", applicantKey, err)
			continue
		}
		result.Succeeded++
	}

	log.Infof("decompress sweep done: %v", result.Message())
	return result, nil
}

// upsertSingleton overwrites all mapped fields of the existing child row, or
// creates one unless every incoming value is blank. A full overwrite, never a
// partial merge: missing document keys reset their fields to "".
func (d *Decompressor) upsertSingleton(ctx context.Context, table tablestore.TableSchema,
	applicantKey string, values map[string]entities.Text, dryRun bool) error {

	fields := map[string]any{}
	allBlank := true
	for documentKey, fieldName := range table.Columns {
		value := values[documentKey]
		fields[fieldName] = string(value)
		if !value.IsBlank() {
			allBlank = false
		}
	}

	existing, err := d.store.List(ctx, table.Name,
		&tablestore.Filter{Field: table.KeyField, Value: applicantKey})
	if err != nil {
		return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
	}

	if len(existing) > 0 {
		if dryRun || singletonInSync(existing[0], fields) {
			return nil
		}
		if err = d.store.Update(ctx, table.Name, existing[0].ID, fields); err != nil {
			return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
		}
		return nil
	}

	if allBlank {
		// no row and nothing to say: creating one would leave junk rows for
		// applicants that have not filled this form yet
		log.Debugf("skipped %v for applicant %v: all values empty", table.Name, applicantKey)
		return nil
	}

	if dryRun {
		return nil
	}

	fields[table.KeyField] = applicantKey
	if _, err = d.store.Create(ctx, table.Name, fields); err != nil {
		return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
	}
	return nil
}

// singletonInSync reports whether every mapped field of the existing row
// already equals the incoming value, making the overwrite a no-op. Skipping
// it keeps a repeated decompress free of writes.
func singletonInSync(existing tablestore.Record, fields map[string]any) bool {
	for fieldName, value := range fields {
		if entities.TextFromField(existing.Fields[fieldName]) != entities.TextFromField(value) {
			return false
		}
	}
	return true
}

// syncExperience hard-resets the work-experience collection: new rows are
// created before the old ones are deleted, so an interrupted run leaves the
// applicant briefly duplicated rather than visibly empty.
func (d *Decompressor) syncExperience(ctx context.Context, applicantKey string,
	experience []entities.ExperienceEntry, dryRun bool) error {

	table := d.schema.Work

	current, err := d.store.List(ctx, table.Name,
		&tablestore.Filter{Field: table.KeyField, Value: applicantKey})
	if err != nil {
		return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
	}

	for _, entry := range experience {
		fields := map[string]any{table.KeyField: applicantKey}
		values := entry.Values()
		for documentKey, fieldName := range table.Columns {
			fields[fieldName] = string(values[documentKey])
		}
		if dryRun {
			continue
		}
		if _, err = d.store.Create(ctx, table.Name, fields); err != nil {
			return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
		}
	}

	if dryRun {
		return nil
	}

	for _, row := range current {
		if err = d.store.Delete(ctx, table.Name, row.ID); err != nil {
			return &ReconciliationError{Table: table.Name, ApplicantKey: applicantKey, Err: err}
		}
	}

	return nil
}
