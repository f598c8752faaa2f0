package tablestore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ndavydov/applicant-sync/internal/entities"
)

type storedRecord struct {
	ID        string `gorm:"primaryKey"`
	Table     string `gorm:"column:table_name;index"`
	Fields    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SqliteStore keeps every table as rows of (table name, record id, JSON field
// map) in a single sqlite database. It exists for local development and
// tests, where pointing the sync engine at a real Airtable base is overkill.
type SqliteStore struct {
	db *gorm.DB
}

func NewSqliteStore(connectionString string) (*SqliteStore, error) {
	db, err := gorm.Open(sqlite.Open(connectionString), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	store := &SqliteStore{db: db}
	if err = store.migrate(); err != nil {
		return nil, err
	}
	return store, nil
}

func (s *SqliteStore) migrate() error {
	if err := s.db.AutoMigrate(storedRecord{}); err != nil {
		return fmt.Errorf("failed to migrate record entity: %w", err)
	}
	return nil
}

func (s *SqliteStore) List(ctx context.Context, table string, filter *Filter) ([]Record, error) {

	var rows []storedRecord
	if err := s.db.WithContext(ctx).Find(&rows, "table_name = ?", table).Error; err != nil {
		return nil, err
	}

	var records []Record
	for _, row := range rows {
		record, err := row.toRecord()
		if err != nil {
			return nil, err
		}
		// equality filters are applied in memory: the field map is an opaque
		// JSON column as far as sqlite is concerned, and table sizes here are
		// bounded by applicant count
		if filter != nil &&
			entities.TextFromField(record.Fields[filter.Field]) != entities.Text(filter.Value) {
			continue
		}
		records = append(records, record)
	}
	return records, nil
}

func (s *SqliteStore) Get(ctx context.Context, table string, recordID string) (*Record, error) {

	row, err := s.find(ctx, table, recordID)
	if err != nil {
		return nil, err
	}

	record, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *SqliteStore) Create(ctx context.Context, table string, fields map[string]any) (*Record, error) {

	encoded, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}

	row := storedRecord{
		ID:     "rec" + uuid.NewString(),
		Table:  table,
		Fields: string(encoded),
	}
	if err = s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, err
	}

	record, err := row.toRecord()
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// Update merges the given fields into the stored map, matching Airtable's
// PATCH semantics: untouched fields keep their values.
func (s *SqliteStore) Update(ctx context.Context, table string, recordID string, fields map[string]any) error {

	row, err := s.find(ctx, table, recordID)
	if err != nil {
		return err
	}

	record, err := row.toRecord()
	if err != nil {
		return err
	}

	for name, value := range fields {
		record.Fields[name] = value
	}

	encoded, err := json.Marshal(record.Fields)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Model(&storedRecord{}).Where("id = ?", recordID).
		Update("fields", string(encoded)).Error
}

func (s *SqliteStore) Delete(ctx context.Context, table string, recordID string) error {
	return s.db.WithContext(ctx).
		Delete(&storedRecord{}, "id = ? AND table_name = ?", recordID, table).Error
}

func (s *SqliteStore) Close() error {
	db, err := s.db.DB()
	if err != nil {
		return err
	}
	return db.Close()
}

func (s *SqliteStore) find(ctx context.Context, table string, recordID string) (*storedRecord, error) {
	var row storedRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND table_name = ?", recordID, table).
		First(&row).Error
	if err != nil {
		return nil, fmt.Errorf("record %v not found in %v: %w", recordID, table, err)
	}
	return &row, nil
}

func (r storedRecord) toRecord() (Record, error) {
	fields := map[string]any{}
	if r.Fields != "" {
		if err := json.Unmarshal([]byte(r.Fields), &fields); err != nil {
			return Record{}, fmt.Errorf("corrupt field map on record %v: %w", r.ID, err)
		}
	}
	return Record{ID: r.ID, Fields: fields}, nil
}
