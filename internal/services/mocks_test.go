package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/mock"

	"github.com/ndavydov/applicant-sync/internal/entities"
	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

// memStore is an in-memory table store that keeps insertion order and counts
// writes per table, so tests can assert on exactly which writes happened.
type memStore struct {
	mu      sync.Mutex
	nextID  int
	tables  map[string][]tablestore.Record
	creates map[string]int
	updates map[string]int
	deletes map[string]int
	failOn  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		tables:  map[string][]tablestore.Record{},
		creates: map[string]int{},
		updates: map[string]int{},
		deletes: map[string]int{},
		failOn:  map[string]error{},
	}
}

func (s *memStore) seed(table string, fields map[string]any) string {
	rec, err := s.Create(context.Background(), table, fields)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creates[table]--
	return rec.ID
}

func (s *memStore) failListOn(table string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[table] = err
}

func (s *memStore) writes(table string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creates[table] + s.updates[table] + s.deletes[table]
}

func (s *memStore) List(_ context.Context, table string, filter *tablestore.Filter) ([]tablestore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.failOn[table]; err != nil {
		return nil, err
	}

	var result []tablestore.Record
	for _, rec := range s.tables[table] {
		if filter != nil && string(entities.TextFromField(rec.Fields[filter.Field])) != filter.Value {
			continue
		}
		result = append(result, cloneRecord(rec))
	}
	return result, nil
}

func (s *memStore) Get(_ context.Context, table string, recordID string) (*tablestore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.tables[table] {
		if rec.ID == recordID {
			clone := cloneRecord(rec)
			return &clone, nil
		}
	}
	return nil, errors.Errorf("record %v not found in %v", recordID, table)
}

func (s *memStore) Create(_ context.Context, table string, fields map[string]any) (*tablestore.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	rec := tablestore.Record{ID: fmt.Sprintf("rec%03d", s.nextID), Fields: cloneFields(fields)}
	s.tables[table] = append(s.tables[table], rec)
	s.creates[table]++

	clone := cloneRecord(rec)
	return &clone, nil
}

func (s *memStore) Update(_ context.Context, table string, recordID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.tables[table] {
		if rec.ID != recordID {
			continue
		}
		for name, value := range fields {
			s.tables[table][i].Fields[name] = value
		}
		s.updates[table]++
		return nil
	}
	return errors.Errorf("record %v not found in %v", recordID, table)
}

func (s *memStore) Delete(_ context.Context, table string, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.tables[table] {
		if rec.ID != recordID {
			continue
		}
		s.tables[table] = append(s.tables[table][:i], s.tables[table][i+1:]...)
		s.deletes[table]++
		return nil
	}
	return errors.Errorf("record %v not found in %v", recordID, table)
}

func cloneRecord(rec tablestore.Record) tablestore.Record {
	return tablestore.Record{ID: rec.ID, Fields: cloneFields(rec.Fields)}
}

func cloneFields(fields map[string]any) map[string]any {
	clone := make(map[string]any, len(fields))
	for name, value := range fields {
		clone[name] = value
	}
	return clone
}

type mockAiClient struct {
	mock.Mock
}

func (m *mockAiClient) GenerateResponse(ctx context.Context, request string) (string, error) {
	args := m.Called(ctx, request)
	return args.String(0), args.Error(1)
}

// stubEnricher satisfies the shortlister without an oracle round-trip.
type stubEnricher struct {
	result *entities.Enrichment
	err    error
	calls  int
}

func (s *stubEnricher) Enrich(_ context.Context, _ entities.Snapshot) (*entities.Enrichment, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}
