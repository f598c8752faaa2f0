package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/metrics"
)

type bulkCompressor interface {
	CompressAll(ctx context.Context) (BulkResult, error)
}

type bulkShortlister interface {
	ShortlistAll(ctx context.Context) (ShortlistSummary, error)
}

// Sweeper periodically refreshes every snapshot and re-derives the shortlist,
// so the derived state converges even when per-applicant triggers were missed.
type Sweeper struct {
	compressor  bulkCompressor
	shortlister bulkShortlister
	cron        *cron.Cron
}

func NewSweeper(compressor bulkCompressor, shortlister bulkShortlister, schedule string) (*Sweeper, error) {

	if schedule == "" {
		return nil, errors.New("sweep schedule must not be empty")
	}

	sweeper := &Sweeper{
		compressor:  compressor,
		shortlister: shortlister,
		cron:        cron.New(),
	}

	_, err := sweeper.cron.AddFunc(schedule, sweeper.sweep)
	if err != nil {
		return nil, err
	}

	sweeper.cron.Start()
	log.Infof("reconciliation sweeper started, schedule: %v", schedule)
	return sweeper, nil
}

func (s *Sweeper) Stop() {
	s.cron.Stop()
}

func (s *Sweeper) sweep() {

	start := time.Now()
	log.Infof("running reconciliation sweep at %v", start)

	if _, err := s.compressor.CompressAll(context.Background()); err != nil {
		log.Errorf("compress sweep failed: %v", err)
	}

	if _, err := s.shortlister.ShortlistAll(context.Background()); err != nil {
		log.Errorf("shortlist sweep failed: %v", err)
	}

	executionTime := time.Since(start)
	metrics.SweepDuration.Observe(executionTime.Seconds())
	log.Infof("reconciliation sweep ended after %v", executionTime)
}
