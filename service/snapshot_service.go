package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"lineswipe/events"
	"lineswipe/models"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// snapshotConcurrency bounds parallel line captures within one run
const snapshotConcurrency = 8

type snapshotService struct {
	lineRepo      LineRepository
	aggregateRepo LineAggregateRepository
	snapshotRepo  LineSnapshotRepository
	eventBus      *events.Bus
}

// NewSnapshotService creates a new snapshot service. The repositories are
// pool backed: each line captures independently so one bad line cannot sink
// the whole run.
func NewSnapshotService(lineRepo LineRepository, aggregateRepo LineAggregateRepository, snapshotRepo LineSnapshotRepository, eventBus *events.Bus) SnapshotService {
	return &snapshotService{
		lineRepo:      lineRepo,
		aggregateRepo: aggregateRepo,
		snapshotRepo:  snapshotRepo,
		eventBus:      eventBus,
	}
}

func (s *snapshotService) CaptureDailySnapshots(ctx context.Context, day time.Time) (*models.SnapshotRun, error) {
	lines, err := s.lineRepo.GetActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get active lines: %w", err)
	}

	log.WithFields(log.Fields{
		"day":       day.Format("2006-01-02"),
		"lineCount": len(lines),
	}).Info("Starting daily snapshot run")

	var captured, skipped, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(snapshotConcurrency)

	for _, line := range lines {
		g.Go(func() error {
			created, err := s.captureLine(gctx, line, day)
			switch {
			case err != nil:
				// One bad line must not abort the run
				failed.Add(1)
				log.WithFields(log.Fields{
					"lineId": line.ID,
					"error":  err,
				}).Error("Failed to capture line snapshot")
			case created:
				captured.Add(1)
			default:
				skipped.Add(1)
			}
			return nil
		})
	}

	// Goroutines only ever return nil; Wait just joins them
	_ = g.Wait()

	run := &models.SnapshotRun{
		RunDate:       day,
		LinesCaptured: int(captured.Load()),
		LinesSkipped:  int(skipped.Load()),
		LinesFailed:   int(failed.Load()),
	}

	log.WithFields(log.Fields{
		"day":      day.Format("2006-01-02"),
		"captured": run.LinesCaptured,
		"skipped":  run.LinesSkipped,
		"failed":   run.LinesFailed,
	}).Info("Daily snapshot run completed")

	s.eventBus.Emit(ctx, events.SnapshotRunCompletedEvent{
		RunDate:       day.Format("2006-01-02"),
		LinesCaptured: run.LinesCaptured,
		LinesSkipped:  run.LinesSkipped,
		LinesFailed:   run.LinesFailed,
	})

	return run, nil
}

// captureLine freezes one line's odds and tallies for the day. Returns
// false when the line already has a snapshot for that day.
func (s *snapshotService) captureLine(ctx context.Context, line *models.Line, day time.Time) (bool, error) {
	agg, err := s.aggregateRepo.GetByLineID(ctx, line.ID)
	if err != nil {
		return false, err
	}
	if agg == nil {
		// No swipes yet: capture zero tallies
		agg = &models.LineAggregate{LineID: line.ID}
	}

	snapshot := &models.LineSnapshot{
		LineID:         line.ID,
		SnapshotDate:   day,
		HomeOdds:       line.HomeOdds,
		AwayOdds:       line.AwayOdds,
		Point:          line.Point,
		ConfidentCount: agg.ConfidentCount,
		DoubtCount:     agg.DoubtCount,
	}

	return s.snapshotRepo.Create(ctx, snapshot)
}
