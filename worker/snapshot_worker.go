package worker

import (
	"context"
	"time"

	"lineswipe/service"

	log "github.com/sirupsen/logrus"
)

// SnapshotWorker schedules the daily line snapshot capture. It runs
// independently of swipe traffic: the capture only reads lines and
// aggregates and inserts snapshot rows.
type SnapshotWorker struct {
	snapshots service.SnapshotService
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(snapshots service.SnapshotService) *SnapshotWorker {
	return &SnapshotWorker{
		snapshots: snapshots,
	}
}

// Start begins the snapshot worker. Captures run once a day at the given
// hour in the given timezone; unknown timezones fall back to UTC.
func (w *SnapshotWorker) Start(ctx context.Context, hour int, timezone string) func() {
	stopChan := make(chan struct{})

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		log.WithFields(log.Fields{
			"timezone": timezone,
			"error":    err,
		}).Warn("Unknown snapshot timezone, falling back to UTC")
		loc = time.UTC
	}

	// Run one capture, stamping the current day in the schedule timezone
	capture := func() {
		day := time.Now().In(loc)
		log.Infof("Running scheduled snapshot capture for %s", day.Format("2006-01-02"))

		if _, err := w.snapshots.CaptureDailySnapshots(ctx, day); err != nil {
			log.Errorf("Error capturing daily snapshots: %v", err)
		}
	}

	go func() {
		log.Infof("Snapshot worker started, next run at %02d:00 %s", hour, loc)

		for {
			waitDuration := nextRunIn(time.Now().In(loc), hour)
			log.Infof("Snapshot worker waiting %v until next run", waitDuration)

			select {
			case <-ctx.Done():
				log.Info("Snapshot worker shutting down (context cancelled)...")
				return
			case <-stopChan:
				log.Info("Snapshot worker shutting down (stop requested)...")
				return
			case <-time.After(waitDuration):
				capture()
			}
		}
	}()

	// Return cleanup function
	return func() {
		close(stopChan)
	}
}

// nextRunIn computes the wait until the next daily run at hour, in now's
// location. A run moment that has already passed today schedules tomorrow.
func nextRunIn(now time.Time, hour int) time.Duration {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())

	if now.After(next) || now.Equal(next) {
		next = next.Add(24 * time.Hour)
	}

	return next.Sub(now)
}
