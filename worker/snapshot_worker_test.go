package worker

import (
	"context"
	"testing"
	"time"

	"lineswipe/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSnapshotService struct {
	mock.Mock
}

func (m *mockSnapshotService) CaptureDailySnapshots(ctx context.Context, day time.Time) (*models.SnapshotRun, error) {
	args := m.Called(ctx, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SnapshotRun), args.Error(1)
}

func TestNextRunIn(t *testing.T) {
	day := func(hour, min, sec int) time.Time {
		return time.Date(2026, 2, 11, hour, min, sec, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		hour int
		want time.Duration
	}{
		{name: "before todays run", now: day(1, 0, 0), hour: 3, want: 2 * time.Hour},
		{name: "exactly at the run moment schedules tomorrow", now: day(3, 0, 0), hour: 3, want: 24 * time.Hour},
		{name: "just past the run moment", now: day(3, 0, 1), hour: 3, want: 24*time.Hour - time.Second},
		{name: "afternoon waits for tomorrow morning", now: day(15, 30, 0), hour: 3, want: 11*time.Hour + 30*time.Minute},
		{name: "midnight run later today", now: day(0, 0, 1), hour: 0, want: 24*time.Hour - time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nextRunIn(tt.now, tt.hour))
		})
	}
}

func TestNextRunIn_KeepsLocation(t *testing.T) {
	loc := time.FixedZone("UTC+11", 11*60*60)
	now := time.Date(2026, 2, 11, 1, 0, 0, 0, loc)

	// Two hours until 03:00 local, regardless of the UTC offset
	assert.Equal(t, 2*time.Hour, nextRunIn(now, 3))
}

// farHour returns a schedule hour roughly half a day away so worker tests
// never race the first capture
func farHour() int {
	return (time.Now().UTC().Hour() + 12) % 24
}

func TestSnapshotWorker_StopBeforeFirstRun(t *testing.T) {
	mockSnapshots := new(mockSnapshotService)
	w := NewSnapshotWorker(mockSnapshots)

	ctx := context.Background()
	stop := w.Start(ctx, farHour(), "UTC")
	stop()

	// The first run is hours away; stopping must not trigger a capture
	time.Sleep(50 * time.Millisecond)
	mockSnapshots.AssertNotCalled(t, "CaptureDailySnapshots", mock.Anything, mock.Anything)
}

func TestSnapshotWorker_UnknownTimezoneFallsBack(t *testing.T) {
	mockSnapshots := new(mockSnapshotService)
	w := NewSnapshotWorker(mockSnapshots)

	ctx, cancel := context.WithCancel(context.Background())
	stop := w.Start(ctx, farHour(), "Mars/Olympus")
	cancel()
	stop()

	time.Sleep(50 * time.Millisecond)
	mockSnapshots.AssertNotCalled(t, "CaptureDailySnapshots", mock.Anything, mock.Anything)
}
