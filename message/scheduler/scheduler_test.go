package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"quickshow/entities"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type expirationsStub struct {
	batches    []int
	calls      int
	now        []time.Time
	retryAfter time.Duration
}

func (e *expirationsStub) EnqueueDue(ctx context.Context, now time.Time, limit int, retryAfter time.Duration) (int, error) {
	e.now = append(e.now, now)
	e.retryAfter = retryAfter
	if e.calls >= len(e.batches) {
		return 0, errors.New("unexpected call")
	}
	n := e.batches[e.calls]
	e.calls++

	return n, nil
}

type showsStub struct {
	from, to time.Time
	shows    []entities.Show
}

func (s *showsStub) ShowsStartingBetween(ctx context.Context, from, to time.Time) ([]entities.Show, error) {
	s.from, s.to = from, to
	return s.shows, nil
}

type busStub struct {
	published []any
}

func (b *busStub) Publish(ctx context.Context, event any) error {
	b.published = append(b.published, event)
	return nil
}

var testConfig = Config{
	ExpiryPollInterval: 5 * time.Second,
	ExpiryRetryAfter:   time.Minute,
	ReminderInterval:   8 * time.Hour,
	ReminderLead:       8 * time.Hour,
}

func TestScheduler_EnqueueExpired_drains_full_batches(t *testing.T) {
	expirations := &expirationsStub{batches: []int{expirationBatchSize, expirationBatchSize, 7}}
	s := NewScheduler(expirations, &showsStub{}, &busStub{}, testConfig)

	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	total, err := s.EnqueueExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2*expirationBatchSize+7, total)
	assert.Equal(t, 3, expirations.calls)
	assert.Equal(t, now, expirations.now[0])
	assert.Equal(t, time.Minute, expirations.retryAfter)
}

func TestScheduler_PublishReminders(t *testing.T) {
	shows := &showsStub{shows: []entities.Show{{ShowID: uuid.New()}, {ShowID: uuid.New()}}}
	bus := &busStub{}
	s := NewScheduler(&expirationsStub{}, shows, bus, testConfig)

	now := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	published, err := s.PublishReminders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, published)

	assert.Equal(t, now, shows.from)
	assert.Equal(t, now.Add(8*time.Hour), shows.to)

	require.Len(t, bus.published, 2)
	reminder, ok := bus.published[0].(entities.ShowReminderDue_v1)
	require.True(t, ok)
	assert.Equal(t, shows.shows[0].ShowID, reminder.ShowID)
	assert.Equal(t, "show-reminder-"+shows.shows[0].ShowID.String(), reminder.Header.IdempotencyKey)
}

func TestScheduler_Run_stops_with_context(t *testing.T) {
	expirations := &expirationsStub{batches: []int{0}}
	s := NewScheduler(expirations, &showsStub{}, &busStub{}, testConfig)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- s.Run(ctx)
	}()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestNewScheduler_rejects_non_positive_intervals(t *testing.T) {
	noReminders := testConfig
	noReminders.ReminderInterval = 0

	noPolling := testConfig
	noPolling.ExpiryPollInterval = -time.Second

	for _, config := range []Config{noReminders, noPolling} {
		assert.Panics(t, func() {
			NewScheduler(&expirationsStub{}, &showsStub{}, &busStub{}, config)
		})
	}
}
