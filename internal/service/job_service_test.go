package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehirent/internal/auth"
	"vehirent/internal/entities"
)

func TestMemoryLedgerClaimsOncePerDay(t *testing.T) {
	l := NewMemoryLedger()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }
	day := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)

	ok, err := l.Claim(context.Background(), 1, day)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Claim(context.Background(), 1, day)
	assert.False(t, ok)

	ok, _ = l.Claim(context.Background(), 2, day)
	assert.True(t, ok, "other bookings are independent")

	ok, _ = l.Claim(context.Background(), 1, day.AddDate(0, 0, 1))
	assert.True(t, ok, "other days are independent")

	now = now.Add(reminderLedgerTTL + time.Minute)
	ok, _ = l.Claim(context.Background(), 1, day)
	assert.True(t, ok, "expired claims are forgotten")
}

func TestReminderJobSendsOncePerBooking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tomorrow, err := env.book(t, env.renter.ID, "2025-01-02", "2025-01-04")
	require.NoError(t, err)
	_, err = env.book(t, env.renter.ID, "2025-01-06", "2025-01-07")
	require.NoError(t, err)
	cancelled, err := env.bookings.Create(ctx, CreateBookingInput{
		VehicleID: env.store.SeedVehicle(env.owner.ID, "Honda City", 1500).ID,
		UserID:    env.renter.ID,
		Range:     rng(t, "2025-01-02", "2025-01-02"),
	})
	require.NoError(t, err)
	_, err = env.bookings.Cancel(ctx, cancelled.ID, &auth.Claims{UserID: env.renter.ID})
	require.NoError(t, err)
	env.wait(t)
	before := len(env.email.messages())

	job := NewReminderJob(env.store, NewMemoryLedger(), env.notifier, env.log)
	job.now = func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }

	sent, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)

	msgs := env.email.messages()[before:]
	require.Len(t, msgs, 1)
	assert.Equal(t, "Reminder: your Maruti Swift rental starts tomorrow", msgs[0].Subject)
	assert.Contains(t, msgs[0].PlainText, "#"+itoa(tomorrow.ID))

	sent, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent, "second run of the day sends nothing")
}

type brokenLedger struct{}

func (brokenLedger) Claim(context.Context, int64, time.Time) (bool, error) {
	return false, errors.New("redis: connection refused")
}

func (brokenLedger) Release(context.Context, int64, time.Time) error {
	return errors.New("redis: connection refused")
}

func TestReminderJobSkipsWhenLedgerFails(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.book(t, env.renter.ID, "2025-01-02", "2025-01-02")
	require.NoError(t, err)
	env.wait(t)
	before := len(env.email.messages())

	job := NewReminderJob(env.store, brokenLedger{}, env.notifier, env.log)
	job.now = func() time.Time { return time.Date(2025, 1, 1, 23, 0, 0, 0, time.UTC) }

	sent, err := job.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, env.email.messages(), before)
}

func TestReminderJobRetriesFailedSend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.book(t, env.renter.ID, "2025-01-02", "2025-01-02")
	require.NoError(t, err)
	env.wait(t)

	job := NewReminderJob(env.store, NewMemoryLedger(), env.notifier, env.log)
	job.now = func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }

	env.email.mu.Lock()
	env.email.err = errors.New("sendgrid: 503")
	env.email.mu.Unlock()
	sent, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)

	env.email.mu.Lock()
	env.email.err = nil
	env.email.mu.Unlock()
	sent, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent, "failed reminder is retried on the next run")

	sent, err = job.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

type flakyTargets struct {
	ReminderStore
	fail bool
}

func (f *flakyTargets) ReminderTargets(ctx context.Context, ids []int64) ([]entities.ReminderTarget, error) {
	if f.fail {
		f.fail = false
		return nil, errors.New("connection reset by peer")
	}
	return f.ReminderStore.ReminderTargets(ctx, ids)
}

func TestReminderJobReleasesClaimsWhenTargetsFail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.book(t, env.renter.ID, "2025-01-02", "2025-01-02")
	require.NoError(t, err)
	env.wait(t)

	store := &flakyTargets{ReminderStore: env.store, fail: true}
	job := NewReminderJob(store, NewMemoryLedger(), env.notifier, env.log)
	job.now = func() time.Time { return time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC) }

	_, err = job.Run(ctx)
	require.Error(t, err)

	sent, err := job.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	env := newTestEnv(t)
	s := NewScheduler(env.log)
	err := s.Register("reminders", "not a cron spec", time.Minute, func(context.Context) error { return nil })
	assert.Error(t, err)

	require.NoError(t, s.Register("reminders", "0 9 * * *", time.Minute, func(context.Context) error { return nil }))
	s.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}

func TestDispatcherRecoversPanics(t *testing.T) {
	env := newTestEnv(t)
	env.dispatcher.Go("boom", func(context.Context) error { panic("boom") })
	env.dispatcher.Go("ok", func(context.Context) error { return nil })
	env.wait(t)
}

func TestDispatcherBoundsTaskTime(t *testing.T) {
	env := newTestEnv(t)
	d := NewDispatcher(10*time.Millisecond, env.log)
	var deadline bool
	d.Go("slow", func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		<-ctx.Done()
		return ctx.Err()
	})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
	assert.True(t, deadline)
}
