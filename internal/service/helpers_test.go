package service

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"vehirent/internal/db"
	"vehirent/internal/testutil/memstore"
	"vehirent/internal/utils"
)

type fakeEmail struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (f *fakeEmail) SendEmail(ctx context.Context, msg EmailMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeEmail) messages() []EmailMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]EmailMessage(nil), f.sent...)
}

type fakeSMS struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeSMS) SendSMS(ctx context.Context, to, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, to+": "+body)
	return nil
}

type testEnv struct {
	store      *memstore.Store
	log        *logrus.Logger
	hook       *test.Hook
	email      *fakeEmail
	sms        *fakeSMS
	notifier   *Notifier
	dispatcher *Dispatcher
	bookings   *BookingService
	payments   *PaymentService
	gateway    *LocalGateway
	owner      *db.User
	renter     *db.User
	vehicle    *db.Vehicle
}

const testSecret = "s3cret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)

	store := memstore.New()
	email := &fakeEmail{}
	sms := &fakeSMS{}
	notifier, err := NewNotifier(email, sms, "inr", log)
	require.NoError(t, err)
	dispatcher := NewDispatcher(time.Second, log)
	bookings := NewBookingService(store, store, store, notifier, dispatcher, log)
	gateway := NewLocalGateway(testSecret)
	payments := NewPaymentService(store, gateway, bookings, nil, dispatcher, "inr", time.Second, log)

	env := &testEnv{
		store:      store,
		log:        log,
		hook:       hook,
		email:      email,
		sms:        sms,
		notifier:   notifier,
		dispatcher: dispatcher,
		bookings:   bookings,
		payments:   payments,
		gateway:    gateway,
	}
	env.owner = store.SeedUser("Owner", "owner@example.com", "", false)
	env.renter = store.SeedUser("Asha", "asha@example.com", "+911234567890", false)
	env.vehicle = store.SeedVehicle(env.owner.ID, "Maruti Swift", 1000)
	return env
}

func (e *testEnv) wait(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, e.dispatcher.Wait(ctx))
}

func rng(t *testing.T, start, end string) utils.DateRange {
	t.Helper()
	r, err := utils.ParseDateRange(start, end)
	require.NoError(t, err)
	return r
}

func (e *testEnv) book(t *testing.T, userID int64, start, end string) (*db.Booking, error) {
	t.Helper()
	return e.bookings.Create(context.Background(), CreateBookingInput{
		VehicleID: e.vehicle.ID,
		UserID:    userID,
		Range:     rng(t, start, end),
	})
}

func hasEntry(hook *test.Hook, level logrus.Level, msg string) bool {
	for _, e := range hook.AllEntries() {
		if e.Level == level && e.Message == msg {
			return true
		}
	}
	return false
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
