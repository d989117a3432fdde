package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"vehirent/internal/utils"
)

// ReminderJob sends one reminder per confirmed booking starting tomorrow.
type ReminderJob struct {
	Store    ReminderStore
	Ledger   ReminderLedger
	Notifier *Notifier
	log      *logrus.Logger
	now      func() time.Time
}

func NewReminderJob(store ReminderStore, ledger ReminderLedger, notifier *Notifier, log *logrus.Logger) *ReminderJob {
	return &ReminderJob{Store: store, Ledger: ledger, Notifier: notifier, log: log, now: time.Now}
}

// Run returns the number of reminders sent. Individual send failures are
// logged and do not stop the sweep. A claim whose reminder could not be sent
// is released so the next run retries it.
func (j *ReminderJob) Run(ctx context.Context) (int, error) {
	tomorrow := utils.StartOfDay(j.now()).AddDate(0, 0, 1)
	log := j.log.WithField("start_date", tomorrow.Format("2006-01-02"))

	ids, err := j.Store.ConfirmedBookingIDsStartingOn(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("reminder job: %w", err)
	}
	if len(ids) == 0 {
		log.Debug("reminder job: no bookings start tomorrow")
		return 0, nil
	}

	claimed := make([]int64, 0, len(ids))
	for _, id := range ids {
		ok, err := j.Ledger.Claim(ctx, id, tomorrow)
		if err != nil {
			log.WithError(err).WithField("booking_id", id).Error("reminder job: ledger unavailable, skipping booking")
			continue
		}
		if ok {
			claimed = append(claimed, id)
		}
	}
	if len(claimed) == 0 {
		log.Debug("reminder job: all reminders already sent")
		return 0, nil
	}

	targets, err := j.Store.ReminderTargets(ctx, claimed)
	if err != nil {
		for _, id := range claimed {
			j.release(ctx, id, tomorrow)
		}
		return 0, fmt.Errorf("reminder job: %w", err)
	}

	sent := 0
	for _, t := range targets {
		if err := j.Notifier.BookingReminder(ctx, t); err != nil {
			log.WithError(err).WithField("booking_id", t.BookingID).Error("reminder job: send failed")
			j.release(ctx, t.BookingID, tomorrow)
			continue
		}
		sent++
	}
	log.WithFields(logrus.Fields{"found": len(ids), "sent": sent}).Info("reminder job finished")
	return sent, nil
}

func (j *ReminderJob) release(ctx context.Context, bookingID int64, day time.Time) {
	if err := j.Ledger.Release(ctx, bookingID, day); err != nil {
		j.log.WithError(err).WithField("booking_id", bookingID).Warn("reminder job: could not release claim")
	}
}
