package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Dispatcher runs best-effort follow-up work (emails, SMS, invoices) off the
// request path. Task failures are logged and never reach the caller.
type Dispatcher struct {
	timeout time.Duration
	log     *logrus.Logger
	wg      sync.WaitGroup
}

func NewDispatcher(timeout time.Duration, log *logrus.Logger) *Dispatcher {
	return &Dispatcher{timeout: timeout, log: log}
}

// Go starts task on its own goroutine with a fresh context bounded by the
// dispatcher timeout. The request context is deliberately not inherited.
func (d *Dispatcher) Go(name string, task func(ctx context.Context) error) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.log.WithField("task", name).Errorf("notification task panicked: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		start := time.Now()
		if err := task(ctx); err != nil {
			d.log.WithError(err).WithFields(logrus.Fields{
				"task":    name,
				"elapsed": time.Since(start).String(),
			}).Error("follow-up task failed")
			return
		}
		d.log.WithField("task", name).Debug("follow-up task done")
	}()
}

// Wait blocks until every started task has returned or ctx expires.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for follow-up tasks: %w", ctx.Err())
	}
}
