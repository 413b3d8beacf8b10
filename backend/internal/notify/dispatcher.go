package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 2 * time.Second
	DefaultSendTimeout = 15 * time.Second
)

// DispatcherOptions tune retry behaviour. Zero values take the defaults.
type DispatcherOptions struct {
	MaxAttempts int
	Backoff     time.Duration
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// Dispatcher runs notification sends as detached tasks. A task never blocks
// or fails the caller; failures are logged after the last attempt.
type Dispatcher struct {
	notifier Notifier
	attempts int
	backoff  time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(n Notifier, opts DispatcherOptions) *Dispatcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Backoff < 0 {
		opts.Backoff = 0
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		notifier: n,
		attempts: opts.MaxAttempts,
		backoff:  opts.Backoff,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// Go schedules template for recipient. name identifies the task in logs.
func (d *Dispatcher) Go(name, template, recipient string, vars map[string]string) {
	if d == nil || d.notifier == nil {
		return
	}

	// copy so callers may reuse their map
	data := make(map[string]string, len(vars))
	for k, v := range vars {
		data[k] = v
	}

	taskID := uuid.NewString()
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error().
					Str("task", name).
					Str("task_id", taskID).
					Str("template", template).
					Str("panic", fmt.Sprint(r)).
					Msg("notification task panicked")
			}
		}()
		d.run(taskID, name, template, recipient, data)
	}()
}

func (d *Dispatcher) run(taskID, name, template, recipient string, vars map[string]string) {
	var last Result
	for attempt := 1; attempt <= d.attempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		last = d.notifier.Send(ctx, template, recipient, vars)
		cancel()

		if last.Success {
			d.logger.Debug().
				Str("task", name).
				Str("task_id", taskID).
				Str("template", template).
				Int("attempt", attempt).
				Msg("notification sent")
			return
		}

		d.logger.Warn().
			Str("task", name).
			Str("task_id", taskID).
			Str("template", template).
			Int("attempt", attempt).
			Str("error", last.Error).
			Msg("notification attempt failed")

		if attempt < d.attempts && d.backoff > 0 {
			time.Sleep(time.Duration(attempt) * d.backoff)
		}
	}

	d.logger.Error().
		Str("task", name).
		Str("task_id", taskID).
		Str("template", template).
		Str("recipient", recipient).
		Str("error", last.Error).
		Msg("notification dropped")
}

// Wait blocks until every scheduled task has finished.
func (d *Dispatcher) Wait() {
	if d == nil {
		return
	}
	d.wg.Wait()
}
