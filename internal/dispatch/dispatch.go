// Package dispatch fans a message out to subscribers.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Sender delivers a message to a single chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string) error
}

// Summary counts the outcome of one fan-out.
type Summary struct {
	Recipients int
	Sent       int
	Failed     int
}

// Options bounds outgoing traffic.
type Options struct {
	// MaxConcurrent is the number of sends in flight across all fan-outs.
	MaxConcurrent int
	// Rate is the number of messages per second. Zero means unlimited.
	Rate float64
}

// Dispatcher delivers messages to many recipients with per-recipient
// failure isolation. It is safe for concurrent use and the limits apply
// across all concurrent Deliver calls.
type Dispatcher struct {
	sender  Sender
	sem     *semaphore.Weighted
	limiter *rate.Limiter
	log     *slog.Logger
}

// New creates a Dispatcher.
func New(sender Sender, opts Options, log *slog.Logger) *Dispatcher {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Dispatcher{
		sender:  sender,
		sem:     semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
}

// Deliver makes one send attempt per recipient. Failures are logged and
// counted; they never stop delivery to the other recipients.
func (d *Dispatcher) Deliver(ctx context.Context, text string, recipients []int64) Summary {
	var (
		wg     sync.WaitGroup
		sent   atomic.Int64
		failed atomic.Int64
	)

	for i, chatID := range recipients {
		if err := d.sem.Acquire(ctx, 1); err != nil {
			rest := len(recipients) - i
			failed.Add(int64(rest))
			d.log.WarnContext(ctx, "delivery interrupted", "remaining", rest, "error", err)
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer d.sem.Release(1)

			if err := d.send(ctx, chatID, text); err != nil {
				failed.Add(1)
				d.log.WarnContext(ctx, "send message", "chat_id", chatID, "error", err)
				return
			}
			sent.Add(1)
		}()
	}
	wg.Wait()

	return Summary{
		Recipients: len(recipients),
		Sent:       int(sent.Load()),
		Failed:     int(failed.Load()),
	}
}

func (d *Dispatcher) send(ctx context.Context, chatID int64, text string) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.sender.Send(ctx, chatID, text)
}
