package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/msomdec/passgate/internal/domain"
)

// DefaultEmailTimeout bounds a single best-effort send.
const DefaultEmailTimeout = 15 * time.Second

// Notifier queues best-effort email.
type Notifier interface {
	Dispatch(ctx context.Context, msg domain.Email)
}

// Dispatcher sends email asynchronously. Delivery failures and panics are
// logged and never reach the operation that queued the message.
type Dispatcher struct {
	mailer  domain.Mailer
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher. A zero timeout means
// DefaultEmailTimeout.
func NewDispatcher(mailer domain.Mailer, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultEmailTimeout
	}
	return &Dispatcher{mailer: mailer, timeout: timeout}
}

// Dispatch sends msg in the background. The send outlives ctx's cancellation
// but keeps its values (trace spans) and is bounded by the dispatcher timeout.
func (d *Dispatcher) Dispatch(ctx context.Context, msg domain.Email) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				slog.Error("send email panicked", "template", msg.Template, "panic", r)
			}
		}()

		if err := d.mailer.Send(ctx, msg); err != nil {
			slog.Error("send email", "template", msg.Template, "error", err)
			return
		}
		slog.Debug("email sent", "template", msg.Template)
	}()
}

// Wait blocks until every queued send has finished.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
