// Package notification delivers user notifications off the request path.
package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	notificationDomain "github.com/RentalBee/service-rental/internal/domain/notification"
)

// ErrDispatcherClosed is returned by Dispatch after Close.
var ErrDispatcherClosed = errors.New("notification dispatcher closed")

// Sender delivers one notification.
type Sender interface {
	Send(ctx context.Context, n *notificationDomain.Notification) error
}

// DispatcherConfig sizes the worker pool.
type DispatcherConfig struct {
	Workers      int
	QueueSize    int
	MaxRetries   uint64
	InitialDelay time.Duration
	SendTimeout  time.Duration
}

// DefaultDispatcherConfig returns the production defaults.
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Workers:      4,
		QueueSize:    256,
		MaxRetries:   3,
		InitialDelay: 200 * time.Millisecond,
		SendTimeout:  5 * time.Second,
	}
}

// Dispatcher is a bounded queue drained by a fixed pool of workers. Callers
// never block: when the queue is full the notification is dropped and
// logged. Delivery failures are retried with exponential backoff and then
// logged; they never reach the caller.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig
	logger *zap.Logger

	queue  chan *notificationDomain.Notification
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewDispatcher starts cfg.Workers workers.
func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *zap.Logger) *Dispatcher {
	def := DefaultDispatcherConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = def.InitialDelay
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = def.SendTimeout
	}

	d := &Dispatcher{
		sender: sender,
		cfg:    cfg,
		logger: logger,
		queue:  make(chan *notificationDomain.Notification, cfg.QueueSize),
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
	return d
}

// Dispatch enqueues n. It returns false when the notification was dropped.
func (d *Dispatcher) Dispatch(n *notificationDomain.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("notification dropped, dispatcher closed",
			zap.String("user_id", n.UserID.String()),
			zap.String("title", n.Title),
		)
		return false
	}

	select {
	case d.queue <- n:
		return true
	default:
		d.logger.Warn("notification dropped, queue full",
			zap.String("user_id", n.UserID.String()),
			zap.String("title", n.Title),
			zap.Int("queue_size", d.cfg.QueueSize),
		)
		return false
	}
}

// Close stops accepting work and waits for the queue to drain.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

// deliver retries each member of a MultiSender separately so one failing
// channel does not resend to the others.
func (d *Dispatcher) deliver(n *notificationDomain.Notification) {
	senders, ok := d.sender.(MultiSender)
	if !ok {
		senders = MultiSender{d.sender}
	}
	for _, s := range senders {
		d.deliverTo(s, n)
	}
}

func (d *Dispatcher) deliverTo(sender Sender, n *notificationDomain.Notification) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = d.cfg.InitialDelay
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		defer cancel()
		return sender.Send(ctx, n)
	}

	err := backoff.Retry(operation, backoff.WithMaxRetries(policy, d.cfg.MaxRetries))
	if err != nil {
		d.logger.Error("failed to deliver notification",
			zap.String("notification_id", n.ID.String()),
			zap.String("user_id", n.UserID.String()),
			zap.String("sender", fmt.Sprintf("%T", sender)),
			zap.Int("attempts", attempt),
			zap.Error(err),
		)
	}
}
