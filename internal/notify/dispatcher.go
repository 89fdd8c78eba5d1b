package notify

import (
	"context"
	"log/slog"
	"sync"
)

// DefaultQueueSize bounds the number of messages waiting for the worker.
const DefaultQueueSize = 100

// Dispatcher is a Notifier that delivers through a Sender on one
// background goroutine. Messages that arrive while the queue is full are
// dropped and logged.
type Dispatcher struct {
	sender    Sender
	logger    *slog.Logger
	queue     chan Message
	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

func NewDispatcher(sender Sender, queueSize int, logger *slog.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		sender: sender,
		logger: logger,
		queue:  make(chan Message, queueSize),
		done:   make(chan struct{}),
	}
}

// Start launches the worker. Calling it again has no effect.
func (d *Dispatcher) Start() {
	d.startOnce.Do(func() {
		d.logger.Info("starting notification dispatcher", slog.Int("queueSize", cap(d.queue)))
		d.wg.Add(1)
		go d.worker()
	})
}

// Stop stops the worker and then delivers whatever is still queued.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		d.logger.Info("shutting down notification dispatcher", slog.Int("pending", len(d.queue)))
		close(d.done)
		d.wg.Wait()

		for {
			select {
			case m := <-d.queue:
				d.deliver(m)
			default:
				return
			}
		}
	})
}

func (d *Dispatcher) Notify(_ context.Context, m Message) {
	select {
	case <-d.done:
		d.logger.Warn("notification dropped, dispatcher stopped", slog.String("to", m.To))
		return
	default:
	}

	select {
	case d.queue <- m:
	default:
		d.logger.Warn("notification dropped, queue full",
			slog.String("to", m.To),
			slog.String("subject", m.Subject),
		)
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for {
		select {
		case <-d.done:
			return
		case m := <-d.queue:
			d.deliver(m)
		}
	}
}

func (d *Dispatcher) deliver(m Message) {
	if err := d.sender.Send(m); err != nil {
		d.logger.Error("failed to send notification",
			slog.String("to", m.To),
			slog.String("subject", m.Subject),
			slog.String("error", err.Error()),
		)
		return
	}
	d.logger.Debug("notification sent", slog.String("to", m.To), slog.String("subject", m.Subject))
}
