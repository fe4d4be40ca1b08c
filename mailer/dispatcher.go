package mailer

import (
	"context"
	"log"
	"sync"
	"time"
)

const sendTimeout = 30 * time.Second

// Dispatcher delivers messages on a background worker so request handlers
// never wait on the mail relay.
type Dispatcher struct {
	sender  Sender
	queue   chan Message
	onError func(Message, error)

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewDispatcher starts the worker. onError may be nil, in which case failures
// are logged.
func NewDispatcher(sender Sender, size int, onError func(Message, error)) *Dispatcher {
	if size <= 0 {
		size = 64
	}
	if onError == nil {
		onError = func(msg Message, err error) {
			log.Printf("Failed to send %q to %s: %v", msg.Subject, msg.To, err)
		}
	}
	d := &Dispatcher{
		sender:  sender,
		queue:   make(chan Message, size),
		onError: onError,
		done:    make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for msg := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		if err := d.sender.Send(ctx, msg); err != nil {
			d.onError(msg, err)
		}
		cancel()
	}
}

// Enqueue hands msg to the worker without blocking. It reports false when the
// queue is full or the dispatcher is closed.
func (d *Dispatcher) Enqueue(msg Message) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		log.Printf("Mail dispatcher closed, dropping %q to %s", msg.Subject, msg.To)
		return false
	}
	select {
	case d.queue <- msg:
		return true
	default:
		log.Printf("Mail queue full, dropping %q to %s", msg.Subject, msg.To)
		return false
	}
}

// Close stops accepting messages and waits until the queue drains or ctx ends.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
