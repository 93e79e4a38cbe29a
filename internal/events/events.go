// Package events carries the lifecycle notifications raised by the invoice
// and payment services. Dispatch is synchronous; a listener that needs to
// do slow work should hand off to its own goroutine.
package events

import "context"

const (
	InvoiceCreated        = "invoice.created"
	InvoiceUpdated        = "invoice.updated"
	InvoicePaid           = "invoice.paid"
	InvoicePaidProcessing = "invoice.paid_processing"
	InvoiceWrittenOff     = "invoice.written_off"
	InvoiceCancelled      = "invoice.cancelled"

	PaymentCreated = "payment.created"
	PaymentUpdated = "payment.updated"
)

// Event is a named occurrence plus the subject it concerns.
type Event struct {
	Name    string
	Payload interface{}
}

// Publisher is the narrow interface the services depend on.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Listener receives every published event and ignores the ones it does not
// care about.
type Listener interface {
	Handle(ctx context.Context, e Event)
}

// Dispatcher fans events out to its listeners in registration order.
type Dispatcher struct {
	listeners []Listener
}

func NewDispatcher(listeners ...Listener) *Dispatcher {
	return &Dispatcher{listeners: listeners}
}

func (d *Dispatcher) Register(l Listener) {
	d.listeners = append(d.listeners, l)
}

func (d *Dispatcher) Publish(ctx context.Context, e Event) {
	for _, l := range d.listeners {
		l.Handle(ctx, e)
	}
}

// Nop discards every event. Handy in tests and in tools that do not care.
type Nop struct{}

func (Nop) Publish(ctx context.Context, e Event) {}
