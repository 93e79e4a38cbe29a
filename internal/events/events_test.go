package events

import (
	"context"
	"testing"

	"invoicer/internal/models"
)

type captureListener struct {
	seen []string
}

func (l *captureListener) Handle(ctx context.Context, e Event) {
	l.seen = append(l.seen, e.Name)
}

func TestDispatcherFansOutInOrder(t *testing.T) {
	first := &captureListener{}
	second := &captureListener{}
	d := NewDispatcher(first)
	d.Register(second)

	d.Publish(context.Background(), Event{Name: InvoiceCreated})
	d.Publish(context.Background(), Event{Name: InvoicePaid})

	for _, l := range []*captureListener{first, second} {
		if len(l.seen) != 2 || l.seen[0] != InvoiceCreated || l.seen[1] != InvoicePaid {
			t.Errorf("listener saw %v", l.seen)
		}
	}
}

func TestSlackListenerSelectsEvents(t *testing.T) {
	l := &SlackListener{}

	inv := &models.Invoice{Ref: "202608-ABCD1234", Currency: "GBP", GrandTotal: 2900, PaidTotal: 2900}
	if msg := l.message(Event{Name: InvoicePaid, Payload: inv}); msg == "" {
		t.Error("paid invoice should produce a message")
	}
	if msg := l.message(Event{Name: InvoiceCreated, Payload: inv}); msg != "" {
		t.Errorf("created invoice should be dropped, got %q", msg)
	}

	failed := &models.Payment{Ref: "202608-PAY1", Status: models.PaymentStatusFailed, Driver: "stripe", FailMsg: "declined"}
	if msg := l.message(Event{Name: PaymentUpdated, Payload: failed}); msg == "" {
		t.Error("failed payment should produce a message")
	}
	ok := &models.Payment{Ref: "202608-PAY2", Status: models.PaymentStatusComplete}
	if msg := l.message(Event{Name: PaymentUpdated, Payload: ok}); msg != "" {
		t.Errorf("successful payment update should be dropped, got %q", msg)
	}
}
