package events

import (
	"context"

	"github.com/rs/zerolog"

	"invoicer/internal/models"
)

// LogListener writes a structured line for every lifecycle event.
type LogListener struct {
	log zerolog.Logger
}

func NewLogListener(log zerolog.Logger) *LogListener {
	return &LogListener{log: log}
}

func (l *LogListener) Handle(ctx context.Context, e Event) {
	ev := l.log.Info().Str("event", e.Name)
	switch subject := e.Payload.(type) {
	case *models.Invoice:
		ev = ev.Str("invoice_ref", subject.Ref).Str("state", subject.State)
	case *models.Payment:
		ev = ev.Str("payment_ref", subject.Ref).Str("status", subject.Status).
			Str("driver", subject.Driver).Int64("amount", subject.Amount)
	}
	ev.Msg("lifecycle event")
}
