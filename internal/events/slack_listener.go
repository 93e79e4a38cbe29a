package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"

	"invoicer/internal/models"
)

// slackPoster is the slice of the slack client we use; the real
// *slack.Client satisfies it.
type slackPoster interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

// SlackListener announces money movements to a channel. Only the events the
// finance team asked for are forwarded; the rest are dropped.
type SlackListener struct {
	client  slackPoster
	channel string
}

func NewSlackListener(token, channel string) *SlackListener {
	return &SlackListener{client: slack.New(token), channel: channel}
}

func (l *SlackListener) Handle(ctx context.Context, e Event) {
	text := l.message(e)
	if text == "" {
		return
	}
	_, _, err := l.client.PostMessageContext(ctx, l.channel,
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		log.Warn().Err(err).Str("event", e.Name).Msg("slack: post failed")
	}
}

func (l *SlackListener) message(e Event) string {
	switch e.Name {
	case InvoicePaid:
		if inv, ok := e.Payload.(*models.Invoice); ok {
			return fmt.Sprintf(":moneybag: Invoice %s paid in full (%s)",
				inv.Ref, models.FormatAmount(inv.Currency, inv.GrandTotal))
		}
	case InvoiceWrittenOff:
		if inv, ok := e.Payload.(*models.Invoice); ok {
			return fmt.Sprintf(":wastebasket: Invoice %s written off (%s outstanding)",
				inv.Ref, models.FormatAmount(inv.Currency, inv.Outstanding()))
		}
	case PaymentUpdated:
		if p, ok := e.Payload.(*models.Payment); ok && p.Status == models.PaymentStatusFailed {
			return fmt.Sprintf(":x: Payment %s failed via %s: %s", p.Ref, p.Driver, p.FailMsg)
		}
	}
	return ""
}
