package mail

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/stockhub-kr/stockhub/internal/core"
	"github.com/stockhub-kr/stockhub/internal/metrics"
	"github.com/stockhub-kr/stockhub/internal/observability"
	"go.uber.org/zap"
)

// Sender is the delivery dependency of the Dispatcher.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Dispatcher queues messages and delivers them in the background.
// Enqueueing never blocks: when the queue is full the message is
// dropped and counted, which is acceptable for notification mail.
type Dispatcher struct {
	Sender     Sender
	From       string
	AdminEmail string

	queue chan Message
}

// NewDispatcher constructs a Dispatcher with a bounded queue.
func NewDispatcher(sender Sender, from, adminEmail string) *Dispatcher {
	return &Dispatcher{
		Sender:     sender,
		From:       from,
		AdminEmail: adminEmail,
		queue:      make(chan Message, 64),
	}
}

// Run delivers queued messages until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			sendCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			err := d.Sender.Send(sendCtx, msg)
			cancel()

			metrics.RecordMailDispatch(err == nil)
			if err != nil && observability.ServerLogger != nil {
				observability.ServerLogger.Warn("mail delivery failed",
					zap.String("subject", msg.Subject),
					zap.Error(err),
				)
			}
		}
	}
}

// Enqueue adds a message to the delivery queue.
func (d *Dispatcher) Enqueue(msg Message) {
	if msg.From == "" {
		msg.From = d.From
	}

	select {
	case d.queue <- msg:
	default:
		metrics.RecordMailDispatch(false)
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("mail queue full, dropping message",
				zap.String("subject", msg.Subject),
			)
		}
	}
}

// RelayInquiry forwards a contact-form inquiry to the admin mailbox.
func (d *Dispatcher) RelayInquiry(inquiry core.Inquiry) {
	if d.AdminEmail == "" {
		return
	}

	d.Enqueue(Message{
		To:      []string{d.AdminEmail},
		Subject: fmt.Sprintf("[inquiry] %s", inquiry.Subject),
		HTML: fmt.Sprintf(
			"<p><b>From:</b> %s &lt;%s&gt;</p><p>%s</p>",
			html.EscapeString(inquiry.Name),
			html.EscapeString(inquiry.Email),
			html.EscapeString(inquiry.Message),
		),
		Text: fmt.Sprintf("From: %s <%s>\n\n%s", inquiry.Name, inquiry.Email, inquiry.Message),
	})
}
