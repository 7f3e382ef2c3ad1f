package mailservice

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"golang.org/x/exp/rand"

	"github.com/sushihentaime/inkwell/internal/common"
)

var knownTemplates = map[string]bool{
	common.TemplateWelcome:        true,
	common.TemplateVerifyEmail:    true,
	common.TemplateResetPassword:  true,
	common.TemplateAccountClosed:  true,
	common.TemplateContactMessage: true,
}

func NewMailService(mb common.MessageConsumer, host, username, password, sender string, port int, logger *slog.Logger) *MailService {
	ctx, cancel := context.WithCancel(context.Background())
	return &MailService{
		mb:        mb,
		m:         NewMailer(host, port, username, password, sender, NewTemplate()),
		logger:    logger,
		baseDelay: baseDelay,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SendNotifications starts delivering queued notifications in the background
// until Close is called or the broker closes the delivery channel.
func (s *MailService) SendNotifications() error {
	msgs, err := s.mb.Consume(common.NotificationKey, common.NotificationExchange, common.NotificationQueue)
	if err != nil {
		s.logger.Error("could not consume message", slog.String("error", err.Error()))
		return err
	}

	go s.consume(msgs)

	return nil
}

func (s *MailService) consume(msgs <-chan amqp.Delivery) {
	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			var n common.Notification
			if err := json.Unmarshal(msg.Body, &n); err != nil {
				s.logger.Error("could not unmarshal message", slog.String("error", err.Error()))
				msg.Nack(false, false)
				continue
			}

			if !knownTemplates[n.Template] || n.To == "" {
				s.logger.Error("dropping notification", slog.String("template", n.Template), slog.String("email", n.To))
				msg.Nack(false, false)
				continue
			}

			s.deliver(n)
			msg.Ack(false)

		case <-s.ctx.Done():
			s.logger.Info("stopping notification delivery due to context cancellation")
			return
		}
	}
}

// deliver sends n, retrying with exponential backoff and full jitter. It
// reports whether the email went out.
func (s *MailService) deliver(n common.Notification) bool {
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := s.m.send(n.To, n.Data, n.Template)
		if err == nil {
			s.logger.Info("email sent", slog.String("email", n.To), slog.String("template", n.Template))
			return true
		}

		delay := time.Duration(rand.Int63n(int64(s.baseDelay) << uint(attempt)))
		s.logger.Info("delaying email", slog.String("email", n.To), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-s.ctx.Done():
			return false
		}
	}

	s.logger.Error("could not send email", slog.String("email", n.To), slog.String("template", n.Template))
	return false
}

func (s *MailService) Close() {
	s.cancel()
}
