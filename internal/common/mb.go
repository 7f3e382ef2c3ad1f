package common

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Exchange string

type Queue string

type BindingKey string

type MessageProducer interface {
	Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error
}

type MessageConsumer interface {
	Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error)
}

const (
	NotificationExchange Exchange   = "notification_exchange"
	NotificationQueue    Queue      = "notification_queue"
	NotificationKey      BindingKey = "notification.email"
)

type MessageBroker struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func AMQPURI(host, port, user, password string) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s/", user, password, host, port)
}

func NewMessageBroker(URI string) (*MessageBroker, error) {
	conn, ch, err := connectAMQP(URI)
	if err != nil {
		return nil, err
	}

	return &MessageBroker{
		conn: conn,
		ch:   ch,
	}, nil
}

func connectAMQP(URI string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(URI)
	if err != nil {
		return nil, nil, fmt.Errorf("could not connect to AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("could not open channel: %w", err)
	}

	return conn, ch, nil
}

// Close closes the connection and channel of the message broker.
func (mb *MessageBroker) Close() error {
	err := mb.ch.Close()
	if err != nil {
		return err
	}

	return mb.conn.Close()
}

// SetupNotificationExchange declares the durable exchange and queue that carry
// outbound email notifications.
func SetupNotificationExchange(mb *MessageBroker) error {
	err := mb.ch.ExchangeDeclare(string(NotificationExchange), "direct", true, false, false, false, nil)
	if err != nil {
		return err
	}

	_, err = mb.ch.QueueDeclare(string(NotificationQueue), true, false, false, false, nil)
	if err != nil {
		return err
	}

	return mb.ch.QueueBind(string(NotificationQueue), string(NotificationKey), string(NotificationExchange), false, nil)
}

func (mb *MessageBroker) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	err := mb.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         msg,
	})
	if err != nil {
		return fmt.Errorf("could not publish message: %w", err)
	}

	return nil
}

func (mb *MessageBroker) Consume(key BindingKey, exchange Exchange, queue Queue) (<-chan amqp.Delivery, error) {
	msgs, err := mb.ch.Consume(string(queue), string(key), false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("could not consume message: %w", err)
	}

	return msgs, nil
}

// Email templates understood by the mail service.
const (
	TemplateWelcome        = "welcome.html"
	TemplateVerifyEmail    = "verify_email.html"
	TemplateResetPassword  = "reset_password.html"
	TemplateAccountClosed  = "account_closed.html"
	TemplateContactMessage = "contact_message.html"
)

// Notification is the message body published for the mail service.
type Notification struct {
	To       string            `json:"to"`
	Template string            `json:"template"`
	Data     map[string]string `json:"data"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// BrokerNotifier queues notifications on the broker. A nil error means the
// message was accepted by the broker, not that the email was delivered.
type BrokerNotifier struct {
	p MessageProducer
}

func NewBrokerNotifier(p MessageProducer) *BrokerNotifier {
	return &BrokerNotifier{p: p}
}

func (n *BrokerNotifier) Notify(ctx context.Context, note Notification) error {
	body, err := json.Marshal(note)
	if err != nil {
		return err
	}

	return n.p.Publish(ctx, body, NotificationKey, NotificationExchange)
}
