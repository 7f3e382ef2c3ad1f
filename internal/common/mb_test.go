package common

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, msg []byte, key BindingKey, exchange Exchange) error {
	args := m.Called(msg, key, exchange)
	return args.Error(0)
}

func TestBrokerNotifier(t *testing.T) {
	p := new(mockProducer)
	n := NewBrokerNotifier(p)

	note := Notification{
		To:       "reader@example.com",
		Template: TemplateResetPassword,
		Data:     map[string]string{"Link": "https://example.com/reset/abc"},
	}

	p.On("Publish", mock.MatchedBy(func(msg []byte) bool {
		var got Notification
		if err := json.Unmarshal(msg, &got); err != nil {
			return false
		}
		return got.To == note.To && got.Template == note.Template && got.Data["Link"] == note.Data["Link"]
	}), NotificationKey, NotificationExchange).Return(nil)

	err := n.Notify(context.Background(), note)
	assert.NoError(t, err)
	p.AssertExpectations(t)
}

func TestMessageBrokerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping broker container test in short mode")
	}

	mb, err := NewMessageBroker(TestRabbitMQ(t))
	assert.NoError(t, err)
	t.Cleanup(func() { mb.Close() })

	assert.NoError(t, SetupNotificationExchange(mb))

	msgs, err := mb.Consume(NotificationKey, NotificationExchange, NotificationQueue)
	assert.NoError(t, err)

	err = NewBrokerNotifier(mb).Notify(context.Background(), Notification{To: "a@example.com", Template: TemplateWelcome})
	assert.NoError(t, err)

	msg := <-msgs
	var got Notification
	assert.NoError(t, json.Unmarshal(msg.Body, &got))
	assert.Equal(t, "a@example.com", got.To)
	assert.NoError(t, msg.Ack(false))
}
