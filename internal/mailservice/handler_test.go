package mailservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkwell/internal/common"
)

func newTestService(t *testing.T, mb common.MessageConsumer, m Mailer, delay time.Duration) *MailService {
	ctx, cancel := context.WithCancel(context.Background())

	s := &MailService{
		mb:        mb,
		m:         m,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		baseDelay: delay,
		ctx:       ctx,
		cancel:    cancel,
	}

	t.Cleanup(s.Close)

	return s
}

func TestConsumeNotifications(t *testing.T) {
	mockMC := &MockMessageConsumer{
		Bodies: []string{
			`{"to":"reader@example.com","template":"welcome.html","data":{"firstName":"Reader"}}`,
			`not json`,
			`{"to":"reader@example.com","template":"unknown.html"}`,
			`{"template":"welcome.html"}`,
			`{"to":"contact@example.com","template":"contact_message.html","data":{"subject":"Hi"}}`,
		},
	}
	mockMC.On("Consume", common.NotificationKey, common.NotificationExchange, common.NotificationQueue).Return(nil)

	mockMailer := new(MockMailer)
	mockMailer.On("send", "reader@example.com", map[string]string{"firstName": "Reader"}, common.TemplateWelcome).Return(nil).Once()
	mockMailer.On("send", "contact@example.com", map[string]string{"subject": "Hi"}, common.TemplateContactMessage).Return(nil).Once()

	s := newTestService(t, mockMC, mockMailer, time.Millisecond)

	msgs, err := s.mb.Consume(common.NotificationKey, common.NotificationExchange, common.NotificationQueue)
	require.NoError(t, err)

	s.consume(msgs)

	mockMC.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
	mockMailer.AssertNumberOfCalls(t, "send", 2)
}

func TestSendNotificationsConsumeError(t *testing.T) {
	mockMC := new(MockMessageConsumer)
	mockMC.On("Consume", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("channel closed"))

	s := newTestService(t, mockMC, new(MockMailer), time.Millisecond)

	assert.Error(t, s.SendNotifications())
}

func TestDeliverRetries(t *testing.T) {
	n := common.Notification{To: "reader@example.com", Template: common.TemplateVerifyEmail}

	t.Run("succeeds after failures", func(t *testing.T) {
		mockMailer := new(MockMailer)
		mockMailer.On("send", n.To, mock.Anything, n.Template).Return(errors.New("smtp busy")).Twice()
		mockMailer.On("send", n.To, mock.Anything, n.Template).Return(nil).Once()

		s := newTestService(t, new(MockMessageConsumer), mockMailer, time.Millisecond)

		assert.True(t, s.deliver(n))
		mockMailer.AssertNumberOfCalls(t, "send", 3)
	})

	t.Run("gives up", func(t *testing.T) {
		mockMailer := new(MockMailer)
		mockMailer.On("send", n.To, mock.Anything, n.Template).Return(errors.New("smtp down"))

		s := newTestService(t, new(MockMessageConsumer), mockMailer, time.Millisecond)

		assert.False(t, s.deliver(n))
		mockMailer.AssertNumberOfCalls(t, "send", maxRetries)
	})

	t.Run("stops when closed", func(t *testing.T) {
		mockMailer := new(MockMailer)
		mockMailer.On("send", n.To, mock.Anything, n.Template).Return(errors.New("smtp down"))

		s := newTestService(t, new(MockMessageConsumer), mockMailer, time.Hour)
		s.Close()

		assert.False(t, s.deliver(n))
		mockMailer.AssertNumberOfCalls(t, "send", 1)
	})
}
