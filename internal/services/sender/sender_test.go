package sender

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-seller/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	return m.Called().String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error { return m.Called(from).Error(0) }
func (m *MockSMTPClient) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *MockSMTPClient) Quit() error            { return m.Called().Error(0) }
func (m *MockSMTPClient) Close() error           { return m.Called().Error(0) }

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

type bufferWriter struct {
	data   []byte
	closed bool
}

func (b *bufferWriter) Write(p []byte) (int, error) {
	b.data = append(b.data, p...)
	return len(p), nil
}

func (b *bufferWriter) Close() error {
	b.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestService_Send(t *testing.T) {
	tests := []struct {
		name      string
		send      func(s *Service) error
		recipient string
		contains  string
	}{
		{
			name: "reset password goes to user",
			send: func(s *Service) error {
				return s.SendResetPassword("user@example.com", "http://front/resetpassword/abc")
			},
			recipient: "user@example.com",
			contains:  "http://front/resetpassword/abc",
		},
		{
			name:      "contact goes to admin",
			send:      func(s *Service) error { return s.SendContact("Ann", "ann@example.com", "hello there") },
			recipient: "admin@example.com",
			contains:  "hello there",
		},
		{
			name:      "course request goes to admin",
			send:      func(s *Service) error { return s.SendCourseRequest("Ann", "ann@example.com", "Rust course") },
			recipient: "admin@example.com",
			contains:  "Rust course",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			client := new(MockSMTPClient)
			writer := &bufferWriter{}

			transport.On("GetSMTPUser").Return("noreply@example.com")
			transport.On("Connect").Return(client, nil).Once()
			client.On("Mail", "noreply@example.com").Return(nil).Once()
			client.On("Rcpt", tt.recipient).Return(nil).Once()
			client.On("Data").Return(writer, nil).Once()
			client.On("Quit").Return(nil).Once()
			client.On("Close").Return(nil).Once()

			s := New(newNoopLogger(), transport, "admin@example.com")
			assert.NoError(t, tt.send(s))
			assert.Contains(t, string(writer.data), tt.contains)
			assert.True(t, writer.closed)
			transport.AssertExpectations(t)
			client.AssertExpectations(t)
		})
	}
}

func TestService_ConnectError(t *testing.T) {
	transport := new(MockTransport)
	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(nil, errors.New("dial failed"))

	s := New(newNoopLogger(), transport, "admin@example.com")
	err := s.SendContact("Ann", "ann@example.com", "hi")
	assert.ErrorContains(t, err, "dial failed")
}

func TestService_RcptError(t *testing.T) {
	transport := new(MockTransport)
	client := new(MockSMTPClient)
	transport.On("GetSMTPUser").Return("noreply@example.com")
	transport.On("Connect").Return(client, nil)
	client.On("Mail", "noreply@example.com").Return(nil)
	client.On("Rcpt", "user@example.com").Return(errors.New("mailbox unavailable"))
	client.On("Close").Return(nil)

	s := New(newNoopLogger(), transport, "admin@example.com")
	assert.Error(t, s.SendResetPassword("user@example.com", "url"))
	client.AssertNotCalled(t, "Data")
}

func TestLogOnly(t *testing.T) {
	l := LogOnly{Log: newNoopLogger()}
	assert.NoError(t, l.SendResetPassword("a@b.c", "url"))
	assert.NoError(t, l.SendContact("a", "a@b.c", "m"))
	assert.NoError(t, l.SendCourseRequest("a", "a@b.c", "c"))
}
