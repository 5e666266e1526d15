package sender

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cvmanager/cvmanager/internal/lib/smtp"
	"github.com/cvmanager/cvmanager/internal/models"
	"github.com/cvmanager/cvmanager/internal/storage"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type MockInvoices struct {
	mock.Mock
}

func (m *MockInvoices) MarkInvoiceSent(ctx context.Context, id string, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

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

func (m *MockTransport) Sender() string {
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
	bytes.Buffer
	closed bool
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	transport *MockTransport
	client    *MockSMTPClient
	writer    *bufferWriter
	users     *MockUsers
	invoices  *MockInvoices
	svc       *Service
}

func newFixture() *fixture {
	f := &fixture{
		transport: new(MockTransport),
		client:    new(MockSMTPClient),
		writer:    &bufferWriter{},
		users:     new(MockUsers),
		invoices:  new(MockInvoices),
	}
	f.svc = New(f.transport, f.users, f.invoices, "https://cv.example.com/", newNoopLogger())
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) expectDelivery(to string) {
	f.transport.On("Sender").Return("no-reply@example.com")
	f.transport.On("Connect").Return(f.client, nil).Once()
	f.client.On("Mail", "no-reply@example.com").Return(nil).Once()
	f.client.On("Rcpt", to).Return(nil).Once()
	f.client.On("Data").Return(f.writer, nil).Once()
	f.client.On("Quit").Return(nil).Once()
	f.client.On("Close").Return(nil).Once()
}

func TestHandle_Verification(t *testing.T) {
	f := newFixture()
	f.expectDelivery("ana@example.com")

	err := f.svc.Handle(context.Background(),
		[]byte(`{"kind":"verification","username":"ana","email":"ana@example.com","token":"abc123"}`))

	require.NoError(t, err)
	body := f.writer.String()
	assert.Contains(t, body, "Subject: =?UTF-8?q?Verifica_tu_correo_electr=C3=B3nico?=\r\n")
	assert.Equal(t, "Verifica tu correo electrónico", decodedSubject(t, body))
	assert.Contains(t, body, "https://cv.example.com/api/verify-email/abc123")
	assert.Contains(t, body, "Hola, ana.")
	assert.True(t, f.writer.closed)
	f.client.AssertExpectations(t)
	f.users.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func decodedSubject(t *testing.T, msg string) string {
	t.Helper()
	for _, line := range strings.Split(msg, "\r\n") {
		if encoded, ok := strings.CutPrefix(line, "Subject: "); ok {
			decoded, err := new(mime.WordDecoder).DecodeHeader(encoded)
			require.NoError(t, err)
			return decoded
		}
	}
	t.Fatal("no Subject header")
	return ""
}

func TestHandle_HeadersAreASCII(t *testing.T) {
	f := newFixture()
	f.users.On("GetUserByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Email: "u1@example.com"}, nil).Once()
	f.expectDelivery("u1@example.com")

	err := f.svc.Handle(context.Background(), []byte(`{"kind":"subscription_expired","user_id":"u1","username":"u1"}`))
	require.NoError(t, err)

	headers, _, found := strings.Cut(f.writer.String(), "\r\n\r\n")
	require.True(t, found)
	for _, r := range headers {
		require.Less(t, r, rune(128), "header contains non-ASCII rune %q", r)
	}
	assert.Equal(t, "Tu suscripción ha expirado", decodedSubject(t, f.writer.String()))
}

func TestHandle_ResolvesEmailByUserID(t *testing.T) {
	f := newFixture()
	f.users.On("GetUserByID", mock.Anything, "u1").
		Return(&models.User{ID: "u1", Email: "u1@example.com"}, nil).Once()
	f.expectDelivery("u1@example.com")

	err := f.svc.Handle(context.Background(), []byte(`{"kind":"trial_expired","user_id":"u1","username":"u1"}`))

	require.NoError(t, err)
	assert.Contains(t, f.writer.String(), "Tu periodo de prueba ha expirado")
	f.users.AssertExpectations(t)
}

func TestHandle_Invoice(t *testing.T) {
	tests := []struct {
		name      string
		markErr   error
		expectErr bool
	}{
		{name: "marked as sent"},
		{name: "already sent", markErr: storage.ErrNotFound},
		{name: "store failure", markErr: errors.New("db down"), expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.expectDelivery("ana@example.com")
			f.invoices.On("MarkInvoiceSent", mock.Anything, "inv-1", fixedNow).Return(tt.markErr).Once()

			err := f.svc.Handle(context.Background(), []byte(
				`{"kind":"invoice","email":"ana@example.com","username":"ana","invoice_id":"inv-1","plan":"profesional","total":116000,"currency":"MXN"}`))

			if tt.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Contains(t, f.writer.String(), "1160.00 MXN")
			f.invoices.AssertExpectations(t)
		})
	}
}

func TestHandle_Skips(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		setup func(f *fixture)
	}{
		{
			name: "unknown kind",
			body: `{"kind":"newsletter","email":"a@example.com"}`,
		},
		{
			name: "no email and no user",
			body: `{"kind":"trial_expired"}`,
		},
		{
			name: "user without email",
			body: `{"kind":"subscription_expired","user_id":"u1"}`,
			setup: func(f *fixture) {
				f.users.On("GetUserByID", mock.Anything, "u1").Return(&models.User{ID: "u1"}, nil).Once()
			},
		},
		{
			name: "user deleted",
			body: `{"kind":"subscription_expired","user_id":"u1"}`,
			setup: func(f *fixture) {
				f.users.On("GetUserByID", mock.Anything, "u1").Return(nil, storage.ErrNotFound).Once()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			if tt.setup != nil {
				tt.setup(f)
			}

			require.NoError(t, f.svc.Handle(context.Background(), []byte(tt.body)))
			f.transport.AssertNotCalled(t, "Connect")
		})
	}
}

func TestHandle_Errors(t *testing.T) {
	t.Run("invalid json", func(t *testing.T) {
		f := newFixture()
		err := f.svc.Handle(context.Background(), []byte(`invalid json`))
		require.ErrorIs(t, err, ErrBadMessage)
	})

	t.Run("user lookup failure", func(t *testing.T) {
		f := newFixture()
		f.users.On("GetUserByID", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
		err := f.svc.Handle(context.Background(), []byte(`{"kind":"trial_expired","user_id":"u1"}`))
		require.Error(t, err)
	})

	t.Run("smtp connect failure", func(t *testing.T) {
		f := newFixture()
		f.transport.On("Sender").Return("no-reply@example.com")
		f.transport.On("Connect").Return(nil, errors.New("refused")).Once()
		err := f.svc.Handle(context.Background(), []byte(`{"kind":"trial_expired","email":"a@example.com"}`))
		require.Error(t, err)
	})

	t.Run("rcpt rejected", func(t *testing.T) {
		f := newFixture()
		f.transport.On("Sender").Return("no-reply@example.com")
		f.transport.On("Connect").Return(f.client, nil).Once()
		f.client.On("Mail", "no-reply@example.com").Return(nil).Once()
		f.client.On("Rcpt", "a@example.com").Return(errors.New("550 no such user")).Once()
		f.client.On("Close").Return(nil).Once()

		err := f.svc.Handle(context.Background(), []byte(`{"kind":"trial_expired","email":"a@example.com"}`))
		require.Error(t, err)
		f.client.AssertNotCalled(t, "Data")
	})
}

func TestFormatDate(t *testing.T) {
	ts := time.Date(2025, 3, 11, 13, 0, 0, 0, time.UTC)
	assert.Equal(t, "11/03/2025 13:00 UTC", formatDate(&ts))
	assert.Equal(t, "-", formatDate(nil))
}
