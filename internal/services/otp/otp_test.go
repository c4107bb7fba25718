package otp

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/veilnet/confighub/internal/kvstore"
	"github.com/veilnet/confighub/internal/services/session"
)

const adminID = "999"

// MockMessenger реализует интерфейс otp.Messenger
type MockMessenger struct {
	mock.Mock
	lastText string
}

func (m *MockMessenger) SendMessage(ctx context.Context, chatID, text string) error {
	m.lastText = text
	args := m.Called(ctx, chatID, text)
	return args.Error(0)
}

func (m *MockMessenger) IsChannelMember(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// sentCode достаёт шестизначный код из текста отправленного сообщения.
func (m *MockMessenger) sentCode(t *testing.T) string {
	t.Helper()
	idx := strings.LastIndex(m.lastText, " ")
	require.NotEqual(t, -1, idx)
	code := m.lastText[idx+1:]
	require.Len(t, code, 6)
	return code
}

func newTestService(t *testing.T, msgr Messenger) (*Service, *kvstore.MemoryStore, *session.Service) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	store := kvstore.NewMemory()
	sessions := session.New(store, adminID, 24*time.Hour, logger)
	return New(store, msgr, sessions, adminID, logger), store, sessions
}

func TestService_RequestAndVerify(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, "12345").Return(true, nil)
	msgr.On("SendMessage", mock.Anything, "12345", mock.Anything).Return(nil)

	svc, _, sessions := newTestService(t, msgr)

	require.NoError(t, svc.Request(ctx, "12345"))
	code := msgr.sentCode(t)

	tok, isAdmin, err := svc.Verify(ctx, "12345", code)
	require.NoError(t, err)
	assert.False(t, isAdmin)

	sess, err := sessions.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "12345", sess.UserID)

	// код одноразовый
	_, _, err = svc.Verify(ctx, "12345", code)
	assert.ErrorIs(t, err, ErrCodeInvalid)
}

func TestService_AdminLogin(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, adminID).Return(true, nil)
	msgr.On("SendMessage", mock.Anything, adminID, mock.Anything).Return(nil)

	svc, _, sessions := newTestService(t, msgr)

	require.NoError(t, svc.Request(ctx, adminID))

	tok, isAdmin, err := svc.Verify(ctx, adminID, msgr.sentCode(t))
	require.NoError(t, err)
	assert.True(t, isAdmin)

	sess, err := sessions.Validate(ctx, tok)
	require.NoError(t, err)
	assert.True(t, sess.IsAdmin)
}

func TestService_WrongCodeAttemptsAreCapped(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, "12345").Return(true, nil)
	msgr.On("SendMessage", mock.Anything, "12345", mock.Anything).Return(nil)

	svc, _, _ := newTestService(t, msgr)
	require.NoError(t, svc.Request(ctx, "12345"))
	code := msgr.sentCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		_, _, err := svc.Verify(ctx, "12345", wrong)
		assert.ErrorIs(t, err, ErrCodeInvalid)
	}

	// после трёх неудач даже правильный код не принимается
	_, _, err := svc.Verify(ctx, "12345", code)
	assert.ErrorIs(t, err, ErrTooManyAttempts)
}

func TestService_NewRequestResetsAttempts(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, "12345").Return(true, nil)
	msgr.On("SendMessage", mock.Anything, "12345", mock.Anything).Return(nil)

	svc, _, _ := newTestService(t, msgr)
	require.NoError(t, svc.Request(ctx, "12345"))
	code := msgr.sentCode(t)

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	for i := 0; i < 3; i++ {
		_, _, _ = svc.Verify(ctx, "12345", wrong)
	}

	require.NoError(t, svc.Request(ctx, "12345"))
	_, _, err := svc.Verify(ctx, "12345", msgr.sentCode(t))
	assert.NoError(t, err)
}

func TestService_NotChannelMember(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, "12345").Return(false, nil)

	svc, _, _ := newTestService(t, msgr)
	err := svc.Request(ctx, "12345")
	assert.ErrorIs(t, err, ErrNotMember)
}

func TestService_DeliveryFailure(t *testing.T) {
	ctx := context.Background()
	msgr := new(MockMessenger)
	msgr.On("IsChannelMember", mock.Anything, "12345").Return(true, nil)
	msgr.On("SendMessage", mock.Anything, "12345", mock.Anything).Return(errors.New("bot blocked by user"))

	svc, _, _ := newTestService(t, msgr)
	err := svc.Request(ctx, "12345")
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestService_VerifyWithoutRequest(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestService(t, new(MockMessenger))

	_, _, err := svc.Verify(ctx, "12345", "123456")
	assert.ErrorIs(t, err, ErrCodeInvalid)
}
