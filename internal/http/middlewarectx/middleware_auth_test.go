package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/session"
)

// MockSessions реализует интерфейс middlewarectx.Service
type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) Validate(ctx context.Context, tok string) (*models.Session, error) {
	args := m.Called(ctx, tok)
	if res := args.Get(0); res != nil {
		return res.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestTokenMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectToken    string
	}{
		{
			name:           "валидный bearer токен попадает в контекст",
			header:         "Bearer abc123",
			expectedStatus: http.StatusOK,
			expectToken:    "abc123",
		},
		{
			name:           "отсутствие заголовка",
			header:         "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "не bearer схема",
			header:         "Basic dXNlcjpwYXNz",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotToken string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotToken, _ = r.Context().Value(Token).(string)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/usage", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			TokenMiddleware(testLogger())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectToken != "" {
				assert.Equal(t, tt.expectToken, gotToken)
			}
		})
	}
}

func TestAdminMiddleware(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockSessions)
		expectedStatus int
	}{
		{
			name: "администратор проходит",
			setupMock: func(m *MockSessions) {
				m.On("Validate", mock.Anything, "admintok").Return(&models.Session{UserID: "999", IsAdmin: true}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "обычный пользователь получает 403",
			setupMock: func(m *MockSessions) {
				m.On("Validate", mock.Anything, "admintok").Return(&models.Session{UserID: "12345", IsAdmin: false}, nil)
			},
			expectedStatus: http.StatusForbidden,
		},
		{
			name: "просроченная сессия получает 401",
			setupMock: func(m *MockSessions) {
				m.On("Validate", mock.Anything, "admintok").Return(nil, session.ErrInvalidSession)
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := new(MockSessions)
			tt.setupMock(sessions)

			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPut, "/admin/countries/de", nil)
			req = req.WithContext(context.WithValue(req.Context(), Token, "admintok"))
			w := httptest.NewRecorder()

			AdminMiddleware(sessions, testLogger())(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			sessions.AssertExpectations(t)
		})
	}
}
