package usage

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/veilnet/confighub/internal/http/middlewarectx"
	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/session"
)

// MockService реализует интерфейс usage.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Usage(ctx context.Context, sessionToken string) (*models.Usage, error) {
	args := m.Called(ctx, sessionToken)
	if res := args.Get(0); res != nil {
		return res.(*models.Usage), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUsageHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		token          string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:  "успешное чтение статистики",
			token: "tok-valid",
			setupMock: func(m *MockService) {
				m.On("Usage", mock.Anything, "tok-valid").Return(&models.Usage{
					WireguardUsed:      1,
					WireguardRemaining: 2,
					DNSUsed:            0,
					DNSRemaining:       3,
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"wireguard_remaining":2`,
		},
		{
			name:           "запрос без токена в контексте",
			token:          "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"code":"UNAUTHENTICATED"`,
		},
		{
			name:  "просроченная сессия",
			token: "tok-stale",
			setupMock: func(m *MockService) {
				m.On("Usage", mock.Anything, "tok-stale").
					Return(nil, session.ErrInvalidSession)
			},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"code":"UNAUTHENTICATED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/usage", nil)
			if tt.token != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.Token, tt.token))
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
