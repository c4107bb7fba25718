package request

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

	"github.com/veilnet/confighub/internal/services/otp"
)

// MockService реализует интерфейс request.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Request(ctx context.Context, telegramID string) error {
	args := m.Called(ctx, telegramID)
	return args.Error(0)
}

func TestRequestHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная отправка кода",
			body: `{"telegram_id":"100500"}`,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, "100500").Return(nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"status":"OK"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"telegram_id":`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"VALIDATION"`,
		},
		{
			name:           "нечисловой идентификатор",
			body:           `{"telegram_id":"alice"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `"code":"VALIDATION"`,
		},
		{
			name: "пользователь не в канале",
			body: `{"telegram_id":"42"}`,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, "42").Return(otp.ErrNotMember)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"code":"NOT_MEMBER"`,
		},
		{
			name: "бот не смог доставить сообщение",
			body: `{"telegram_id":"100500"}`,
			setupMock: func(m *MockService) {
				m.On("Request", mock.Anything, "100500").Return(otp.ErrDeliveryFailed)
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"code":"DELIVERY_FAILED"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/auth/request", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
