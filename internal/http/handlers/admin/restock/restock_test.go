package restock

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/veilnet/confighub/internal/models"
	"github.com/veilnet/confighub/internal/services/inventory"
)

// MockService реализует интерфейс restock.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Restock(ctx context.Context, id string, family models.IPFamily, addrs []string) (int, error) {
	args := m.Called(ctx, id, family, addrs)
	return args.Int(0), args.Error(1)
}

func TestRestockHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		countryID      string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "успешное пополнение пула",
			countryID: "nl",
			body:      `{"ip_family":"v4","addresses":["10.0.0.8","10.0.0.9"]}`,
			setupMock: func(m *MockService) {
				m.On("Restock", mock.Anything, "nl", models.FamilyV4, []string{"10.0.0.8", "10.0.0.9"}).
					Return(7, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"pool_size":7`,
		},
		{
			name:           "пустой список адресов",
			countryID:      "nl",
			body:           `{"ip_family":"v4","addresses":[]}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"VALIDATION"`,
		},
		{
			name:           "неизвестное семейство адресов",
			countryID:      "nl",
			body:           `{"ip_family":"v5","addresses":["10.0.0.8"]}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"code":"VALIDATION"`,
		},
		{
			name:      "страна не найдена",
			countryID: "zz",
			body:      `{"ip_family":"v6","addresses":["fd00::1"]}`,
			setupMock: func(m *MockService) {
				m.On("Restock", mock.Anything, "zz", models.FamilyV6, []string{"fd00::1"}).
					Return(0, inventory.ErrCountryNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"code":"NOT_FOUND"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/admin/countries/"+tt.countryID+"/restock", strings.NewReader(tt.body))
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.countryID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
