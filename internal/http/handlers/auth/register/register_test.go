package register

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/abdullaevmar/device-registry/internal/storage/repository"
)

// MockService реализует интерфейс register.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, email, username, nin, password string) (string, error) {
	args := m.Called(ctx, email, username, nin, password)
	return args.String(0), args.Error(1)
}

func TestRegisterHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная регистрация",
			body: `{"email":"user@example.com","username":"user1","nin":"12345678901234","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "user@example.com", "user1", "12345678901234", "secret123").
					Return("acc-uid-1", nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"account_uid":"acc-uid-1"`,
		},
		{
			name:           "некорректный json",
			body:           `{not-json`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid request body"`,
		},
		{
			name:           "невалидный email",
			body:           `{"email":"not-an-email","username":"user1","nin":"12345678901234","password":"secret123"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Email must be a valid email`,
		},
		{
			name:           "короткий пароль",
			body:           `{"email":"user@example.com","username":"user1","nin":"12345678901234","password":"short"}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Password`,
		},
		{
			name: "email занят",
			body: `{"email":"user@example.com","username":"user1","nin":"12345678901234","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "user@example.com", "user1", "12345678901234", "secret123").
					Return("", repository.ErrAlreadyExists)
			},
			expectedStatus: http.StatusConflict,
			expectedBody:   `"error":"email or username already taken"`,
		},
		{
			name: "ошибка сервиса",
			body: `{"email":"user@example.com","username":"user1","nin":"12345678901234","password":"secret123"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, "user@example.com", "user1", "12345678901234", "secret123").
					Return("", errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"failed to register account"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
