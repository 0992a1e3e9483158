package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lgulliver/cargolifter/internal/audit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockOperationLog mocks the audit store for testing
type MockOperationLog struct {
	mock.Mock
}

func (m *MockOperationLog) List(ctx context.Context, crate string, limit int) ([]audit.Operation, error) {
	args := m.Called(ctx, crate, limit)
	ops, _ := args.Get(0).([]audit.Operation)
	return ops, args.Error(1)
}

func setupAuditRouter(operations OperationLog) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	AuditRoutes(router.Group("/api/v1"), operations)
	return router
}

func TestHandleOperations(t *testing.T) {
	tests := []struct {
		name           string
		path           string
		limit          int
		ops            []audit.Operation
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "default limit",
			path:           "/api/v1/operations/foo",
			limit:          defaultOperationLimit,
			ops:            []audit.Operation{{Kind: "publish", Crate: "foo", Version: "0.1.0", Success: true}},
			expectedStatus: http.StatusOK,
			expectedBody:   `"kind":"publish"`,
		},
		{
			name:           "explicit limit",
			path:           "/api/v1/operations/foo?limit=5",
			limit:          5,
			ops:            []audit.Operation{},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"operations":[]}`,
		},
		{
			name:           "limit is capped",
			path:           "/api/v1/operations/foo?limit=5000",
			limit:          maxOperationLimit,
			ops:            []audit.Operation{},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "store failure",
			path:           "/api/v1/operations/foo",
			limit:          defaultOperationLimit,
			err:            errors.New("database is locked"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   "failed to list operations for foo",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			operations := new(MockOperationLog)
			operations.On("List", mock.Anything, "foo", tt.limit).Return(tt.ops, tt.err)

			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "tok")
			w := httptest.NewRecorder()
			setupAuditRouter(operations).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedBody != "" {
				assert.Contains(t, w.Body.String(), tt.expectedBody)
			}
			operations.AssertExpectations(t)
		})
	}
}

func TestHandleOperations_RejectsBadInput(t *testing.T) {
	operations := new(MockOperationLog)
	router := setupAuditRouter(operations)

	for _, path := range []string{"/api/v1/operations/foo?limit=0", "/api/v1/operations/foo?limit=ten", "/api/v1/operations/foo.bar"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "tok")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, path)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/operations/foo", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	operations.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}
