package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/internal/replication"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/middleware"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/store/jsonfile"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.IsTest = true
	gin.SetMode(gin.TestMode)
}

type MockGuestbookService struct {
	mock.Mock
}

func (m *MockGuestbookService) SaveVisitor(ctx context.Context, name *string, originIP string) (int, error) {
	args := m.Called(ctx, name, originIP)
	return args.Int(0), args.Error(1)
}

func (m *MockGuestbookService) ListVisitors(ctx context.Context) ([]types.VisitorView, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.VisitorView), args.Error(1)
}

func (m *MockGuestbookService) SubmitFeedback(ctx context.Context, text *string) error {
	args := m.Called(ctx, text)
	return args.Error(0)
}

func (m *MockGuestbookService) ListFeedback(ctx context.Context) ([]types.Feedback, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]types.Feedback), args.Error(1)
}

func setupGuestbookRouter(svc GuestbookServiceInterface) *gin.Engine {
	h := NewGuestbookHandler(svc)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	r.POST("/save-visitor", h.SaveVisitor)
	r.GET("/get-visitors", h.GetVisitors)
	r.POST("/submit-feedback", h.SubmitFeedback)
	r.GET("/get-feedback", h.GetFeedback)
	return r
}

func doRequest(r *gin.Engine, method, path, contentType, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.RemoteAddr = "203.0.113.7:5555"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) types.ErrorResponse {
	t.Helper()
	var body types.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func namePtr(s string) *string { return &s }

func TestGuestbookHandler_SaveVisitor(t *testing.T) {
	tests := []struct {
		name           string
		contentType    string
		body           string
		setupMock      func(m *MockGuestbookService)
		expectedStatus int
		expectedType   string
	}{
		{
			name:        "json success",
			contentType: "application/json",
			body:        `{"name":"Ada","time":"5/1/2024, 12:00:00 PM"}`,
			setupMock: func(m *MockGuestbookService) {
				m.On("SaveVisitor", mock.Anything, namePtr("Ada"), "203.0.113.7").Return(3, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:        "form success",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=Grace",
			setupMock: func(m *MockGuestbookService) {
				m.On("SaveVisitor", mock.Anything, namePtr("Grace"), "203.0.113.7").Return(1, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "non-string name",
			contentType:    "application/json",
			body:           `{"name":5}`,
			setupMock:      func(m *MockGuestbookService) {},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "VALIDATION_ERROR",
		},
		{
			name:        "validation failure",
			contentType: "application/json",
			body:        `{}`,
			setupMock: func(m *MockGuestbookService) {
				m.On("SaveVisitor", mock.Anything, (*string)(nil), "203.0.113.7").
					Return(0, fmt.Errorf("%w: name is required", store.ErrValidation))
			},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "VALIDATION_ERROR",
		},
		{
			name:        "duplicate name",
			contentType: "application/json",
			body:        `{"name":"Ada"}`,
			setupMock: func(m *MockGuestbookService) {
				m.On("SaveVisitor", mock.Anything, namePtr("Ada"), "203.0.113.7").
					Return(0, fmt.Errorf("%w: already signed", store.ErrRateLimited))
			},
			expectedStatus: http.StatusTooManyRequests,
			expectedType:   "RATE_LIMITED",
		},
		{
			name:        "store failure",
			contentType: "application/json",
			body:        `{"name":"Ada"}`,
			setupMock: func(m *MockGuestbookService) {
				m.On("SaveVisitor", mock.Anything, namePtr("Ada"), "203.0.113.7").
					Return(0, fmt.Errorf("%w: disk full", store.ErrStoreIO))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedType:   "STORE_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGuestbookService)
			tt.setupMock(svc)
			r := setupGuestbookRouter(svc)

			w := doRequest(r, http.MethodPost, "/save-visitor", tt.contentType, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedType != "" {
				body := decodeError(t, w)
				assert.Equal(t, tt.expectedType, body.Type)
				assert.NotContains(t, body.Details, "disk full")
			} else {
				var resp types.SaveVisitorResponse
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
				assert.Equal(t, visitorSavedMessage, resp.Status)
				assert.Positive(t, resp.TotalVisitors)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGuestbookHandler_GetVisitors(t *testing.T) {
	t0 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := new(MockGuestbookService)
	svc.On("ListVisitors", mock.Anything).Return([]types.VisitorView{
		{Name: "late", Timestamp: t0.Add(time.Hour)},
		{Name: "first", Timestamp: t0},
		{Name: "second", Timestamp: t0},
	}, nil)
	r := setupGuestbookRouter(svc)

	w := doRequest(r, http.MethodGet, "/get-visitors", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	var visitors []types.VisitorView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &visitors))
	require.Len(t, visitors, 3)
	assert.Equal(t, []string{"first", "second", "late"},
		[]string{visitors[0].Name, visitors[1].Name, visitors[2].Name})
	assert.NotContains(t, w.Body.String(), "originIP")
}

func TestGuestbookHandler_GetVisitors_StoreFailure(t *testing.T) {
	svc := new(MockGuestbookService)
	svc.On("ListVisitors", mock.Anything).Return(nil, fmt.Errorf("%w: bad json", store.ErrCorruptStore))
	r := setupGuestbookRouter(svc)

	w := doRequest(r, http.MethodGet, "/get-visitors", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, "Error retrieving visitor data", body.Message)
}

func TestGuestbookHandler_SubmitFeedback(t *testing.T) {
	tests := []struct {
		name            string
		contentType     string
		body            string
		serviceErr      error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "json success",
			contentType:    "application/json",
			body:           `{"feedback":"Lovely page!"}`,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "form success",
			contentType:    "application/x-www-form-urlencoded",
			body:           "feedback=Lovely+page%21",
			expectedStatus: http.StatusOK,
		},
		{
			name:            "empty feedback",
			contentType:     "application/json",
			body:            `{"feedback":"Lovely page!"}`,
			serviceErr:      fmt.Errorf("%w: %w", store.ErrValidation, services.ErrEmptyFeedback),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: emptyFeedbackMessage,
		},
		{
			name:            "too long",
			contentType:     "application/json",
			body:            `{"feedback":"Lovely page!"}`,
			serviceErr:      fmt.Errorf("%w: feedback is longer than 500 characters", store.ErrValidation),
			expectedStatus:  http.StatusBadRequest,
			expectedMessage: "Invalid input",
		},
		{
			name:            "store failure",
			contentType:     "application/json",
			body:            `{"feedback":"Lovely page!"}`,
			serviceErr:      errors.New("disk full"),
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Error saving feedback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockGuestbookService)
			svc.On("SubmitFeedback", mock.Anything, namePtr("Lovely page!")).Return(tt.serviceErr)
			r := setupGuestbookRouter(svc)

			w := doRequest(r, http.MethodPost, "/submit-feedback", tt.contentType, tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.serviceErr == nil {
				assert.JSONEq(t, `{"status":"Feedback submitted successfully!"}`, w.Body.String())
			} else {
				assert.Equal(t, tt.expectedMessage, decodeError(t, w).Message)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestGuestbookHandler_GetFeedback(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	svc := new(MockGuestbookService)
	svc.On("ListFeedback", mock.Anything).Return([]types.Feedback{{Text: "hi", Timestamp: ts}}, nil)
	r := setupGuestbookRouter(svc)

	w := doRequest(r, http.MethodGet, "/get-feedback", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[{"feedback":"hi","timestamp":"2024-05-01T12:00:00.000Z"}]`, w.Body.String())
}

type stubReplicator struct {
	err   error
	calls int
}

func (s *stubReplicator) Name() string { return "stub" }

func (s *stubReplicator) Replicate(context.Context, replication.Change) error {
	s.calls++
	return s.err
}

// syncSubmitter runs replication jobs before Submit returns.
type syncSubmitter struct{}

func (syncSubmitter) Submit(job services.Job) bool {
	ctx, cancel := context.WithTimeout(context.Background(), job.Timeout)
	defer cancel()
	_ = job.Execute(ctx)
	return true
}

func TestGuestbookHandler_ReplicationOutcomeDoesNotChangeResponse(t *testing.T) {
	run := func(t *testing.T, replicator *stubReplicator) (int, string) {
		dir := t.TempDir()
		visitors := jsonfile.New[types.Visitor](dir, store.KindVisitor)
		feedback := jsonfile.New[types.Feedback](dir, store.KindFeedback)
		dispatcher := replication.NewDispatcher(syncSubmitter{}, replicator, time.Second)
		svc := services.NewGuestbookService(visitors, feedback, dispatcher, services.DefaultGuestbookConfig())
		r := setupGuestbookRouter(svc)

		w := doRequest(r, http.MethodPost, "/save-visitor", "application/json", `{"name":"Ada"}`)
		require.Equal(t, 1, replicator.calls)
		return w.Code, w.Body.String()
	}

	okCode, okBody := run(t, &stubReplicator{})
	failCode, failBody := run(t, &stubReplicator{err: errors.New("push rejected")})

	assert.Equal(t, http.StatusOK, okCode)
	assert.Equal(t, okCode, failCode)
	assert.JSONEq(t, okBody, failBody)
	assert.JSONEq(t, `{"status":"Visitor data saved successfully!","totalVisitors":1}`, okBody)
}
