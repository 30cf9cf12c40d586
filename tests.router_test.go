package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newNoopMiddlewareMap() *MiddlewareMap {
	return &MiddlewareMap{public: (&Middlewares{}).Chain, ops: (&Middlewares{}).Chain}
}

// TestSetupBookRoutes ensures all expected book endpoints are implemented.
func TestSetupBookRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		request     *http.Request
		implemented bool
	}{
		{
			"index endpoint",
			httptest.NewRequest(http.MethodGet, "/", nil),
			true,
		},
		{
			"status endpoint",
			httptest.NewRequest(http.MethodGet, "/status", nil),
			true,
		},
		{
			"create book endpoint",
			httptest.NewRequest(http.MethodPost, "/book", nil),
			true,
		},
		{
			"fetch all books endpoint",
			httptest.NewRequest(http.MethodGet, "/book", nil),
			true,
		},
		{
			"fetch single book endpoint",
			httptest.NewRequest(http.MethodGet, "/book/"+testBookID, nil),
			true,
		},
		{
			"update book endpoint",
			httptest.NewRequest(http.MethodPut, "/book/"+testBookID, nil),
			true,
		},
		{
			"delete book endpoint",
			httptest.NewRequest(http.MethodDelete, "/book/"+testBookID, nil),
			true,
		},
		{
			"plural books endpoint",
			httptest.NewRequest(http.MethodGet, "/books", nil),
			false,
		},
		{
			"versioned books endpoint",
			httptest.NewRequest(http.MethodGet, "/v1/books", nil),
			false,
		},
	}

	mockRepo := &MockBookStorage{
		AddFunc: func(ctx context.Context, id string, book Book) error {
			return nil
		},
		GetOneFunc: func(ctx context.Context, id string) (Book, error) {
			return Book{}, nil
		},
		DeleteFunc: func(ctx context.Context, id string) error {
			return nil
		},
		UpdateFunc: func(ctx context.Context, id string, book Book) (Book, error) {
			return Book{}, nil
		},
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{}, nil
		},
	}

	api := newTestBookAPI(mockRepo, NewMockUIDHandler(testBookID, true))
	router := httprouter.New()
	api.SetupBookRoutes(router, newNoopMiddlewareMap())

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupOpsRoutes ensures all expected operations endpoints are implemented.
func TestSetupOpsRoutes(t *testing.T) {
	testCases := []struct {
		name        string
		profiler    bool
		request     *http.Request
		implemented bool
	}{
		{"fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"fetch stats endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/stats", nil), true},
		{"maintenance mode endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/maintenance", nil), true},
		{"invalid ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops", nil), false},
		{"unknown ops endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/unknown", nil), false},
		{"disabled profiler endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"enabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			api := newTestOpsAPI(&Config{ProfilerEndpointsEnable: tc.profiler})
			router := httprouter.New()
			api.SetupOpsRoutes(router, newNoopMiddlewareMap())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes ensures ops endpoints are only exposed when enabled.
func TestSetupRoutes(t *testing.T) {
	testCases := []struct {
		name               string
		OpsEndpointsEnable bool
		request            *http.Request
		implemented        bool
	}{
		{"ops disable:fetch configs endpoint", false, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), false},
		{"ops enable:fetch configs endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/configs", nil), true},
		{"ops enable:disabled profiler endpoint", true, httptest.NewRequest(http.MethodGet, "/ops/debug/pprof/", nil), false},
		{"ops disable:fetch books endpoint", false, httptest.NewRequest(http.MethodGet, "/book", nil), true},
		{"swagger endpoint", false, httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil), true},
		{"invalid book endpoint", false, httptest.NewRequest(http.MethodGet, "/books/", nil), false},
	}

	mockRepo := &MockBookStorage{
		GetAllFunc: func(ctx context.Context) ([]Book, error) {
			return []Book{}, nil
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			config := &Config{OpsEndpointsEnable: tc.OpsEndpointsEnable}
			bs := NewBookService(zap.NewNop(), config, NewIDsHandler(), mockRepo, nil)
			api := NewAPIHandler(zap.NewNop(), config, &Statistics{started: NewMockClocker().Now()}, NewMockClocker(), NewMockUIDHandler("abc", true), bs)
			router := httprouter.New()
			api.SetupRoutes(router, newNoopMiddlewareMap())
			w := httptest.NewRecorder()
			router.ServeHTTP(w, tc.request)
			if tc.implemented {
				assert.NotEqual(t, 404, w.Code)
			} else {
				assert.Equal(t, 404, w.Code)
			}
		})
	}
}

// TestSetupRoutes_NotFound ensures exact status code and json response body when a user requests an inexistant route.
func TestSetupRoutes_NotFound(t *testing.T) {
	api := newTestOpsAPI(&Config{})
	router := httprouter.New()
	api.SetupRoutes(router, newNoopMiddlewareMap())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/books/", nil))

	status, body := readJSONResponse(t, w)
	assert.Equal(t, http.StatusNotFound, status)
	expected := `{"requestid":"r:abc", "message":"route does not exist", "path":"GET /x/books/"}`
	assert.JSONEq(t, expected, body)
}
