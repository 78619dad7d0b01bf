package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/service"
	"github.com/alexivanou/sportslocations/internal/upstream"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockService is a mock implementation of ServiceInterface
type MockService struct {
	mock.Mock
}

func (m *MockService) SearchLocations(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SearchResponse), args.Error(1)
}

func (m *MockService) GetLayout(ctx context.Context, id string) (*model.Layout, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Layout), args.Error(1)
}

func (m *MockService) SaveLayout(ctx context.Context, layout *model.Layout) (*model.Layout, error) {
	args := m.Called(ctx, layout)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Layout), args.Error(1)
}

func (m *MockService) DeleteLayout(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockService) GetLayoutOutput(ctx context.Context, id string) (*model.LayoutOutput, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.LayoutOutput), args.Error(1)
}

func TestHandler_SearchLocations(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		mockSetup      func(*MockService)
		expectedStatus int
	}{
		{
			name:  "successful request",
			query: "search=arena&page=2&language=en&title=Halls",
			mockSetup: func(ms *MockService) {
				ms.On("SearchLocations", mock.Anything, mock.MatchedBy(func(q model.QueryParams) bool {
					return q.Search == "arena" && q.Page == 2 &&
						q.Filters["language"] == "en" && q.Filters["title"] == "Halls" && len(q.Filters) == 2
				})).Return(&model.SearchResponse{
					Results: []model.ResultNode{{Text: "Results", Children: []model.ResultNode{{ID: 10, Text: "Arena A (id: 10)"}}}},
					Count:   1,
					Limit:   100,
				}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:  "empty search browses all",
			query: "",
			mockSetup: func(ms *MockService) {
				ms.On("SearchLocations", mock.Anything, model.QueryParams{Page: 1}).
					Return(&model.SearchResponse{Results: []model.ResultNode{}, Limit: 100}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid page",
			query:          "search=arena&page=zero",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:  "upstream unavailable",
			query: "search=arena",
			mockSetup: func(ms *MockService) {
				ms.On("SearchLocations", mock.Anything, mock.Anything).
					Return(nil, fmt.Errorf("%w: status=503", upstream.ErrUnavailable))
			},
			expectedStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}

			handler := NewHandler(mockService, nil)

			req := httptest.NewRequest("GET", "/api/v1/locations/search?"+tt.query, nil)
			rr := httptest.NewRecorder()
			handler.SearchLocations(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestHandler_SearchLocationsEnvelope(t *testing.T) {
	mockService := new(MockService)
	mockService.On("SearchLocations", mock.Anything, mock.Anything).Return(&model.SearchResponse{
		Results: []model.ResultNode{{Text: "Results", Children: []model.ResultNode{{ID: 10, Text: "Arena A (id: 10)"}}}},
		Count:   1,
		Limit:   100,
	}, nil)

	rr := httptest.NewRecorder()
	NewHandler(mockService, nil).SearchLocations(rr, httptest.NewRequest("GET", "/api/v1/locations/search?search=arena", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t,
		`{"results":[{"text":"Results","children":[{"id":10,"text":"Arena A (id: 10)"}]}],"count":1,"limit":100,"more":false}`,
		rr.Body.String())
}

func TestHandler_Layouts(t *testing.T) {
	tests := []struct {
		name           string
		method         string
		body           string
		mockSetup      func(*MockService)
		call           func(*Handler, http.ResponseWriter, *http.Request)
		expectedStatus int
	}{
		{
			name:   "get",
			method: "GET",
			mockSetup: func(ms *MockService) {
				ms.On("GetLayout", mock.Anything, "page-1").Return(&model.Layout{ID: "page-1"}, nil)
			},
			call:           (*Handler).GetLayout,
			expectedStatus: http.StatusOK,
		},
		{
			name:   "get missing",
			method: "GET",
			mockSetup: func(ms *MockService) {
				ms.On("GetLayout", mock.Anything, "page-1").Return(nil, service.ErrLayoutNotFound)
			},
			call:           (*Handler).GetLayout,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "save takes id from path",
			method: "PUT",
			body:   `{"id":"other","module":"locations_selected","selected_locations":{"11":"B","10":"A"}}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveLayout", mock.Anything, mock.MatchedBy(func(l *model.Layout) bool {
					return l.ID == "page-1" && len(l.Selected) == 2 && l.Selected[0].ID == 11
				})).Return(&model.Layout{ID: "page-1"}, nil)
			},
			call:           (*Handler).SaveLayout,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "save invalid body",
			method:         "PUT",
			body:           `{`,
			call:           (*Handler).SaveLayout,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "save over limit",
			method: "PUT",
			body:   `{"module":"locations_selected"}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveLayout", mock.Anything, mock.Anything).Return(nil, service.ErrSelectionLimitExceeded)
			},
			call:           (*Handler).SaveLayout,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:   "save invalid module",
			method: "PUT",
			body:   `{"module":"events"}`,
			mockSetup: func(ms *MockService) {
				ms.On("SaveLayout", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidModule)
			},
			call:           (*Handler).SaveLayout,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "delete",
			method: "DELETE",
			mockSetup: func(ms *MockService) {
				ms.On("DeleteLayout", mock.Anything, "page-1").Return(nil)
			},
			call:           (*Handler).DeleteLayout,
			expectedStatus: http.StatusNoContent,
		},
		{
			name:   "output",
			method: "GET",
			mockSetup: func(ms *MockService) {
				ms.On("GetLayoutOutput", mock.Anything, "page-1").Return(&model.LayoutOutput{Locations: []int{}}, nil)
			},
			call:           (*Handler).GetLayoutOutput,
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			if tt.mockSetup != nil {
				tt.mockSetup(mockService)
			}
			handler := NewHandler(mockService, nil)

			req := httptest.NewRequest(tt.method, "/api/v1/layouts/page-1", strings.NewReader(tt.body))
			req = mux.SetURLVars(req, map[string]string{"id": "page-1"})
			rr := httptest.NewRecorder()
			tt.call(handler, rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			mockService.AssertExpectations(t)
		})
	}
}

func TestRouter_MiddlewareAndRateLimit(t *testing.T) {
	mockService := new(MockService)
	mockService.On("GetLayoutOutput", mock.Anything, "page-1").Return(&model.LayoutOutput{Locations: []int{1}}, nil)

	limiter := NewIPRateLimiter(config.ServerConfig{RateLimitRPS: 1, RateLimitBurst: 1}, nil)
	router := NewRouter(mockService, nil, limiter, nil)

	req := httptest.NewRequest("GET", "/api/v1/layouts/page-1/output", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "req-1", rr.Header().Get(RequestIDHeader))

	var out model.LayoutOutput
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, []int{1}, out.Locations)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/api/v1/layouts/page-1/output", nil))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	// health is outside the limited subrouter
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sportslocations_http_requests_total")
}
