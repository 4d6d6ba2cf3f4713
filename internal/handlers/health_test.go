package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func TestHealthHandler_ServeHTTP(t *testing.T) {
	logger := testLogger()

	tests := []struct {
		name            string
		setupStorage    func() *storage.MockStorage
		expectedStatus  int
		expectedHealth  string
		expectedStorage string
	}{
		{
			name: "healthy",
			setupStorage: func() *storage.MockStorage {
				return storage.NewMockStorage()
			},
			expectedStatus:  http.StatusOK,
			expectedHealth:  "healthy",
			expectedStorage: "healthy",
		},
		{
			name: "unhealthy storage",
			setupStorage: func() *storage.MockStorage {
				mock := storage.NewMockStorage()
				mock.SetPingError(errors.New("connection failed"))
				return mock
			},
			expectedStatus:  http.StatusServiceUnavailable,
			expectedHealth:  "degraded",
			expectedStorage: "unhealthy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewHealthHandler(tt.setupStorage(), logger)

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
			if rr.Header().Get("Content-Type") != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", rr.Header().Get("Content-Type"))
			}

			var response HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}

			if response.Status != tt.expectedHealth {
				t.Errorf("Expected status '%s', got '%s'", tt.expectedHealth, response.Status)
			}
			if response.Service != "dialogue-engine" {
				t.Errorf("Expected service 'dialogue-engine', got '%s'", response.Service)
			}
			if response.Components["storage"] != tt.expectedStorage {
				t.Errorf("Expected storage status '%s', got '%s'", tt.expectedStorage, response.Components["storage"])
			}

			if time.Since(response.Timestamp) > time.Second {
				t.Errorf("Health check timestamp seems old: %v", time.Since(response.Timestamp))
			}
		})
	}
}
