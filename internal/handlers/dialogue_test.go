package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
	"github.com/jwebster45206/dialogue-engine/pkg/check"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
	"github.com/jwebster45206/dialogue-engine/pkg/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelError, // Reduce noise in tests
	}))
}

func newTestDialogueHandler(t *testing.T) *DialogueHandler {
	t.Helper()
	logger := testLogger()

	scripts := dialogue.NewRegistry()
	scripts.Register(&dialogue.Script{
		ID:    "tavern",
		Title: "Tavern",
		Nodes: map[string]dialogue.Node{
			"A": {
				Lines: []string{"The barkeep eyes you. 【Ask about the cellar】"},
				Links: map[string]string{"Ask about the cellar": "B"},
			},
			"B": {
				Lines:       []string{"He shrugs and looks away."},
				NextOnClick: dialogue.EndTarget,
			},
		},
	})

	registry := character.NewRegistry()
	stats := character.NewStore(registry)
	engine := check.NewEngine(nil, logger)
	store := storage.NewMockStorage()

	rt := dialogue.NewRuntime(scripts, stats, engine, store, logger)
	return NewDialogueHandler(logger, rt, nil)
}

func postJSON(t *testing.T, handler http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestDialogueHandler_StartAndView(t *testing.T) {
	handler := newTestDialogueHandler(t)

	rr := postJSON(t, handler, "/v1/dialogue/start", `{"script":"tavern","node":"A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusCreated, rr.Code, rr.Body.String())
	}

	var view DialogueView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !view.Active {
		t.Error("Expected active session after start")
	}
	if view.DialogueID != "tavern" || view.NodeID != "A" {
		t.Errorf("Expected session at tavern/A, got %s/%s", view.DialogueID, view.NodeID)
	}
	if len(view.Links) != 1 || view.Links[0] != "Ask about the cellar" {
		t.Errorf("Expected one link, got %v", view.Links)
	}

	// GET view returns the same state
	req := httptest.NewRequest(http.MethodGet, "/v1/dialogue", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !view.Active || view.NodeID != "A" {
		t.Errorf("Expected view at node A, got active=%v node=%s", view.Active, view.NodeID)
	}
}

func TestDialogueHandler_StartValidation(t *testing.T) {
	handler := newTestDialogueHandler(t)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
	}{
		{"invalid JSON", "{not json", http.StatusBadRequest},
		{"missing script", `{"node":"A"}`, http.StatusBadRequest},
		{"missing node", `{"script":"tavern"}`, http.StatusBadRequest},
		{"unknown script", `{"script":"nope","node":"A"}`, http.StatusNotFound},
		{"unknown node", `{"script":"tavern","node":"Z"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postJSON(t, handler, "/v1/dialogue/start", tt.body)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}

			var response ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if response.Error == "" {
				t.Error("Expected non-empty error message")
			}
		})
	}
}

func TestDialogueHandler_LinkAndClick(t *testing.T) {
	handler := newTestDialogueHandler(t)

	rr := postJSON(t, handler, "/v1/dialogue/start", `{"script":"tavern","node":"A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Failed to start dialogue: %d", rr.Code)
	}

	// Unknown link text is unconsumed
	rr = postJSON(t, handler, "/v1/dialogue/link", `{"text":"no such link"}`)
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d for unknown link, got %d", http.StatusConflict, rr.Code)
	}

	rr = postJSON(t, handler, "/v1/dialogue/link", `{"text":"Ask about the cellar"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var view DialogueView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.NodeID != "B" {
		t.Errorf("Expected node B after link click, got %s", view.NodeID)
	}

	// B advances on click straight to the end of the dialogue
	rr = postJSON(t, handler, "/v1/dialogue/click", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Active {
		t.Error("Expected inactive session after terminal click")
	}

	// Further clicks are unconsumed
	rr = postJSON(t, handler, "/v1/dialogue/click", "")
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected status %d for click while idle, got %d", http.StatusConflict, rr.Code)
	}
}

func TestDialogueHandler_End(t *testing.T) {
	handler := newTestDialogueHandler(t)

	rr := postJSON(t, handler, "/v1/dialogue/start", `{"script":"tavern","node":"A"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("Failed to start dialogue: %d", rr.Code)
	}

	rr = postJSON(t, handler, "/v1/dialogue/end", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var view DialogueView
	if err := json.NewDecoder(rr.Body).Decode(&view); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if view.Active {
		t.Error("Expected inactive session after end")
	}
}

func TestDialogueHandler_MethodNotAllowed(t *testing.T) {
	handler := newTestDialogueHandler(t)

	req := httptest.NewRequest(http.MethodDelete, "/v1/dialogue", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, rr.Code)
	}

	rr = postJSON(t, handler, "/v1/dialogue/bogus", "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status %d for unknown action, got %d", http.StatusNotFound, rr.Code)
	}
}
