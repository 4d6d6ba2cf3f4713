package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
)

func newTestCharacterHandler() *CharacterHandler {
	registry := character.NewRegistry()
	registry.Register(character.Profile{
		UID:        "A1",
		Code:       "priest",
		PublicName: "Father Simon",
		Stats:      character.StatsPatch{"maxHp": 54, "hp": 54, "hit": 0.9},
	})
	return NewCharacterHandler(testLogger(), registry, character.NewStore(registry))
}

func TestCharacterHandler_List(t *testing.T) {
	handler := newTestCharacterHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/characters", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var profiles []character.Profile
	if err := json.NewDecoder(rr.Body).Decode(&profiles); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	// Protagonist placeholder plus the registered priest
	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}
	uids := map[string]bool{}
	for _, p := range profiles {
		uids[p.UID] = true
	}
	if !uids[character.ProtagonistUID] || !uids["A1"] {
		t.Errorf("Expected protagonist and A1 in list, got %v", uids)
	}
}

func TestCharacterHandler_GetStats(t *testing.T) {
	handler := newTestCharacterHandler()

	req := httptest.NewRequest(http.MethodGet, "/v1/characters/A1/stats", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var response CharacterStatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.UID != "A1" {
		t.Errorf("Expected uid A1, got %s", response.UID)
	}
	// Seeded from the profile template; untouched fields stay sentinel
	if response.Stats.MaxHP != 54 || response.Stats.HP != 54 {
		t.Errorf("Expected HP 54/54 from profile seed, got %d/%d", response.Stats.HP, response.Stats.MaxHP)
	}
	if response.Stats.MaxMP != character.UnknownStat {
		t.Errorf("Expected sentinel maxMp, got %d", response.Stats.MaxMP)
	}
}

func TestCharacterHandler_PatchStats(t *testing.T) {
	handler := newTestCharacterHandler()

	body := `{"hp": 12, "def": 0.4, "eva": "bogus"}`
	req := httptest.NewRequest(http.MethodPatch, "/v1/characters/A1/stats", strings.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var response CharacterStatsResponse
	if err := json.NewDecoder(rr.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Stats.HP != 12 {
		t.Errorf("Expected hp 12 after patch, got %d", response.Stats.HP)
	}
	if response.Stats.MaxHP != 54 {
		t.Errorf("Expected maxHp untouched at 54, got %d", response.Stats.MaxHP)
	}
	if response.Stats.Def != 0.4 {
		t.Errorf("Expected def 0.4 after patch, got %v", response.Stats.Def)
	}
	// Unconvertible values keep the previous value
	if response.Stats.Eva != character.UnknownStat {
		t.Errorf("Expected eva to stay sentinel, got %v", response.Stats.Eva)
	}
}

func TestCharacterHandler_Errors(t *testing.T) {
	handler := newTestCharacterHandler()

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
	}{
		{"unknown uid", http.MethodGet, "/v1/characters/ZZ/stats", "", http.StatusNotFound},
		{"unknown resource", http.MethodGet, "/v1/characters/A1/inventory", "", http.StatusNotFound},
		{"bad patch body", http.MethodPatch, "/v1/characters/A1/stats", "{oops", http.StatusBadRequest},
		{"post not allowed", http.MethodPost, "/v1/characters/A1/stats", "{}", http.StatusMethodNotAllowed},
		{"delete list not allowed", http.MethodDelete, "/v1/characters", "", http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d: %s", tt.expectedStatus, rr.Code, rr.Body.String())
			}
		})
	}
}
