package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/character"
)

// CharacterHandler serves character profiles and their live stat
// blocks.
type CharacterHandler struct {
	registry *character.Registry
	stats    *character.Store
	logger   *slog.Logger
}

func NewCharacterHandler(logger *slog.Logger, registry *character.Registry, stats *character.Store) *CharacterHandler {
	return &CharacterHandler{
		registry: registry,
		stats:    stats,
		logger:   logger,
	}
}

// CharacterStatsResponse pairs a UID with its resolved stat block.
type CharacterStatsResponse struct {
	UID   string          `json:"uid"`
	Stats character.Stats `json:"stats"`
}

// ServeHTTP handles HTTP requests for character operations
// Routes:
// GET   /v1/characters             - List registered character profiles
// GET   /v1/characters/{uid}/stats - Read a character's stat block
// PATCH /v1/characters/{uid}/stats - Patch a character's stat block
func (h *CharacterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/characters"), "/")

	if path == "" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			response := ErrorResponse{
				Error: "Method not allowed. Supported methods: GET",
			}
			if err := json.NewEncoder(w).Encode(response); err != nil {
				h.logger.Error("Failed to encode error response", "error", err)
			}
			return
		}
		h.handleList(w)
		return
	}

	parts := strings.Split(path, "/")
	if len(parts) != 2 || parts[1] != "stats" {
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Unknown character resource. Use /v1/characters/{uid}/stats",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	uid := parts[0]

	if !h.registry.Has(uid) {
		h.logger.Warn("Character not found", "uid", uid)
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Character not found: " + uid,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	switch r.Method {
	case http.MethodGet:
		h.handleGetStats(w, uid)
	case http.MethodPatch:
		h.handlePatchStats(w, r, uid)
	default:
		h.logger.Warn("Method not allowed for character stats", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Supported methods: GET, PATCH",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
	}
}

func (h *CharacterHandler) handleList(w http.ResponseWriter) {
	uids := h.registry.UIDs()
	profiles := make([]character.Profile, 0, len(uids))
	for _, uid := range uids {
		if p, ok := h.registry.Get(uid); ok {
			profiles = append(profiles, p)
		}
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(profiles); err != nil {
		h.logger.Error("Failed to encode character list", "error", err)
	}
}

func (h *CharacterHandler) handleGetStats(w http.ResponseWriter, uid string) {
	response := CharacterStatsResponse{
		UID:   uid,
		Stats: h.stats.Get(uid),
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode character stats", "error", err)
	}
}

func (h *CharacterHandler) handlePatchStats(w http.ResponseWriter, r *http.Request, uid string) {
	var patch character.StatsPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.logger.Warn("Invalid JSON in PATCH request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	updated := h.stats.Set(uid, patch)
	h.logger.Debug("Character stats patched", "uid", uid)

	response := CharacterStatsResponse{
		UID:   uid,
		Stats: updated,
	}
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("Failed to encode character stats", "error", err)
	}
}
