package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/jwebster45206/dialogue-engine/internal/services/events"
	"github.com/jwebster45206/dialogue-engine/pkg/dialogue"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// DialogueHandler exposes the dialogue runtime over HTTP. The runtime
// holds the single live session; this handler is a thin translation
// layer over its operations.
type DialogueHandler struct {
	runtime *dialogue.Runtime
	events  *events.Broadcaster
	logger  *slog.Logger
}

func NewDialogueHandler(logger *slog.Logger, runtime *dialogue.Runtime, broadcaster *events.Broadcaster) *DialogueHandler {
	return &DialogueHandler{
		runtime: runtime,
		events:  broadcaster,
		logger:  logger,
	}
}

// StartDialogueRequest defines the request body for starting a dialogue
type StartDialogueRequest struct {
	Script string `json:"script"` // Required: dialogue script ID
	Node   string `json:"node"`   // Required: entry node ID
}

// LinkClickRequest defines the request body for clicking a link span
type LinkClickRequest struct {
	Text string `json:"text"`
}

// DialogueView is the read model for the current session.
type DialogueView struct {
	Active      bool     `json:"active"`
	DialogueID  string   `json:"dialogue_id,omitempty"`
	NodeID      string   `json:"node_id,omitempty"`
	Title       string   `json:"title,omitempty"`
	SpeakerUID  string   `json:"speaker_uid,omitempty"`
	Lines       []string `json:"lines,omitempty"`
	Links       []string `json:"links,omitempty"`
	InputLocked bool     `json:"input_locked"`
	OverlayMode string   `json:"overlay_mode,omitempty"`
}

// ServeHTTP handles HTTP requests for dialogue session operations
// Routes:
// GET  /v1/dialogue        - Read the current session view
// POST /v1/dialogue/start  - Start a dialogue from a registered script
// POST /v1/dialogue/link   - Click a link span in the current node
// POST /v1/dialogue/click  - Advance the current node (message click)
// POST /v1/dialogue/end    - End the current dialogue
func (h *DialogueHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/dialogue"), "/")

	if r.Method == http.MethodGet && action == "" {
		h.handleView(w)
		return
	}

	if r.Method != http.MethodPost {
		h.logger.Warn("Method not allowed for dialogue endpoint", "method", r.Method, "action", action)
		w.WriteHeader(http.StatusMethodNotAllowed)
		response := ErrorResponse{
			Error: "Method not allowed. Use GET /v1/dialogue or POST /v1/dialogue/{start|link|click|end}",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	switch action {
	case "start":
		h.handleStart(w, r)
	case "link":
		h.handleLink(w, r)
	case "click":
		h.handleClick(w, r)
	case "end":
		h.handleEnd(w, r)
	default:
		h.logger.Warn("Unknown dialogue action", "action", action)
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Unknown dialogue action: " + action,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
	}
}

func (h *DialogueHandler) handleView(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.view()); err != nil {
		h.logger.Error("Failed to encode dialogue view", "error", err)
	}
}

func (h *DialogueHandler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req StartDialogueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	if req.Script == "" || req.Node == "" {
		h.logger.Warn("Missing required field", "script", req.Script, "node", req.Node)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "script and node fields are required",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.runtime.Start(r.Context(), req.Script, req.Node)

	sess := h.runtime.Session()
	if _, _, ok := h.runtime.Current(); !ok && sess.Active {
		// The script or node did not resolve; drop the dangling session.
		h.runtime.End(r.Context())
		h.logger.Warn("Failed to start dialogue", "script", req.Script, "node", req.Node)
		w.WriteHeader(http.StatusNotFound)
		response := ErrorResponse{
			Error: "Dialogue script or node not found: " + req.Script,
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}
	sess = h.runtime.Session()

	if h.events != nil {
		if err := h.events.PublishDialogueStarted(r.Context(), sess.DialogueID, sess.NodeID); err != nil {
			h.logger.Warn("Failed to publish dialogue started event", "error", err)
		}
	}

	h.logger.Debug("Dialogue started", "dialogue_id", sess.DialogueID, "node_id", sess.NodeID)
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(h.view()); err != nil {
		h.logger.Error("Failed to encode dialogue view", "error", err)
	}
}

func (h *DialogueHandler) handleLink(w http.ResponseWriter, r *http.Request) {
	var req LinkClickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		response := ErrorResponse{
			Error: "Invalid JSON in request body",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	before := h.runtime.Session()
	if !h.runtime.HandleLinkClick(r.Context(), req.Text) {
		w.WriteHeader(http.StatusConflict)
		response := ErrorResponse{
			Error: "Link not handled: no active dialogue or unknown link text",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.publishTransition(r, before.DialogueID)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.view()); err != nil {
		h.logger.Error("Failed to encode dialogue view", "error", err)
	}
}

func (h *DialogueHandler) handleClick(w http.ResponseWriter, r *http.Request) {
	before := h.runtime.Session()
	if !h.runtime.HandleMessageClick(r.Context()) {
		w.WriteHeader(http.StatusConflict)
		response := ErrorResponse{
			Error: "Click not handled: no active dialogue or node has no advance target",
		}
		if err := json.NewEncoder(w).Encode(response); err != nil {
			h.logger.Error("Failed to encode error response", "error", err)
		}
		return
	}

	h.publishTransition(r, before.DialogueID)
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.view()); err != nil {
		h.logger.Error("Failed to encode dialogue view", "error", err)
	}
}

func (h *DialogueHandler) handleEnd(w http.ResponseWriter, r *http.Request) {
	sess := h.runtime.Session()
	h.runtime.End(r.Context())

	if h.events != nil && sess.Active {
		if err := h.events.PublishDialogueEnded(r.Context(), sess.DialogueID); err != nil {
			h.logger.Warn("Failed to publish dialogue ended event", "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(h.view()); err != nil {
		h.logger.Error("Failed to encode dialogue view", "error", err)
	}
}

// publishTransition emits node_entered or ended depending on where the
// session landed after a click.
func (h *DialogueHandler) publishTransition(r *http.Request, dialogueID string) {
	if h.events == nil {
		return
	}
	sess := h.runtime.Session()
	if sess.Active {
		if err := h.events.PublishNodeEntered(r.Context(), sess.DialogueID, sess.NodeID); err != nil {
			h.logger.Warn("Failed to publish node entered event", "error", err)
		}
		return
	}
	if err := h.events.PublishDialogueEnded(r.Context(), dialogueID); err != nil {
		h.logger.Warn("Failed to publish dialogue ended event", "error", err)
	}
}

func (h *DialogueHandler) view() DialogueView {
	sess := h.runtime.Session()
	world := h.runtime.World()

	view := DialogueView{
		Active:      sess.Active,
		DialogueID:  sess.DialogueID,
		NodeID:      sess.NodeID,
		InputLocked: world.InputLocked,
		OverlayMode: world.OverlayMode,
	}

	script, node, ok := h.runtime.Current()
	if !ok {
		return view
	}

	view.Title = node.Title
	view.SpeakerUID = script.SpeakerFor(node)
	view.Lines = node.Lines

	for text := range node.Links {
		view.Links = append(view.Links, text)
	}
	sort.Strings(view.Links)
	return view
}
