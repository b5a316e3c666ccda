package handlers

import (
	"net/http"

	"github.com/benvon/study-planner/internal/services/ai"
	"github.com/gorilla/mux"
)

// AssistantHandler handles AI assistant requests
type AssistantHandler struct {
	assistant *ai.AssistantService
}

// NewAssistantHandler creates a new assistant handler
func NewAssistantHandler(assistant *ai.AssistantService) *AssistantHandler {
	return &AssistantHandler{assistant: assistant}
}

// RegisterRoutes registers assistant routes on a router already prefixed with /assistant
func (h *AssistantHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/chat", h.SendMessage).Methods("POST")
	r.HandleFunc("/chat", h.ResetChat).Methods("DELETE")
	r.HandleFunc("/suggestions", h.SuggestTodos).Methods("POST")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// SuggestTodosRequest asks for todos toward a goal
type SuggestTodosRequest struct {
	Goal  string `json:"goal" validate:"required,max=1000"`
	Count int    `json:"count,omitempty" validate:"omitempty,min=1,max=10"`
}

// SendMessage answers one chat message. Provider outages degrade to a fallback answer, never an error.
func (h *AssistantHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req ChatMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.assistant.Chat(r.Context(), user.ID, req.Message)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, reply)
}

// ResetChat forgets the user's conversation
func (h *AssistantHandler) ResetChat(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	h.assistant.ResetChat(user.ID)
	w.WriteHeader(http.StatusNoContent)
}

// SuggestTodos proposes todos for a goal
func (h *AssistantHandler) SuggestTodos(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req SuggestTodosRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.assistant.SuggestTodos(r.Context(), user.ID, req.Goal, req.Count)
	if err != nil {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, result)
}
