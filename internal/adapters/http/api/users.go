package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/heartfuse/internal/domain/model"
)

// UsersHandler handles identity requests.
type UsersHandler struct {
	deps Dependencies
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(deps Dependencies) *UsersHandler {
	return &UsersHandler{deps: deps}
}

type userRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// HandlePutUser handles PUT /users/{userID} requests.
func (h *UsersHandler) HandlePutUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.put_user"
	var req userRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), nil)
		return
	}
	u := model.User{
		ID:       chi.URLParam(r, "userID"),
		Email:    strings.TrimSpace(req.Email),
		FullName: strings.TrimSpace(req.FullName),
	}
	if err := h.deps.PutUser(r.Context(), u); err != nil {
		writeFailure(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{ID: u.ID, Email: u.Email, FullName: u.FullName})
}
