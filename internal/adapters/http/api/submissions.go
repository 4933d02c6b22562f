package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/heartfuse/internal/domain/types"
)

// SubmissionsHandler handles submission uploads and listings.
type SubmissionsHandler struct {
	deps Dependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps Dependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

type submissionAck struct {
	Duplicate  bool             `json:"duplicate"`
	Submission types.Submission `json:"submission"`
}

// HandlePostSubmission handles POST /users/{userID}/submissions requests.
// A retried submission_id answers 200 with the stored record.
func (h *SubmissionsHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	var req types.SubmissionRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err), nil)
		return
	}
	rec := fromSubmissionRequest(chi.URLParam(r, "userID"), req)
	stored, dup, err := h.deps.AddSubmission(r.Context(), req.SubmissionID, rec)
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	status := http.StatusCreated
	if dup {
		status = http.StatusOK
	}
	writeJSON(w, status, submissionAck{Duplicate: dup, Submission: toSubmission(stored)})
}

// HandleListSubmissions handles GET /users/{userID}/submissions requests.
func (h *SubmissionsHandler) HandleListSubmissions(w http.ResponseWriter, r *http.Request) {
	recs, err := h.deps.Submissions(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	out := make([]types.Submission, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toSubmission(rec))
	}
	writeJSON(w, http.StatusOK, out)
}
