package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/okian/heartfuse/internal/adapters/report"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/types"
)

// noSubmissionsMessage is returned in place of a fused report.
const noSubmissionsMessage = "No submissions found. Upload tests to generate a report."

// ReportsHandler serves fused and per-submission reports.
type ReportsHandler struct {
	deps Dependencies
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(deps Dependencies) *ReportsHandler {
	return &ReportsHandler{deps: deps}
}

type mailResponse struct {
	Status   string          `json:"status"`
	Document *types.Document `json:"document"`
}

// HandleFusionReport handles GET /users/{userID}/fusion/report requests.
func (h *ReportsHandler) HandleFusionReport(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	rep, err := h.deps.FusionReport(r.Context(), userID)
	if errors.Is(err, service.ErrNoSubmissions) {
		writeJSON(w, http.StatusOK, types.FusionReport{
			UserID:     userID,
			Modalities: []types.ModalityEntry{},
			Error:      noSubmissionsMessage,
		})
		return
	}
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, toFusionReport(rep))
}

// HandleFusionPDF handles GET /users/{userID}/fusion/report/pdf requests.
func (h *ReportsHandler) HandleFusionPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.FusionDocument(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	writePDF(w, doc)
}

// HandleFusionEmail handles POST /users/{userID}/fusion/report/email requests.
func (h *ReportsHandler) HandleFusionEmail(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.EmailFusionReport(r.Context(), chi.URLParam(r, "userID"))
	writeMailResult(w, doc, err)
}

// HandleSubmissionPDF handles GET /users/{userID}/submissions/{submissionID}/report requests.
func (h *ReportsHandler) HandleSubmissionPDF(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.SubmissionDocument(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "submissionID"))
	if err != nil {
		writeFailure(w, err, nil)
		return
	}
	writePDF(w, doc)
}

// HandleSubmissionEmail handles POST /users/{userID}/submissions/{submissionID}/report/email requests.
func (h *ReportsHandler) HandleSubmissionEmail(w http.ResponseWriter, r *http.Request) {
	doc, err := h.deps.EmailSubmissionReport(r.Context(), chi.URLParam(r, "userID"), chi.URLParam(r, "submissionID"))
	writeMailResult(w, doc, err)
}

func writeMailResult(w http.ResponseWriter, doc report.Document, err error) {
	if err != nil {
		writeFailure(w, err, toDocument(doc))
		return
	}
	writeJSON(w, http.StatusOK, mailResponse{Status: "sent", Document: toDocument(doc)})
}

func writePDF(w http.ResponseWriter, doc report.Document) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	w.Header().Set("Content-Length", strconv.Itoa(len(doc.Bytes)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc.Bytes)
}
