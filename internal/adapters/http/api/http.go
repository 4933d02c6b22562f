// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/okian/heartfuse/internal/adapters/mail"
	"github.com/okian/heartfuse/internal/adapters/report"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/types"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	PutUser(ctx context.Context, u model.User) error
	AddSubmission(ctx context.Context, clientID string, r model.PredictionRecord) (model.PredictionRecord, bool, error)
	Submissions(ctx context.Context, userID string) ([]model.PredictionRecord, error)

	FusionReport(ctx context.Context, userID string) (service.Report, error)
	FusionDocument(ctx context.Context, userID string) (report.Document, error)
	EmailFusionReport(ctx context.Context, userID string) (report.Document, error)

	SubmissionDocument(ctx context.Context, userID, submissionID string) (report.Document, error)
	EmailSubmissionReport(ctx context.Context, userID, submissionID string) (report.Document, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	usersHandler      *UsersHandler
	submissionHandler *SubmissionsHandler
	reportsHandler    *ReportsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(statsProvider),
		usersHandler:      NewUsersHandler(deps),
		submissionHandler: NewSubmissionsHandler(deps),
		reportsHandler:    NewReportsHandler(deps),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(RequestID)

		r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
		r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Put("/", MetricsMiddleware(s.usersHandler.HandlePutUser, "users"))

			r.Post("/submissions", MetricsMiddleware(s.submissionHandler.HandlePostSubmission, "submissions"))
			r.Get("/submissions", MetricsMiddleware(s.submissionHandler.HandleListSubmissions, "submissions"))

			r.Get("/fusion/report", MetricsMiddleware(s.reportsHandler.HandleFusionReport, "fusion_report"))
			r.Get("/fusion/report/pdf", MetricsMiddleware(s.reportsHandler.HandleFusionPDF, "fusion_report_pdf"))
			r.Post("/fusion/report/email", MetricsMiddleware(s.reportsHandler.HandleFusionEmail, "fusion_report_email"))

			r.Get("/submissions/{submissionID}/report", MetricsMiddleware(s.reportsHandler.HandleSubmissionPDF, "submission_report"))
			r.Post("/submissions/{submissionID}/report/email", MetricsMiddleware(s.reportsHandler.HandleSubmissionEmail, "submission_report_email"))
		})
	})
}

type errorResponse struct {
	Code     string          `json:"code"`
	Message  string          `json:"message"`
	Document *types.Document `json:"document,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeFailure maps err to a status and writes it. doc, when set, names the
// document archived before the failure. Unclassified errors are reported
// by status text only.
func writeFailure(w http.ResponseWriter, err error, doc *types.Document) {
	status, code := classify(err)
	msg := err.Error()
	if code == codeInternal {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg, Document: doc})
}

const codeInternal = "internal_error"

// classify maps error kinds to HTTP status codes.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidSubmission):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrNoSubmissions):
		return http.StatusNotFound, "no_submissions"
	case errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrDuplicateSubmission):
		return http.StatusConflict, "duplicate_submission"
	case errors.Is(err, mail.ErrNoRecipient):
		return http.StatusUnprocessableEntity, "no_recipient"
	case errors.Is(err, mail.ErrMailNotConfigured):
		return http.StatusServiceUnavailable, "mail_not_configured"
	case errors.Is(err, mail.ErrMailTransport):
		return http.StatusBadGateway, "mail_transport_failed"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "not_started"
	case errors.Is(err, report.ErrRender):
		return http.StatusInternalServerError, "render_failed"
	case errors.Is(err, report.ErrArchive):
		return http.StatusInternalServerError, "archive_failed"
	default:
		return http.StatusInternalServerError, codeInternal
	}
}
