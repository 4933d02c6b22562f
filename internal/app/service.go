// Package service orchestrates submissions, fused reports, documents and
// report e-mail for the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/okian/heartfuse/internal/adapters/mail"
	"github.com/okian/heartfuse/internal/adapters/report"
	repository "github.com/okian/heartfuse/internal/adapters/repository"
	"github.com/okian/heartfuse/internal/domain/dedupe"
	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/guidance"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/scoring"
	"github.com/okian/heartfuse/pkg/logger"
	"github.com/okian/heartfuse/pkg/metrics"
)

const tracerName = "github.com/okian/heartfuse/internal/app"

// Document kinds, as recorded in metrics.
const (
	kindFusion     = "fusion"
	kindSubmission = "submission"
)

// Dispatcher sends report e-mail.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg mail.Message) error
	Configured() bool
}

// Report is a fused report with its guidance.
type Report struct {
	UserID   string
	Result   fusion.Result
	Guidance guidance.Bundle
}

// Service implements the API dependencies for the report pipeline. Reports
// are recomputed on every call; only the store and the deduper hold state.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	deduper    dedupe.Deduper
	aggregator *fusion.Aggregator
	renderer   report.Renderer
	archive    *report.Archive
	dispatcher Dispatcher

	// Configuration
	storeBackend  repository.Backend
	storeDSN      string
	dedupeSize    int
	weights       map[string]float64
	defaultWeight float64
	reportsDir    string
	mailConfig    mail.Config
	now           func() time.Time

	// State
	started bool

	logger logger.Logger
	tracer trace.Tracer
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeBackend:  repository.BackendMemory,
		dedupeSize:    50000,
		defaultWeight: fusion.WeightDefault,
		reportsDir:    "reports",
		now:           time.Now,
		tracer:        otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store and archive and wires the pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting report service...")

	if s.store == nil {
		store, err := repository.Open(ctx, s.storeBackend, s.storeDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
	}
	archive, err := report.NewArchive(s.reportsDir)
	if err != nil {
		return fmt.Errorf("open reports directory: %w", err)
	}
	s.archive = archive

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.aggregator = fusion.NewAggregator(
		fusion.WithWeights(s.weights),
		fusion.WithDefaultWeight(s.defaultWeight),
	)
	if s.renderer == nil {
		s.renderer = report.NewPDFRenderer()
	}
	if s.dispatcher == nil {
		s.dispatcher = mail.NewDispatcher(s.mailConfig)
	}
	if !s.dispatcher.Configured() {
		s.logger.Warn(ctx, "mail relay not configured; report e-mail disabled")
	}

	s.started = true
	s.logger.Info(ctx, "report service started",
		logger.String("store", string(s.storeBackend)),
		logger.String("reportsDir", s.reportsDir),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	s.logger.Info(context.Background(), "stopping report service...")
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "store close failed", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "report service stopped")
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// span starts a traced operation. end records err on the span.
func (s *Service) span(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	ctx, sp := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			sp.RecordError(err)
			sp.SetStatus(codes.Error, err.Error())
		}
		sp.End()
	}
}

// PutUser stores the identity reports are addressed to.
func (s *Service) PutUser(ctx context.Context, u model.User) (err error) {
	ctx, end := s.span(ctx, "PutUser", attribute.String("user.id", u.ID))
	defer func() { end(err) }()
	if err := s.ready(); err != nil {
		return err
	}
	return s.store.PutUser(ctx, u)
}

// User returns the stored identity.
func (s *Service) User(ctx context.Context, userID string) (model.User, error) {
	if err := s.ready(); err != nil {
		return model.User{}, err
	}
	u, err := s.store.User(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, fmt.Errorf("%q: %w", userID, ErrUserNotFound)
	}
	return u, err
}

// identity returns the stored user, or one carrying only the ID.
func (s *Service) identity(ctx context.Context, userID string) model.User {
	u, err := s.User(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Warn(ctx, "user lookup failed", logger.String("user", userID), logger.Error(err))
		}
		return model.User{ID: userID}
	}
	return u
}

// AddSubmission stores a scored test. A non-empty clientID makes the upload
// idempotent: it becomes the record ID and a retry returns the stored record
// with duplicate set.
func (s *Service) AddSubmission(ctx context.Context, clientID string, r model.PredictionRecord) (rec model.PredictionRecord, duplicate bool, err error) {
	ctx, end := s.span(ctx, "AddSubmission",
		attribute.String("user.id", r.UserID),
		attribute.String("modality", string(r.Modality)),
	)
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return model.PredictionRecord{}, false, err
	}
	if strings.TrimSpace(r.UserID) == "" {
		return model.PredictionRecord{}, false, fmt.Errorf("user id is required: %w", ErrInvalidSubmission)
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = s.now().UTC()
	}

	key := ""
	if clientID != "" {
		r.ID = clientID
		key = r.UserID + "/" + clientID
		if s.deduper.SeenAndRecord(ctx, key) {
			if stored, err := s.store.Record(ctx, r.UserID, clientID); err == nil {
				metrics.RecordSubmissionDuplicate()
				return stored, true, nil
			}
			// seen but never stored: the first attempt failed midway
		}
	}

	stored, err := s.store.AddRecord(ctx, r)
	if err != nil {
		if clientID != "" {
			// outside the dedupe window the store's unique ID still catches retries
			if prior, lookupErr := s.store.Record(ctx, r.UserID, clientID); lookupErr == nil {
				metrics.RecordSubmissionDuplicate()
				return prior, true, nil
			}
			s.deduper.Unrecord(ctx, key)
		}
		metrics.RecordErrorByComponent("service", "store_add")
		if errors.Is(err, repository.ErrDuplicate) {
			return model.PredictionRecord{}, false, ErrDuplicateSubmission
		}
		return model.PredictionRecord{}, false, fmt.Errorf("store submission: %w", err)
	}

	metrics.RecordSubmission(string(stored.Modality))
	s.logger.Debug(ctx, "submission stored",
		logger.String("user", stored.UserID),
		logger.String("id", stored.ID),
		logger.String("modality", string(stored.Modality)),
	)
	return stored, false, nil
}

// Submissions lists a user's records, newest first.
func (s *Service) Submissions(ctx context.Context, userID string) ([]model.PredictionRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.store.Records(ctx, userID)
}

// FusionReport fuses the user's latest record per modality. It returns
// ErrNoSubmissions when the user has none.
func (s *Service) FusionReport(ctx context.Context, userID string) (rep Report, err error) {
	ctx, end := s.span(ctx, "FusionReport", attribute.String("user.id", userID))
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return Report{}, err
	}
	records, err := s.store.Records(ctx, userID)
	if err != nil {
		return Report{}, fmt.Errorf("load submissions: %w", err)
	}
	if len(records) == 0 {
		return Report{}, fmt.Errorf("%q: %w", userID, ErrNoSubmissions)
	}

	res := s.aggregator.Fuse(records)
	for _, e := range res.Modalities {
		if e.Basis != scoring.BasisScore {
			metrics.RecordNormalizeFallback(string(e.Basis))
		}
	}
	metrics.RecordFusion(res.Tier.String(), res.Overall, len(res.Modalities))

	s.logger.Debug(ctx, "fused report",
		logger.String("user", userID),
		logger.Float64("overall", res.Overall),
		logger.String("tier", res.Tier.String()),
		logger.Int("modalities", len(res.Modalities)),
	)
	return Report{UserID: userID, Result: res, Guidance: guidance.Resolve(res.Tier)}, nil
}

// FusionDocument renders and archives the fused report.
func (s *Service) FusionDocument(ctx context.Context, userID string) (report.Document, error) {
	doc, _, _, err := s.fusionDocument(ctx, userID)
	return doc, err
}

func (s *Service) fusionDocument(ctx context.Context, userID string) (doc report.Document, u model.User, rep Report, err error) {
	ctx, end := s.span(ctx, "FusionDocument", attribute.String("user.id", userID))
	defer func() { end(err) }()

	rep, err = s.FusionReport(ctx, userID)
	if err != nil {
		return report.Document{}, model.User{}, Report{}, err
	}
	u = s.identity(ctx, userID)
	at := s.now().UTC()
	doc, err = s.publish(ctx, kindFusion, report.FusionName(userID, at), at, func() ([]byte, error) {
		return s.renderer.RenderFusion(u, rep.Result, rep.Guidance, at)
	})
	return doc, u, rep, err
}

// EmailFusionReport archives the fused report, then mails it to the user.
// The archived document is returned even when dispatch fails.
func (s *Service) EmailFusionReport(ctx context.Context, userID string) (doc report.Document, err error) {
	ctx, end := s.span(ctx, "EmailFusionReport", attribute.String("user.id", userID))
	defer func() { end(err) }()

	doc, u, rep, err := s.fusionDocument(ctx, userID)
	if err != nil {
		return report.Document{}, err
	}
	msg := mail.FusionMessage(u.Email, u.DisplayName(), rep.Result.Overall, rep.Result.Status(), doc.Name, doc.Bytes)
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		return doc, fmt.Errorf("mail %s: %w", doc.Name, err)
	}
	s.logger.Info(ctx, "fusion report mailed", logger.String("user", userID), logger.String("document", doc.Name))
	return doc, nil
}

// SubmissionDocument renders and archives the report of a single submission.
func (s *Service) SubmissionDocument(ctx context.Context, userID, submissionID string) (report.Document, error) {
	doc, _, _, err := s.submissionDocument(ctx, userID, submissionID)
	return doc, err
}

func (s *Service) submissionDocument(ctx context.Context, userID, submissionID string) (doc report.Document, u model.User, rec model.PredictionRecord, err error) {
	ctx, end := s.span(ctx, "SubmissionDocument",
		attribute.String("user.id", userID),
		attribute.String("submission.id", submissionID),
	)
	defer func() { end(err) }()

	if err := s.ready(); err != nil {
		return report.Document{}, model.User{}, model.PredictionRecord{}, err
	}
	rec, err = s.store.Record(ctx, userID, submissionID)
	if errors.Is(err, repository.ErrNotFound) {
		return report.Document{}, model.User{}, model.PredictionRecord{}, fmt.Errorf("%q: %w", submissionID, ErrSubmissionNotFound)
	}
	if err != nil {
		return report.Document{}, model.User{}, model.PredictionRecord{}, fmt.Errorf("load submission: %w", err)
	}
	u = s.identity(ctx, userID)
	at := s.now().UTC()
	doc, err = s.publish(ctx, kindSubmission, report.SubmissionName(userID, submissionID), at, func() ([]byte, error) {
		return s.renderer.RenderSubmission(u, rec, at)
	})
	return doc, u, rec, err
}

// EmailSubmissionReport archives a submission report, then mails it to the
// user. The archived document is returned even when dispatch fails.
func (s *Service) EmailSubmissionReport(ctx context.Context, userID, submissionID string) (doc report.Document, err error) {
	ctx, end := s.span(ctx, "EmailSubmissionReport",
		attribute.String("user.id", userID),
		attribute.String("submission.id", submissionID),
	)
	defer func() { end(err) }()

	doc, u, rec, err := s.submissionDocument(ctx, userID, submissionID)
	if err != nil {
		return report.Document{}, err
	}
	score := scoring.Normalize(rec.RawScore, rec.RawLabel)
	verdict := scoring.VerdictOf(score)
	msg := mail.SubmissionMessage(u.Email, u.DisplayName(), rec.Modality.String(), string(verdict), score, doc.GeneratedAt,
		guidance.SubmissionAdvice(verdict), doc.Name, doc.Bytes)
	if err := s.dispatcher.Dispatch(ctx, msg); err != nil {
		return doc, fmt.Errorf("mail %s: %w", doc.Name, err)
	}
	s.logger.Info(ctx, "submission report mailed", logger.String("user", userID), logger.String("document", doc.Name))
	return doc, nil
}

// publish renders a document and archives it.
func (s *Service) publish(ctx context.Context, kind, name string, at time.Time, render func() ([]byte, error)) (report.Document, error) {
	start := time.Now()
	data, err := render()
	if err != nil {
		metrics.RecordDocumentFailure(kind)
		metrics.RecordErrorLatency("renderer", "render", float64(time.Since(start).Milliseconds()))
		s.logger.Error(ctx, "report rendering failed", logger.String("document", name), logger.Error(err))
		return report.Document{}, err
	}
	path, err := s.archive.Save(name, data)
	if err != nil {
		metrics.RecordDocumentFailure(kind)
		s.logger.Error(ctx, "report archiving failed", logger.String("document", name), logger.Error(err))
		return report.Document{}, err
	}
	metrics.RecordDocumentRendered(kind, float64(time.Since(start).Milliseconds()))
	return report.Document{Name: filepath.Base(path), Path: path, Bytes: data, GeneratedAt: at}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":      s.started,
		"storeBackend": string(s.storeBackend),
		"reportsDir":   s.reportsDir,
		"dedupeSize":   s.dedupeSize,
	}
	if s.started {
		count := s.store.Count(context.Background())
		stats["records"] = count
		stats["dedupeEntries"] = s.deduper.Size()
		stats["mailConfigured"] = s.dispatcher.Configured()
		metrics.UpdateStoreRecords(count)
	}
	return stats
}
