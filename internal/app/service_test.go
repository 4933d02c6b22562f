package service_test

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"
	"time"

	"github.com/okian/heartfuse/internal/adapters/mail"
	"github.com/okian/heartfuse/internal/adapters/report"
	"github.com/okian/heartfuse/internal/adapters/repository"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/guidance"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(logger.WithWriter(io.Discard)); err != nil {
		panic(err)
	}
}

type recordingDispatcher struct {
	configured bool
	err        error
	sent       []mail.Message
}

func (d *recordingDispatcher) Configured() bool { return d.configured }

func (d *recordingDispatcher) Dispatch(_ context.Context, msg mail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, msg)
	return nil
}

type brokenRenderer struct{}

func (brokenRenderer) RenderFusion(model.User, fusion.Result, guidance.Bundle, time.Time) ([]byte, error) {
	return nil, report.ErrRender
}

func (brokenRenderer) RenderSubmission(model.User, model.PredictionRecord, time.Time) ([]byte, error) {
	return nil, report.ErrRender
}

var fixedNow = time.Date(2024, 7, 1, 10, 0, 0, 0, time.UTC)

func newStarted(t *testing.T, opts ...service.Option) *service.Service {
	t.Helper()
	opts = append([]service.Option{
		service.WithReportsDir(t.TempDir()),
		service.WithClock(func() time.Time { return fixedNow }),
	}, opts...)
	svc := service.New(opts...)
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	return svc
}

func TestService_Start(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := service.New(service.WithReportsDir(t.TempDir()))
		defer svc.Stop()

		Convey("When it is used before Start", func() {
			_, err := svc.FusionReport(context.Background(), "u-1")
			So(errors.Is(err, service.ErrNotStarted), ShouldBeTrue)
		})

		Convey("When starting the service twice", func() {
			So(svc.Start(context.Background()), ShouldBeNil)
			So(svc.Start(context.Background()), ShouldBeNil)

			Convey("Then stats should report it started on the memory store", func() {
				stats := svc.GetStats()
				So(stats["started"], ShouldEqual, true)
				So(stats["storeBackend"], ShouldEqual, "memory")
				So(stats["records"], ShouldEqual, 0)
				So(stats["mailConfigured"], ShouldEqual, false)
			})
		})
	})

	Convey("Given an unsupported store backend", t, func() {
		svc := service.New(service.WithReportsDir(t.TempDir()), service.WithStoreBackend("cassandra", ""))
		So(svc.Start(context.Background()), ShouldNotBeNil)
	})
}

func TestService_AddSubmission(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t)
		defer svc.Stop()
		ctx := context.Background()

		Convey("When a submission has no timestamp or modality", func() {
			rec, dup, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "u-1", RawLabel: "3"})

			Convey("Then defaults should be applied", func() {
				So(err, ShouldBeNil)
				So(dup, ShouldBeFalse)
				So(rec.CreatedAt, ShouldEqual, fixedNow)
				So(rec.Modality, ShouldEqual, model.ModalityECG)
				So(rec.ID, ShouldNotBeEmpty)
			})
		})

		Convey("When the same client ID is uploaded twice", func() {
			first, dup1, err1 := svc.AddSubmission(ctx, "client-7", model.PredictionRecord{UserID: "u-1", RawScore: "0.2"})
			second, dup2, err2 := svc.AddSubmission(ctx, "client-7", model.PredictionRecord{UserID: "u-1", RawScore: "0.9"})

			Convey("Then the retry should return the first record", func() {
				So(err1, ShouldBeNil)
				So(err2, ShouldBeNil)
				So(dup1, ShouldBeFalse)
				So(dup2, ShouldBeTrue)
				So(second.ID, ShouldEqual, first.ID)
				So(second.RawScore, ShouldEqual, "0.2")

				recs, err := svc.Submissions(ctx, "u-1")
				So(err, ShouldBeNil)
				So(len(recs), ShouldEqual, 1)
			})
		})

		Convey("When two users upload under the same client ID", func() {
			a, dupA, errA := svc.AddSubmission(ctx, "s-1", model.PredictionRecord{UserID: "alice", RawLabel: "MI"})
			b, dupB, errB := svc.AddSubmission(ctx, "s-1", model.PredictionRecord{UserID: "bob", RawLabel: "3"})

			Convey("Then each should own a separate record", func() {
				So(errA, ShouldBeNil)
				So(errB, ShouldBeNil)
				So(dupA, ShouldBeFalse)
				So(dupB, ShouldBeFalse)
				So(a.RawLabel, ShouldEqual, "MI")
				So(b.RawLabel, ShouldEqual, "3")

				docA, err := svc.SubmissionDocument(ctx, "alice", "s-1")
				So(err, ShouldBeNil)
				docB, err := svc.SubmissionDocument(ctx, "bob", "s-1")
				So(err, ShouldBeNil)
				So(docA.Path, ShouldNotEqual, docB.Path)
			})
		})

		Convey("When the submission has no user", func() {
			_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{})
			So(errors.Is(err, service.ErrInvalidSubmission), ShouldBeTrue)
		})
	})

	Convey("Given a store that reports an ID conflict it cannot resolve", t, func() {
		ctx := context.Background()
		svc := newStarted(t, service.WithStore(conflictingStore{repository.NewMemoryStore(ctx)}))
		defer svc.Stop()

		_, _, err := svc.AddSubmission(ctx, "s-9", model.PredictionRecord{UserID: "u-1"})

		Convey("Then the conflict should surface without the ID", func() {
			So(errors.Is(err, service.ErrDuplicateSubmission), ShouldBeTrue)
			So(err.Error(), ShouldNotContainSubstring, "s-9")
		})
	})
}

type conflictingStore struct {
	repository.Store
}

func (conflictingStore) AddRecord(context.Context, model.PredictionRecord) (model.PredictionRecord, error) {
	return model.PredictionRecord{}, repository.ErrDuplicate
}

func (conflictingStore) Record(context.Context, string, string) (model.PredictionRecord, error) {
	return model.PredictionRecord{}, repository.ErrNotFound
}

func TestService_FusionReport(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc := newStarted(t, service.WithModalityWeights(map[string]float64{"PPG": 0.45}))
		defer svc.Stop()
		ctx := context.Background()

		Convey("When the user has no submissions", func() {
			_, err := svc.FusionReport(ctx, "nobody")

			Convey("Then data absence should be reported", func() {
				So(errors.Is(err, service.ErrNoSubmissions), ShouldBeTrue)
			})
		})

		Convey("When the user has several submissions", func() {
			add := func(m model.Modality, score string, at time.Time) {
				_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "u-1", Modality: m, RawScore: score, CreatedAt: at})
				So(err, ShouldBeNil)
			}
			add(model.ModalityECG, "0.9", fixedNow.Add(-3*time.Hour))
			add(model.ModalityPPG, "1.0", fixedNow.Add(-2*time.Hour))
			add(model.ModalityECG, "0.0", fixedNow.Add(-1*time.Hour))

			rep, err := svc.FusionReport(ctx, "u-1")

			Convey("Then the latest per modality should be fused with configured weights", func() {
				So(err, ShouldBeNil)
				So(len(rep.Result.Modalities), ShouldEqual, 2)
				So(rep.Result.Modalities[0].Modality, ShouldEqual, model.ModalityECG)
				So(rep.Result.Modalities[0].Score, ShouldEqual, 0.0)
				So(rep.Result.Overall, ShouldAlmostEqual, 0.5, 1e-12)
				So(rep.Result.Tier, ShouldEqual, fusion.TierElevated)
				So(rep.Guidance, ShouldResemble, guidance.Resolve(fusion.TierElevated))
			})
		})
	})
}

func TestService_Documents(t *testing.T) {
	ctx := context.Background()

	Convey("Given a user with one submission and an identity", t, func() {
		d := &recordingDispatcher{configured: true}
		svc := newStarted(t, service.WithDispatcher(d))
		defer svc.Stop()
		So(svc.PutUser(ctx, model.User{ID: "u-1", Email: "pat@example.com", FullName: "Pat"}), ShouldBeNil)
		rec, _, err := svc.AddSubmission(ctx, "sub-1", model.PredictionRecord{UserID: "u-1", RawLabel: "Normal", SourceName: "ecg.csv"})
		So(err, ShouldBeNil)

		Convey("When the fused document is requested", func() {
			doc, err := svc.FusionDocument(ctx, "u-1")

			Convey("Then it should be archived under the timestamped name", func() {
				So(err, ShouldBeNil)
				So(doc.Name, ShouldEqual, "fusion_u-1_20240701100000.pdf")
				_, statErr := os.Stat(doc.Path)
				So(statErr, ShouldBeNil)
				So(string(doc.Bytes[:5]), ShouldEqual, "%PDF-")
			})
		})

		Convey("When the fused report is e-mailed", func() {
			doc, err := svc.EmailFusionReport(ctx, "u-1")

			Convey("Then the message should go to the user with the document attached", func() {
				So(err, ShouldBeNil)
				So(len(d.sent), ShouldEqual, 1)
				So(d.sent[0].To, ShouldEqual, "pat@example.com")
				So(d.sent[0].Attachment, ShouldResemble, doc.Bytes)
				So(d.sent[0].AttachmentName, ShouldEqual, doc.Name)
				So(d.sent[0].Body, ShouldContainSubstring, "Dear Pat,")
				So(d.sent[0].Body, ShouldContainSubstring, "Status: Low risk")
			})
		})

		Convey("When a submission report is e-mailed", func() {
			doc, err := svc.EmailSubmissionReport(ctx, "u-1", rec.ID)

			Convey("Then it should be named after the submission", func() {
				So(err, ShouldBeNil)
				So(doc.Name, ShouldEqual, "report_u-1_sub-1.pdf")
				So(d.sent[0].Subject, ShouldEqual, "Your ECG Prediction Report")
				So(d.sent[0].Attachment, ShouldResemble, doc.Bytes)
				So(d.sent[0].Body, ShouldContainSubstring, "Result: Normal")
			})
		})

		Convey("When a PPG submission report is e-mailed", func() {
			ppg, _, err := svc.AddSubmission(ctx, "sub-2", model.PredictionRecord{UserID: "u-1", Modality: model.ModalityPPG, RawScore: "0.1"})
			So(err, ShouldBeNil)
			_, err = svc.EmailSubmissionReport(ctx, "u-1", ppg.ID)

			Convey("Then the mail should name the PPG modality", func() {
				So(err, ShouldBeNil)
				So(d.sent[0].Subject, ShouldEqual, "Your PPG Prediction Report")
				So(d.sent[0].Body, ShouldContainSubstring, "your PPG prediction report.")
			})
		})

		Convey("When the relay rejects the message", func() {
			d.err = mail.ErrMailTransport
			doc, err := svc.EmailFusionReport(ctx, "u-1")

			Convey("Then the error should surface and the document remain", func() {
				So(errors.Is(err, mail.ErrMailTransport), ShouldBeTrue)
				_, statErr := os.Stat(doc.Path)
				So(statErr, ShouldBeNil)
			})
		})

		Convey("When an unknown submission is requested", func() {
			_, err := svc.SubmissionDocument(ctx, "u-1", "missing")
			So(errors.Is(err, service.ErrSubmissionNotFound), ShouldBeTrue)
		})

		Convey("When another user asks for the submission", func() {
			_, err := svc.SubmissionDocument(ctx, "u-2", rec.ID)
			So(errors.Is(err, service.ErrSubmissionNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a renderer that fails", t, func() {
		dir := t.TempDir()
		svc := service.New(service.WithReportsDir(dir), service.WithRenderer(brokenRenderer{}))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "u-1", RawScore: "0.3"})
		So(err, ShouldBeNil)

		Convey("Then no document should be archived", func() {
			_, err := svc.FusionDocument(ctx, "u-1")
			So(errors.Is(err, report.ErrRender), ShouldBeTrue)
			entries, _ := os.ReadDir(dir)
			So(entries, ShouldBeEmpty)
		})
	})
}
