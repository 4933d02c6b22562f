package service_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/heartfuse/internal/adapters/mail"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

type refusingTransport struct{}

func (refusingTransport) Send(context.Context, mail.Config, mail.Message) error {
	return errors.New("dial tcp: connection refused")
}

func TestServiceIntegration(t *testing.T) {
	ctx := context.Background()

	Convey("Given a service with the real renderer and an unconfigured relay", t, func() {
		svc := newStarted(t, service.WithMailConfig(mail.Config{Username: "bot@example.com"}))
		defer svc.Stop()
		So(svc.PutUser(ctx, model.User{ID: "u-1", Email: "pat@example.com"}), ShouldBeNil)

		Convey("When a single ECG labeled 3 without a score is fused", func() {
			_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "u-1", RawLabel: "3"})
			So(err, ShouldBeNil)
			rep, err := svc.FusionReport(ctx, "u-1")

			Convey("Then the report should be low risk with one normal entry", func() {
				So(err, ShouldBeNil)
				So(rep.Result.Overall, ShouldEqual, 0.0)
				So(rep.Result.Tier, ShouldEqual, fusion.TierLow)
				So(len(rep.Result.Modalities), ShouldEqual, 1)
				So(string(rep.Result.Modalities[0].Verdict), ShouldEqual, "Normal")
			})

			Convey("And e-mailing it without a relay host", func() {
				doc, err := svc.EmailFusionReport(ctx, "u-1")

				Convey("Then a configuration error should surface and the document stay on disk", func() {
					So(errors.Is(err, mail.ErrMailNotConfigured), ShouldBeTrue)
					So(errors.Is(err, mail.ErrMailTransport), ShouldBeFalse)
					_, statErr := os.Stat(doc.Path)
					So(statErr, ShouldBeNil)
				})
			})
		})
	})

	Convey("Given a configured relay that refuses connections", t, func() {
		d := mail.NewDispatcher(mail.Config{Host: "127.0.0.1", Port: 2525, Sender: "bot@example.com"},
			mail.WithTransport(refusingTransport{}))
		svc := newStarted(t, service.WithDispatcher(d))
		defer svc.Stop()
		So(svc.PutUser(ctx, model.User{ID: "u-1", Email: "pat@example.com"}), ShouldBeNil)
		_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "u-1", Modality: "PPG", RawScore: "0.95"})
		So(err, ShouldBeNil)

		Convey("When the report is e-mailed", func() {
			doc, err := svc.EmailFusionReport(ctx, "u-1")

			Convey("Then a transport error should surface and the document stay on disk", func() {
				So(errors.Is(err, mail.ErrMailTransport), ShouldBeTrue)
				So(errors.Is(err, mail.ErrMailNotConfigured), ShouldBeFalse)
				_, statErr := os.Stat(doc.Path)
				So(statErr, ShouldBeNil)
			})
		})
	})

	Convey("Given a user without a stored identity", t, func() {
		d := &recordingDispatcher{configured: true}
		svc := newStarted(t, service.WithDispatcher(d))
		defer svc.Stop()
		_, _, err := svc.AddSubmission(ctx, "", model.PredictionRecord{UserID: "anon", RawScore: "0.1"})
		So(err, ShouldBeNil)

		Convey("Then a document should still render addressed to the bare ID", func() {
			doc, err := svc.FusionDocument(ctx, "anon")
			So(err, ShouldBeNil)
			So(doc.Name, ShouldStartWith, "fusion_anon_")

			_, err = svc.User(ctx, "anon")
			So(errors.Is(err, service.ErrUserNotFound), ShouldBeTrue)
		})

		Convey("Then e-mailing should hand the dispatcher an empty recipient", func() {
			_, err := svc.EmailFusionReport(ctx, "anon")
			So(err, ShouldBeNil)
			So(d.sent[0].To, ShouldBeEmpty)
			So(d.sent[0].Body, ShouldContainSubstring, "Dear anon,")
		})
	})
}
