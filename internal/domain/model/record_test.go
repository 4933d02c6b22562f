package model_test

import (
	"testing"

	model "github.com/okian/heartfuse/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestParseModality(t *testing.T) {
	convey.Convey("Given raw modality tags", t, func() {
		convey.Convey("When the tag is empty or blank", func() {
			convey.Convey("Then it should default to ECG", func() {
				convey.So(model.ParseModality(""), convey.ShouldEqual, model.ModalityECG)
				convey.So(model.ParseModality("   "), convey.ShouldEqual, model.ModalityECG)
			})
		})

		convey.Convey("When the tag is lower case or padded", func() {
			convey.Convey("Then it should be canonicalized", func() {
				convey.So(model.ParseModality(" ppg "), convey.ShouldEqual, model.ModalityPPG)
				convey.So(model.ParseModality("heart_csv"), convey.ShouldEqual, model.ModalityHeartCSV)
			})
		})

		convey.Convey("When the tag is unknown", func() {
			m := model.ParseModality("echo")

			convey.Convey("Then it should be kept rather than folded into ECG", func() {
				convey.So(m, convey.ShouldEqual, model.Modality("ECHO"))
				convey.So(m.Known(), convey.ShouldBeFalse)
				convey.So(model.ModalityECG.Known(), convey.ShouldBeTrue)
			})
		})
	})
}

func TestPredictionRecordCanonical(t *testing.T) {
	convey.Convey("Given a record with a missing modality", t, func() {
		rec := model.PredictionRecord{UserID: "u-1", RawLabel: "3"}

		convey.Convey("Then Canonical should default it without touching other fields", func() {
			c := rec.Canonical()
			convey.So(c.Modality, convey.ShouldEqual, model.ModalityECG)
			convey.So(c.RawLabel, convey.ShouldEqual, "3")
			convey.So(rec.Modality, convey.ShouldEqual, model.Modality(""))
		})
	})
}

func TestUserDisplayName(t *testing.T) {
	convey.Convey("Given users with partial identity", t, func() {
		convey.So(model.User{ID: "7", Email: "a@b.c", FullName: "Ada"}.DisplayName(), convey.ShouldEqual, "Ada")
		convey.So(model.User{ID: "7", Email: "a@b.c"}.DisplayName(), convey.ShouldEqual, "a@b.c")
		convey.So(model.User{ID: "7"}.DisplayName(), convey.ShouldEqual, "7")
	})
}
