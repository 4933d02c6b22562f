package label_test

import (
	"testing"

	"github.com/okian/heartfuse/internal/domain/label"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParse(t *testing.T) {
	Convey("Given raw prediction labels", t, func() {
		Convey("When the label is empty or whitespace", func() {
			Convey("Then it should be absent", func() {
				So(label.Parse("").Kind, ShouldEqual, label.Absent)
				So(label.Parse(" \t ").Kind, ShouldEqual, label.Absent)
			})
		})

		Convey("When the label is all digits", func() {
			l := label.Parse("3")

			Convey("Then it should be a numeric index", func() {
				So(l.Kind, ShouldEqual, label.NumericIndex)
				So(l.Index, ShouldEqual, 3)
			})
		})

		Convey("When digits are padded with whitespace", func() {
			l := label.Parse(" 3 ")

			Convey("Then it should not be read as a class index", func() {
				So(l.Kind, ShouldEqual, label.Descriptive)
				So(l.Text, ShouldEqual, "3")
				So(l.Risk(), ShouldEqual, 1.0)
			})
		})

		Convey("When the label uses full-width digits", func() {
			l := label.Parse("３")

			Convey("Then NFKC folding should still read it as an index", func() {
				So(l.Kind, ShouldEqual, label.NumericIndex)
				So(l.Index, ShouldEqual, 3)
			})
		})

		Convey("When the label is a signed or decimal number", func() {
			Convey("Then it should be descriptive", func() {
				So(label.Parse("-3").Kind, ShouldEqual, label.Descriptive)
				So(label.Parse("3.0").Kind, ShouldEqual, label.Descriptive)
			})
		})

		Convey("When the label is a binary word", func() {
			Convey("Then case should not matter", func() {
				n := label.Parse("NORMAL")
				So(n.Kind, ShouldEqual, label.BinaryWord)
				So(n.Text, ShouldEqual, "normal")

				a := label.Parse("Abnormal")
				So(a.Kind, ShouldEqual, label.BinaryWord)
				So(a.Text, ShouldEqual, "abnormal")

				mi := label.Parse("mi")
				So(mi.Kind, ShouldEqual, label.BinaryWord)
				So(mi.Text, ShouldEqual, "mi")
			})
		})

		Convey("When the label is free text", func() {
			l := label.Parse("Sinus Rhythm Normal")

			Convey("Then it should keep the folded text", func() {
				So(l.Kind, ShouldEqual, label.Descriptive)
				So(l.Text, ShouldEqual, "sinus rhythm normal")
			})
		})
	})
}

func TestRisk(t *testing.T) {
	Convey("Given parsed labels", t, func() {
		cases := []struct {
			raw  string
			risk float64
		}{
			{"", 0.5},
			{"3", 0.0},
			{"0", 1.0},
			{"1", 1.0},
			{"99999999999999999999999", 1.0},
			{"Normal", 0.0},
			{"abnormal", 0.0},
			{"Abnormal", 0.0},
			{"abnormal rhythm", 0.0},
			{"MI", 1.0},
			{" 3 ", 1.0},
			{"3 ", 1.0},
			{"normal sinus rhythm", 0.0},
			{"History of MI", 1.0},
			{"atrial fibrillation", 1.0},
		}

		for _, c := range cases {
			So(label.Parse(c.raw).Risk(), ShouldEqual, c.risk)
		}
	})
}
