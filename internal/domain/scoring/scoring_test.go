package scoring_test

import (
	"testing"

	scoring "github.com/okian/heartfuse/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNormalize(t *testing.T) {
	Convey("Given a numeric score", t, func() {
		Convey("When it lies inside [0,1]", func() {
			Convey("Then it should be returned unchanged", func() {
				So(scoring.Normalize("0.42", ""), ShouldEqual, 0.42)
				So(scoring.Normalize("0", "abnormal"), ShouldEqual, 0.0)
				So(scoring.Normalize("1", "normal"), ShouldEqual, 1.0)
			})
		})

		Convey("When it is negative", func() {
			Convey("Then it should collapse to zero", func() {
				So(scoring.Normalize("-0.3", ""), ShouldEqual, 0.0)
				So(scoring.Normalize("-1e400", ""), ShouldEqual, 0.0)
			})
		})

		Convey("When it exceeds one", func() {
			Convey("Then it should collapse to one", func() {
				So(scoring.Normalize("1.7", ""), ShouldEqual, 1.0)
				So(scoring.Normalize("57", "3"), ShouldEqual, 1.0)
				So(scoring.Normalize("+Inf", ""), ShouldEqual, 1.0)
				So(scoring.Normalize("1e400", ""), ShouldEqual, 1.0)
			})
		})

		Convey("When it carries surrounding whitespace", func() {
			So(scoring.Normalize(" 0.25 ", ""), ShouldEqual, 0.25)
		})
	})

	Convey("Given an unusable score", t, func() {
		Convey("When a label is present", func() {
			Convey("Then the label should decide", func() {
				So(scoring.Normalize("abc", "3"), ShouldEqual, 0.0)
				So(scoring.Normalize("", "1"), ShouldEqual, 1.0)
				So(scoring.Normalize("NaN", "Normal"), ShouldEqual, 0.0)
				So(scoring.Normalize("", "Abnormal"), ShouldEqual, 0.0)
				So(scoring.Normalize("", "abnormal rhythm"), ShouldEqual, 0.0)
				So(scoring.Normalize("", "MI"), ShouldEqual, 1.0)
				So(scoring.Normalize("", "myocardial infarction"), ShouldEqual, 1.0)
			})
		})

		Convey("When the label is absent too", func() {
			Convey("Then the uncertain default should apply", func() {
				So(scoring.Normalize("", ""), ShouldEqual, 0.5)
				So(scoring.Normalize("n/a", "  "), ShouldEqual, 0.5)
			})
		})
	})

	Convey("Given arbitrary inputs", t, func() {
		inputs := []string{"", "x", "-1", "0.5", "2", "NaN", "Inf", "-Inf", "0x1p-2", "3", "normal", "1e-320"}

		Convey("Then the result should always lie in [0,1]", func() {
			for _, s := range inputs {
				for _, l := range inputs {
					v := scoring.Normalize(s, l)
					So(v, ShouldBeBetweenOrEqual, 0.0, 1.0)
				}
			}
		})
	})
}

func TestExplain(t *testing.T) {
	Convey("Given the basis of a normalized score", t, func() {
		So(scoring.Explain("0.3", "").Basis, ShouldEqual, scoring.BasisScore)
		So(scoring.Explain("bad", "normal").Basis, ShouldEqual, scoring.BasisLabel)
		So(scoring.Explain("", "").Basis, ShouldEqual, scoring.BasisDefault)
	})
}

func TestVerdictOf(t *testing.T) {
	Convey("Given normalized scores", t, func() {
		So(scoring.VerdictOf(0.0), ShouldEqual, scoring.VerdictNormal)
		So(scoring.VerdictOf(0.4999), ShouldEqual, scoring.VerdictNormal)
		So(scoring.VerdictOf(0.5), ShouldEqual, scoring.VerdictAbnormal)
		So(scoring.VerdictOf(1.0), ShouldEqual, scoring.VerdictAbnormal)
	})
}
