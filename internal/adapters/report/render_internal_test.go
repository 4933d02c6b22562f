package report

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestGeneratedLine(t *testing.T) {
	Convey("Given a generation time in a non-UTC zone", t, func() {
		at := time.Date(2024, 6, 1, 11, 30, 0, 0, time.FixedZone("CEST", 2*3600))

		Convey("Then the stamp should be RFC 3339 UTC with a single zone marker", func() {
			So(generatedLine(at), ShouldEqual, "Generated: 2024-06-01T09:30:00Z")
		})
	})
}
