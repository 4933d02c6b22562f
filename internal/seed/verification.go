package seed

import (
	"errors"
	"fmt"
	"math"

	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/types"
)

// tolerance absorbs float formatting differences over JSON.
const tolerance = 1e-9

// ErrMismatch means a served report differs from the local fusion.
var ErrMismatch = errors.New("report mismatch")

// Verify fuses records with the default weights and compares the result
// with a served report.
func Verify(records []model.PredictionRecord, got types.FusionReport) error {
	if len(records) == 0 {
		if got.Error == "" {
			return fmt.Errorf("%w: expected no-submissions error", ErrMismatch)
		}
		return nil
	}
	want := fusion.Fuse(records)
	if got.Overall == nil {
		return fmt.Errorf("%w: overall missing, want %.6f", ErrMismatch, want.Overall)
	}
	if math.Abs(want.Overall-*got.Overall) > tolerance {
		return fmt.Errorf("%w: overall %.6f, want %.6f", ErrMismatch, *got.Overall, want.Overall)
	}
	if got.Tier != want.Tier.String() {
		return fmt.Errorf("%w: tier %q, want %q", ErrMismatch, got.Tier, want.Tier.String())
	}
	if len(got.Modalities) != len(want.Modalities) {
		return fmt.Errorf("%w: %d modalities, want %d", ErrMismatch, len(got.Modalities), len(want.Modalities))
	}
	for i, e := range want.Modalities {
		g := got.Modalities[i]
		if g.Type != e.Modality.String() || g.Result != string(e.Verdict) || g.Score != fmt.Sprintf("%.3f", e.Score) {
			return fmt.Errorf("%w: modality %d is %s/%s/%s, want %s/%s/%.3f",
				ErrMismatch, i, g.Type, g.Result, g.Score, e.Modality, e.Verdict, e.Score)
		}
	}
	return nil
}
