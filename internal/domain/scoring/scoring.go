// Package scoring maps heterogeneous model outputs to a canonical risk in [0,1].
package scoring

import (
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/okian/heartfuse/internal/domain/label"
)

// Basis tells which input a normalized score was derived from.
type Basis string

// Normalization bases.
const (
	BasisScore   Basis = "score"
	BasisLabel   Basis = "label"
	BasisDefault Basis = "uncertain"
)

// Verdict is the binary reading of a risk score.
type Verdict string

// Verdicts.
const (
	VerdictNormal   Verdict = "Normal"
	VerdictAbnormal Verdict = "Abnormal"
)

// verdictThreshold splits Normal from Abnormal.
const verdictThreshold = 0.5

// Result is a normalized score together with the input it came from.
type Result struct {
	Score float64
	Basis Basis
}

// Normalize returns the canonical risk for a raw score and label. Empty
// strings mean absent. It never fails.
func Normalize(rawScore, rawLabel string) float64 {
	return Explain(rawScore, rawLabel).Score
}

// Explain is Normalize that also reports which input decided the score.
func Explain(rawScore, rawLabel string) Result {
	if v, ok := parseScore(rawScore); ok {
		return Result{Score: clamp(v), Basis: BasisScore}
	}
	l := label.Parse(rawLabel)
	if l.Kind == label.Absent {
		return Result{Score: l.Risk(), Basis: BasisDefault}
	}
	return Result{Score: l.Risk(), Basis: BasisLabel}
}

// clamp collapses out-of-range values. Anything above 1 is treated as a
// confident positive rather than rescaled.
func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0.0
	case v > 1:
		if v >= verdictThreshold {
			return 1.0
		}
		return 0.0
	default:
		return v
	}
}

func parseScore(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// ParseFloat reports range errors with ±Inf, which clamp handles
		if !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// VerdictOf reads a normalized score as Normal or Abnormal.
func VerdictOf(score float64) Verdict {
	if score < verdictThreshold {
		return VerdictNormal
	}
	return VerdictAbnormal
}
