// Package fusion combines per-modality risk scores into one overall risk.
package fusion

import (
	"sort"
	"time"

	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/scoring"
)

// Default modality weights.
const (
	WeightECG      = 0.45
	WeightPPG      = 0.25
	WeightHeartCSV = 0.30
	WeightDefault  = 0.20

	// uncertainScore is reported when nothing contributes.
	uncertainScore = 0.5
)

// Tier is a coarse bucket of the overall risk.
type Tier int

// Risk tiers, ordered by increasing risk.
const (
	TierLow Tier = iota
	TierModerate
	TierElevated
	TierHigh
)

// Tier thresholds (lower bounds, inclusive).
const (
	moderateFrom = 0.2
	elevatedFrom = 0.5
	highFrom     = 0.8
)

// TierOf buckets a score.
func TierOf(score float64) Tier {
	switch {
	case score < moderateFrom:
		return TierLow
	case score < elevatedFrom:
		return TierModerate
	case score < highFrom:
		return TierElevated
	default:
		return TierHigh
	}
}

// Status is the human-readable tier text shown in reports.
func (t Tier) Status() string {
	switch t {
	case TierLow:
		return "Low risk"
	case TierModerate:
		return "Moderate risk"
	case TierElevated:
		return "Elevated risk"
	default:
		return "High risk"
	}
}

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierModerate:
		return "moderate"
	case TierElevated:
		return "elevated"
	default:
		return "high"
	}
}

// Aggregator computes weighted means over modality scores.
type Aggregator struct {
	weights       map[model.Modality]float64
	defaultWeight float64
}

// NewAggregator creates an aggregator with the default weights.
func NewAggregator(opts ...Option) *Aggregator {
	a := &Aggregator{
		weights: map[model.Modality]float64{
			model.ModalityECG:      WeightECG,
			model.ModalityPPG:      WeightPPG,
			model.ModalityHeartCSV: WeightHeartCSV,
		},
		defaultWeight: WeightDefault,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Weight returns the weight applied to m.
func (a *Aggregator) Weight(m model.Modality) float64 {
	if w, ok := a.weights[m]; ok {
		return w
	}
	return a.defaultWeight
}

// Aggregate returns the weighted mean of scores and its tier. With no
// scores the result is 0.5.
func (a *Aggregator) Aggregate(scores map[model.Modality]float64) (float64, Tier) {
	if len(scores) == 0 {
		return uncertainScore, TierOf(uncertainScore)
	}
	keys := make([]model.Modality, 0, len(scores))
	for m := range scores {
		keys = append(keys, m)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var num, den float64
	for _, m := range keys {
		w := a.Weight(m)
		num += w * scores[m]
		den += w
	}
	overall := num / den
	return overall, TierOf(overall)
}

// Entry describes one modality's contribution to a fused result.
type Entry struct {
	Modality  model.Modality
	Score     float64
	Basis     scoring.Basis
	Verdict   scoring.Verdict
	Source    string
	Timestamp time.Time
}

// Result is a fused multi-modality risk estimate.
type Result struct {
	Overall    float64
	Tier       Tier
	Modalities []Entry
}

// Status returns the tier text.
func (r Result) Status() string { return r.Tier.Status() }

// Fuse selects the latest record per modality, normalizes each and
// aggregates them. records must be ordered newest first.
func (a *Aggregator) Fuse(records []model.PredictionRecord) Result {
	sel := SelectLatest(records)
	scores := make(map[model.Modality]float64, sel.Len())
	entries := make([]Entry, 0, sel.Len())
	for _, r := range sel.Records() {
		n := scoring.Explain(r.RawScore, r.RawLabel)
		scores[r.Modality] = n.Score
		entries = append(entries, Entry{
			Modality:  r.Modality,
			Score:     n.Score,
			Basis:     n.Basis,
			Verdict:   scoring.VerdictOf(n.Score),
			Source:    r.SourceName,
			Timestamp: r.CreatedAt,
		})
	}
	overall, tier := a.Aggregate(scores)
	return Result{Overall: overall, Tier: tier, Modalities: entries}
}

// Fuse runs the pipeline with default weights.
func Fuse(records []model.PredictionRecord) Result {
	return NewAggregator().Fuse(records)
}
