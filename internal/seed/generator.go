package seed

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"time"

	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/types"
)

// retryEvery makes every n-th submission a retry of the previous one.
const retryEvery = 7

// epoch anchors generated timestamps so runs are reproducible.
var epoch = time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

var (
	modalities = []string{"ECG", "ppg", "HEART_CSV", ""}
	labels     = []string{"", "0", "1", "2", "3", "4", "Normal", "Abnormal", "MI", "normal", "Sinus rhythm normal", "Atrial fibrillation"}
	garbage    = []string{"n/a", "abc", "NaN", "1e999x"}
)

// Submission is one generated upload. Retry marks a repeated submission_id.
type Submission struct {
	UserID  string
	Request types.SubmissionRequest
	Retry   bool
}

// Plan is the generated data set.
type Plan struct {
	Users       []string
	Submissions []Submission
}

// Generate builds a deterministic plan from cfg.Seed.
func Generate(cfg *Config) Plan {
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)) //nolint:gosec // synthetic data
	plan := Plan{}
	tick := 0
	for u := 0; u < cfg.Users; u++ {
		userID := fmt.Sprintf("seed-user-%03d", u)
		plan.Users = append(plan.Users, userID)
		for i := 0; i < cfg.PerUser; i++ {
			tick++
			at := epoch.Add(time.Duration(tick) * time.Minute)
			req := types.SubmissionRequest{
				SubmissionID: fmt.Sprintf("%s-%04d", userID, i),
				Modality:     modalities[rng.IntN(len(modalities))],
				Label:        types.RawValue(labels[rng.IntN(len(labels))]),
				Score:        types.RawValue(randomScore(rng)),
				FileName:     fmt.Sprintf("test_%04d.csv", i),
				CreatedAt:    &at,
				Age:          30 + rng.IntN(50),
				Sex:          []string{"F", "M"}[rng.IntN(2)],
			}
			plan.Submissions = append(plan.Submissions, Submission{UserID: userID, Request: req})
			if i > 0 && i%retryEvery == 0 {
				plan.Submissions = append(plan.Submissions, Submission{UserID: userID, Request: req, Retry: true})
			}
		}
	}
	return plan
}

// randomScore mixes valid, out-of-range, garbage and absent scores.
func randomScore(rng *rand.Rand) string {
	switch n := rng.IntN(10); {
	case n < 5:
		return strconv.FormatFloat(rng.Float64(), 'f', 3, 64)
	case n < 7:
		return strconv.FormatFloat(rng.Float64()*4-2, 'f', 2, 64)
	case n < 8:
		return garbage[rng.IntN(len(garbage))]
	default:
		return ""
	}
}

// Records returns the user's stored records, newest first, as the service
// keeps them. Retries are not stored twice.
func (p Plan) Records(userID string) []model.PredictionRecord {
	var out []model.PredictionRecord
	for _, s := range p.Submissions {
		if s.UserID != userID || s.Retry {
			continue
		}
		r := s.Request
		out = append(out, model.PredictionRecord{
			ID:         r.SubmissionID,
			UserID:     userID,
			Modality:   model.ParseModality(r.Modality),
			RawLabel:   string(r.Label),
			RawScore:   string(r.Score),
			SourceName: r.FileName,
			CreatedAt:  r.CreatedAt.UTC(),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}
