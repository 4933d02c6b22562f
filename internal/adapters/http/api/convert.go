package api

import (
	"fmt"
	"time"

	"github.com/okian/heartfuse/internal/adapters/report"
	service "github.com/okian/heartfuse/internal/app"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/types"
)

func toFusionReport(rep service.Report) types.FusionReport {
	out := types.FusionReport{
		UserID:     rep.UserID,
		Overall:    &rep.Result.Overall,
		Tier:       rep.Result.Tier.String(),
		Status:     rep.Result.Status(),
		Modalities: make([]types.ModalityEntry, 0, len(rep.Result.Modalities)),
		Guidance: &types.Guidance{
			Precautions:  rep.Guidance.Precautions,
			Measurements: rep.Guidance.Measurements,
			Consult:      rep.Guidance.Consult,
			Diet:         rep.Guidance.Diet,
			Habits:       rep.Guidance.Habits,
		},
	}
	for _, e := range rep.Result.Modalities {
		out.Modalities = append(out.Modalities, types.ModalityEntry{
			Type:   e.Modality.String(),
			Result: string(e.Verdict),
			Score:  fmt.Sprintf("%.3f", e.Score),
			Source: e.Source,
			Time:   e.Timestamp.UTC().Format(types.TimeLayout),
		})
	}
	return out
}

func toSubmission(r model.PredictionRecord) types.Submission {
	return types.Submission{
		ID:        r.ID,
		Modality:  r.Modality.String(),
		Label:     r.RawLabel,
		Score:     r.RawScore,
		FileName:  r.SourceName,
		CreatedAt: r.CreatedAt.UTC(),
		Age:       r.Age,
		Sex:       r.Sex,
		Notes:     r.Notes,
	}
}

func fromSubmissionRequest(userID string, req types.SubmissionRequest) model.PredictionRecord {
	var at time.Time
	if req.CreatedAt != nil {
		at = req.CreatedAt.UTC()
	}
	return model.PredictionRecord{
		UserID:     userID,
		Modality:   model.ParseModality(req.Modality),
		RawLabel:   string(req.Label),
		RawScore:   string(req.Score),
		SourceName: req.FileName,
		CreatedAt:  at,
		Age:        req.Age,
		Sex:        req.Sex,
		Notes:      req.Notes,
	}
}

// toDocument returns nil when nothing was archived.
func toDocument(doc report.Document) *types.Document {
	if doc.Name == "" {
		return nil
	}
	return &types.Document{Name: doc.Name, Path: doc.Path, GeneratedAt: doc.GeneratedAt.UTC()}
}
