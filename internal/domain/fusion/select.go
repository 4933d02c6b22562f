package fusion

import "github.com/okian/heartfuse/internal/domain/model"

// Selection holds at most one record per modality, in first-seen order.
type Selection struct {
	order   []model.Modality
	records map[model.Modality]model.PredictionRecord
}

// SelectLatest keeps the first record met for each modality. records must be
// ordered newest first, so the first one met is the most recent.
func SelectLatest(records []model.PredictionRecord) Selection {
	sel := Selection{records: make(map[model.Modality]model.PredictionRecord)}
	for _, r := range records {
		r = r.Canonical()
		if _, ok := sel.records[r.Modality]; ok {
			continue
		}
		sel.order = append(sel.order, r.Modality)
		sel.records[r.Modality] = r
	}
	return sel
}

// Len returns the number of selected modalities.
func (s Selection) Len() int { return len(s.order) }

// Modalities returns the selected modalities, most recently submitted first.
func (s Selection) Modalities() []model.Modality {
	out := make([]model.Modality, len(s.order))
	copy(out, s.order)
	return out
}

// Get returns the selected record for m.
func (s Selection) Get(m model.Modality) (model.PredictionRecord, bool) {
	r, ok := s.records[m]
	return r, ok
}

// Records returns the selected records in first-seen order.
func (s Selection) Records() []model.PredictionRecord {
	out := make([]model.PredictionRecord, 0, len(s.order))
	for _, m := range s.order {
		out = append(out, s.records[m])
	}
	return out
}
