// Package guidance maps risk tiers to recommendation text.
package guidance

import (
	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/scoring"
)

// Bundle is the recommendation set shown with a fused report.
type Bundle struct {
	Precautions  []string
	Measurements []string
	Consult      []string
	Diet         []string
	Habits       []string
}

type tierText struct {
	precautions  []string
	measurements []string
	consult      []string
}

//nolint:gochecknoglobals // fixed recommendation tables
var (
	diet = []string{
		"Emphasize vegetables, fruits, legumes, nuts, whole grains.",
		"Prefer olive oil; limit processed foods, trans fats, and high sodium.",
		"Fish 2x/week; consider plant‑based proteins routinely.",
	}
	habits = []string{
		"No smoking or vaping; avoid secondhand smoke.",
		"Regular physical activity; incorporate strength training 2x/week.",
		"Sleep hygiene: consistent schedule, dark/cool room, limit screens before bed.",
	}

	byTier = map[fusion.Tier]tierText{
		fusion.TierLow: {
			precautions: []string{
				"Maintain routine annual checkups and blood pressure/lipid screening.",
				"Continue 150 minutes/week of moderate aerobic exercise.",
				"Avoid tobacco exposure and maintain healthy BMI.",
			},
			measurements: []string{
				"Home BP: weekly if history of hypertension, otherwise monthly.",
				"Weight and waist circumference monthly.",
			},
			consult: []string{
				"Primary care physician for preventive care as needed.",
			},
		},
		fusion.TierModerate: {
			precautions: []string{
				"Increase physical activity; aim for 150–300 minutes/week.",
				"Adopt Mediterranean-style diet; limit sodium to <2g/day.",
				"Target sleep 7–9 hours; manage stress with mindfulness.",
			},
			measurements: []string{
				"Check BP twice weekly for 2 weeks; track average.",
				"Fasting lipids and HbA1c at next visit if not done in 12 months.",
			},
			consult: []string{
				"Primary care for risk review; consider statin eligibility per guidelines.",
			},
		},
		fusion.TierElevated: {
			precautions: []string{
				"Prioritize BP, glucose, and lipid control; adhere to medications if prescribed.",
				"Reduce refined carbs and saturated fats; increase fiber and omega‑3 sources.",
				"Avoid smoking/vaping; limit alcohol to recommended amounts.",
			},
			measurements: []string{
				"Home BP daily for 1–2 weeks; bring log to clinic.",
				"Consider ambulatory BP monitoring if variability is high.",
			},
			consult: []string{
				"Schedule a clinician visit for cardiovascular risk optimization.",
				"Discuss need for echocardiogram or stress testing based on symptoms and history.",
			},
		},
		fusion.TierHigh: {
			precautions: []string{
				"Seek prompt clinical assessment, especially if chest pain, dyspnea, or syncope.",
				"Avoid strenuous exertion until cleared by clinician.",
				"Strict adherence to cardio‑protective medications if prescribed.",
			},
			measurements: []string{
				"Immediate BP/HR assessment; track vitals if advised.",
				"If acute symptoms, urgent evaluation including ECG and troponin per clinician.",
			},
			consult: []string{
				"Cardiologist consultation recommended.",
				"Emergency care if acute concerning symptoms occur.",
			},
		},
	}
)

// Resolve returns the bundle for tier. Tiers outside the table get the High
// bundle. The returned slices are owned by the caller.
func Resolve(tier fusion.Tier) Bundle {
	t, ok := byTier[tier]
	if !ok {
		t = byTier[fusion.TierHigh]
	}
	return Bundle{
		Precautions:  clone(t.precautions),
		Measurements: clone(t.measurements),
		Consult:      clone(t.consult),
		Diet:         clone(diet),
		Habits:       clone(habits),
	}
}

// Section is a titled list, in report order.
type Section struct {
	Title string
	Items []string
}

// Sections lists the bundle in the order reports print it.
func (b Bundle) Sections() []Section {
	return []Section{
		{Title: "Precautions", Items: b.Precautions},
		{Title: "Measurements to Track", Items: b.Measurements},
		{Title: "Who to Consult", Items: b.Consult},
		{Title: "Diet Suggestions", Items: b.Diet},
		{Title: "Healthy Habits", Items: b.Habits},
	}
}

const (
	normalAdvice = "Prediction suggests a normal ECG. If you have symptoms, consider a routine check-up. " +
		"General advice: maintain healthy lifestyle, periodic 12‑lead ECG if clinically indicated."
	abnormalAdvice = "Prediction suggests possible abnormality. Please consult a cardiologist. " +
		"Suggested tests: 12‑lead ECG, cardiac troponin (if acute symptoms), echocardiogram, " +
		"Holter monitoring, and/or exercise stress test as per clinical judgment. " +
		"If chest pain or severe symptoms, seek urgent care."
)

// SubmissionAdvice returns the advice paragraph for a single test report.
func SubmissionAdvice(v scoring.Verdict) string {
	if v == scoring.VerdictNormal {
		return normalAdvice
	}
	return abnormalAdvice
}

func clone(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
