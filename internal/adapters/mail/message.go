package mail

import (
	"fmt"
	"strings"
	"time"
)

// Message is one outbound report e-mail with a single PDF attachment.
// Attachment holds the rendered document as archived.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// FusionMessage composes the e-mail for a fused report.
func FusionMessage(to, displayName string, overall float64, status, name string, pdf []byte) Message {
	body := strings.Join([]string{
		fmt.Sprintf("Dear %s,", displayName),
		"",
		"Please find attached your overall heart health fusion report.",
		"",
		fmt.Sprintf("Overall Risk Score: %.3f", overall),
		"Status: " + status,
		"",
		"This report is for informational purposes and not a medical diagnosis.",
		"Please consult a licensed clinician for medical advice.",
	}, "\n")
	return Message{
		To:             to,
		Subject:        "Your Overall Heart Health Report",
		Body:           body,
		Attachment:     pdf,
		AttachmentName: name,
	}
}

// SubmissionMessage composes the e-mail for a single test report of the
// given modality.
func SubmissionMessage(to, displayName, modality, verdict string, score float64, at time.Time, advice, name string, pdf []byte) Message {
	body := strings.Join([]string{
		fmt.Sprintf("Dear %s,", displayName),
		"",
		"Thank you for using the Heart Health Assistant. Please find attached your " + modality + " prediction report.",
		"",
		"Summary:",
		"  - Result: " + verdict,
		fmt.Sprintf("  - Score: %.3f", score),
		"  - Date: " + at.UTC().Format("2006-01-02 15:04:05") + " UTC",
		"",
		"Advice:",
		"  " + advice,
		"",
		"This report is provided for informational triage and is not a medical diagnosis.",
		"Please consult a qualified clinician for medical advice.",
		"",
		"Best regards,",
		"Heart Health Assistant",
		"",
		"Note: This is an automated message. Please do not reply to this email.",
	}, "\n")
	return Message{
		To:             to,
		Subject:        "Your " + modality + " Prediction Report",
		Body:           body,
		Attachment:     pdf,
		AttachmentName: name,
	}
}
