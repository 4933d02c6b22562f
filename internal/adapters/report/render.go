// Package report renders fused and per-submission reports as PDF and archives them.
package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/okian/heartfuse/internal/domain/fusion"
	"github.com/okian/heartfuse/internal/domain/guidance"
	"github.com/okian/heartfuse/internal/domain/model"
	"github.com/okian/heartfuse/internal/domain/scoring"
	"github.com/okian/heartfuse/internal/domain/types"
)

// Renderer produces report documents in memory.
type Renderer interface {
	RenderFusion(u model.User, res fusion.Result, g guidance.Bundle, generatedAt time.Time) ([]byte, error)
	RenderSubmission(u model.User, r model.PredictionRecord, generatedAt time.Time) ([]byte, error)
}

// Page geometry in points.
const (
	marginLeft   = 50.0
	marginTop    = 50.0
	marginBottom = 80.0
	bulletIndent = 10.0
)

// PDFRenderer lays reports out on A4 pages with the core Helvetica fonts.
type PDFRenderer struct {
	author string
}

// NewPDFRenderer creates a renderer.
func NewPDFRenderer(opts ...RenderOption) *PDFRenderer {
	r := &PDFRenderer{author: "Heart Health Assistant"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RenderOption configures a PDFRenderer.
type RenderOption func(*PDFRenderer)

// WithAuthor sets the document author metadata.
func WithAuthor(author string) RenderOption {
	return func(r *PDFRenderer) {
		if author != "" {
			r.author = author
		}
	}
}

// page wraps an fpdf document with the text translation the core fonts need.
type page struct {
	pdf *fpdf.Fpdf
	tr  func(string) string
}

func (r *PDFRenderer) newPage(title string, generatedAt time.Time) *page {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(marginLeft, marginTop, marginLeft)
	pdf.SetAutoPageBreak(true, marginBottom)
	// fixed dates and sorted catalog keep output reproducible
	pdf.SetCatalogSort(true)
	pdf.SetCreationDate(generatedAt)
	pdf.SetModificationDate(generatedAt)
	pdf.SetTitle(title, true)
	pdf.SetAuthor(r.author, true)
	pdf.SetCreator("heartfuse", true)
	pdf.AddPage()

	cp1252 := pdf.UnicodeTranslatorFromDescriptor("")
	p := &page{pdf: pdf, tr: func(s string) string {
		// U+2011 has no cp1252 code point
		return cp1252(strings.ReplaceAll(s, "‑", "-"))
	}}

	p.font("B", 16)
	p.line(25, title)
	p.font("", 10)
	p.line(20, generatedLine(generatedAt))
	return p
}

// generatedLine stamps a page in RFC 3339 UTC; the Z suffix names the zone.
func generatedLine(t time.Time) string {
	return "Generated: " + t.UTC().Format(time.RFC3339)
}

func (p *page) font(style string, size float64) { p.pdf.SetFont("Helvetica", style, size) }

func (p *page) line(h float64, s string) {
	p.pdf.SetX(marginLeft)
	p.pdf.MultiCell(0, h, p.tr(s), "", "L", false)
}

func (p *page) heading(s string) {
	p.font("B", 12)
	p.line(18, s)
	p.font("", 11)
}

func (p *page) bullet(s string) {
	p.pdf.SetX(marginLeft + bulletIndent)
	p.pdf.MultiCell(0, 12, p.tr("• "+s), "", "L", false)
}

func (p *page) gap(h float64) { p.pdf.Ln(h) }

func (p *page) bytes() ([]byte, error) {
	if err := p.pdf.Error(); err != nil {
		return nil, fmt.Errorf("layout: %w: %w", ErrRender, err)
	}
	var buf bytes.Buffer
	if err := p.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("output: %w: %w", ErrRender, err)
	}
	return buf.Bytes(), nil
}

// RenderFusion lays out the fused multi-modality report.
func (r *PDFRenderer) RenderFusion(u model.User, res fusion.Result, g guidance.Bundle, generatedAt time.Time) (out []byte, err error) {
	defer recoverRender(&err)

	p := r.newPage("Overall Heart Health Report", generatedAt)

	p.heading("Patient")
	p.line(14, "Name: "+u.FullName)
	p.line(14, "Email: "+u.Email)
	p.gap(6)

	p.heading("Fusion Summary")
	p.line(14, fmt.Sprintf("Overall Risk Score: %.3f", res.Overall))
	p.line(14, "Status: "+res.Status())
	p.gap(6)

	p.heading("Inputs Considered")
	p.font("", 10)
	for _, e := range res.Modalities {
		p.line(14, fmt.Sprintf("- %s: %s (score %.3f) at %s", e.Modality, e.Verdict, e.Score, e.Timestamp.UTC().Format(types.TimeLayout)))
	}
	p.gap(8)

	p.heading("Guidance")
	for _, sec := range g.Sections() {
		p.font("B", 11)
		p.line(14, sec.Title)
		p.font("", 10)
		for _, item := range sec.Items {
			p.bullet(item)
		}
		p.gap(8)
	}
	return p.bytes()
}

// RenderSubmission lays out the report for a single scored test.
func (r *PDFRenderer) RenderSubmission(u model.User, rec model.PredictionRecord, generatedAt time.Time) (out []byte, err error) {
	defer recoverRender(&err)

	n := scoring.Explain(rec.RawScore, rec.RawLabel)
	verdict := scoring.VerdictOf(n.Score)

	p := r.newPage("Heart Health Report", generatedAt)

	p.heading("Patient Details")
	p.line(16, "Name: "+u.FullName)
	p.line(16, "Email: "+u.Email)
	age := ""
	if rec.Age > 0 {
		age = fmt.Sprint(rec.Age)
	}
	p.line(16, fmt.Sprintf("Age: %s  Sex: %s", age, rec.Sex))
	p.gap(4)

	p.heading("Prediction")
	p.line(16, "Test: "+string(rec.Modality))
	p.line(16, "Source: "+rec.SourceName)
	p.line(16, "Top class: "+rec.RawLabel)
	p.line(16, "Normal/Abnormal: "+string(verdict))
	p.line(16, fmt.Sprintf("Score: %.3f", n.Score))
	if rec.Notes != "" {
		p.line(16, "Notes: "+rec.Notes)
	}
	p.gap(4)

	p.heading("Advice")
	p.line(14, guidance.SubmissionAdvice(verdict))
	return p.bytes()
}

func recoverRender(err *error) {
	if v := recover(); v != nil {
		*err = fmt.Errorf("%w: %v", ErrRender, v)
	}
}
