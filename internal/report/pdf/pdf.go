// Package pdf renders weekly reports as PDF documents with go-pdf/fpdf.
//
// Two modes:
//   - With a TrueType font (REPORT_FONT_PATH): the font is embedded as UTF-8,
//     the page runs right-to-left, labels are Arabic and dates use
//     Eastern-Arabic digits. Glyph shaping is left to the font.
//   - Without one: core Helvetica, English labels, ISO dates. Text outside
//     cp1252 is replaced by the core-font translator.
package pdf

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/sakif/weekly-notes/internal/model"
	"github.com/sakif/weekly-notes/internal/report"
	"github.com/sakif/weekly-notes/internal/week"
)

const (
	fontFamily = "report"
	margin     = 15.0
	lineHeight = 6.0
)

var _ report.Formatter = (*Formatter)(nil)

type labels struct {
	title  string
	user   string
	rangeF string // "From %s to %s"
	date   string
	notes  string
	points string
}

var (
	arabicLabels = labels{
		title:  "الملاحظات الأسبوعية",
		user:   "المستخدم: %s",
		rangeF: "من %s إلى %s",
		date:   "التاريخ: %s",
		notes:  "الملاحظات:",
		points: "النقاط: %d",
	}
	englishLabels = labels{
		title:  "Weekly Notes",
		user:   "User: %s",
		rangeF: "From %s to %s",
		date:   "Date: %s",
		notes:  "Notes:",
		points: "Points: %d",
	}
)

// Formatter renders reports to PDF. It is safe for concurrent use: each
// Render builds its own document.
type Formatter struct {
	font []byte // UTF-8 TrueType font, nil for core-font mode
}

// New returns a Formatter. fontPath may be empty; a non-empty path must
// point to a readable TrueType font.
func New(fontPath string) (*Formatter, error) {
	if fontPath == "" {
		return &Formatter{}, nil
	}
	font, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("pdf: reading report font: %w", err)
	}
	return &Formatter{font: font}, nil
}

func (f *Formatter) ContentType() string { return "application/pdf" }

// FileName is the download name, weekly-notes-<userId>.pdf.
func (f *Formatter) FileName(r report.Report) string {
	return "weekly-notes-" + r.UserID + ".pdf"
}

// Render writes the whole document to w. Nothing is written if the
// document fails to build.
func (f *Formatter) Render(w io.Writer, r report.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetMargins(margin, margin, margin)
	doc.SetAutoPageBreak(true, margin)

	l := englishLabels
	align := "L"
	text := doc.UnicodeTranslatorFromDescriptor("")
	formatDate := func(t time.Time) string { return week.Format(t) }

	if f.font != nil {
		doc.AddUTF8FontFromBytes(fontFamily, "", f.font)
		doc.SetFont(fontFamily, "", 12)
		doc.RTL()
		l = arabicLabels
		align = "R"
		text = func(s string) string { return s }
		formatDate = arabicDate
	} else {
		doc.SetFont("Helvetica", "", 12)
	}
	doc.SetTitle(l.title, true)
	doc.AddPage()

	pageW, _ := doc.GetPageSize()
	width := pageW - 2*margin
	line := func(size float64, s string) {
		doc.SetFontSize(size)
		doc.MultiCell(width, lineHeight, text(s), "", align, false)
	}

	line(16, l.title)
	doc.Ln(2)
	if r.UserName != "" {
		line(12, fmt.Sprintf(l.user, r.UserName))
	}
	line(12, fmt.Sprintf(l.rangeF, formatDate(r.From), formatDate(r.To)))
	doc.Ln(4)

	doc.SetDrawColor(0xcc, 0xcc, 0xcc)
	doc.SetLineWidth(0.5)
	for _, e := range r.Entries {
		line(12, fmt.Sprintf(l.date, formatDate(entryDate(e))))
		line(10, l.notes)
		for _, c := range e.Categories {
			line(10, "  "+c)
		}
		line(10, fmt.Sprintf(l.points, e.Points))

		doc.Ln(2)
		y := doc.GetY()
		doc.Line(margin, y, pageW-margin, y)
		doc.Ln(4)
	}

	if err := doc.Error(); err != nil {
		return fmt.Errorf("pdf: building report: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("pdf: writing report: %w", err)
	}
	return nil
}

// entryDate is the note's calendar date, or its creation day if the stored
// date is unreadable.
func entryDate(n model.Note) time.Time {
	if d, err := week.ParseDate(n.Date); err == nil {
		return d
	}
	return week.DateOf(n.CreatedAt)
}

var easternDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// arabicDate formats t as d/m/yyyy in Eastern-Arabic digits, the way the
// ar-EG locale prints dates.
func arabicDate(t time.Time) string {
	s := strconv.Itoa(t.Day()) + "/" + strconv.Itoa(int(t.Month())) + "/" + strconv.Itoa(t.Year())
	return easternDigits.Replace(s)
}
