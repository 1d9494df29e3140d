package export

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/jung-kurt/gofpdf"

	"aper/internal/domain/evaluation"
)

const ContentTypePDF = "application/pdf"

var sectionTitles = map[evaluation.SectionKind]string{
	evaluation.SectionEmployee:    "Part I - Employee",
	evaluation.SectionOfficer:     "Part II - Reporting Officer",
	evaluation.SectionCountersign: "Part III - Countersigning Officer",
}

// RenderPDF prints a composed view. Only the sections present in the view
// are printed, so the caller's visibility carries over to the document.
func RenderPDF(view evaluation.View) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("Annual Performance Evaluation Report", true)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Annual Performance Evaluation Report")
	pdf.Ln(12)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Record: %s", view.RecordID))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Status: %s", view.Status))
	pdf.Ln(6)
	pdf.Cell(0, 7, fmt.Sprintf("Due: %s", view.DueAt.Format("2006-01-02")))
	pdf.Ln(6)
	if view.SubmittedAt != nil {
		pdf.Cell(0, 7, fmt.Sprintf("Submitted: %s", view.SubmittedAt.Format("2006-01-02")))
		pdf.Ln(6)
	}

	for _, section := range view.Sections {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 9, sectionTitles[section.Kind])
		pdf.Ln(9)
		for _, group := range section.Groups {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.Cell(0, 7, group.Key)
			pdf.Ln(7)
			for _, field := range group.Fields {
				pdf.SetFont("Helvetica", "B", 10)
				pdf.CellFormat(60, 6, field.Key, "", 0, "L", false, 0, "")
				pdf.SetFont("Helvetica", "", 10)
				pdf.MultiCell(0, 6, tr(formatValue(field.Value)), "", "L", false)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		if val {
			return "yes"
		}
		return "no"
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return fmt.Sprint(val)
	}
}
