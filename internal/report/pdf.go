package report

import (
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

const (
	pdfFont       = "Arial"
	pdfLineHeight = 6.0
)

// WriteNarrativePDF renders a narrative, its statistics and the per-host
// port table to a PDF at path.
func WriteNarrativePDF(path string, n *Narrative, scan *scanning.ScanResult, meta Metadata) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetAuthor("nmapanalysis", true)
	pdf.SetTitle("Nmap Analysis Report", true)
	pdf.SetSubject("Open port and service analysis", true)
	pdf.SetKeywords("report-id:"+meta.ReportID, true)
	pdf.SetCreationDate(meta.Generated)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(pdfFont, "B", 15)
		pdf.Cell(0, 10, "Nmap Analysis Report")
		pdf.Ln(15)
	})

	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(pdfFont, "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Report %s - Page %d / {nb}", meta.ReportID, pdf.PageNo()),
			"", 0, "C", false, 0, "")
	})

	pdf.AliasNbPages("{nb}")
	pdf.AddPage()

	pdf.SetFont(pdfFont, "I", 10)
	pdf.Cell(0, 10, fmt.Sprintf("Generated: %s", meta.Generated.Format("2006-01-02 15:04:05")))
	pdf.Ln(12)

	writeMarkdownBlock(pdf, tr, n.Text)

	section(pdf, "Port/Service Stats")
	writeMarkdownBlock(pdf, tr, n.Summary)

	section(pdf, "Detailed Port/Service Table")
	writeHostTable(pdf, tr, scan)

	if err := ensureDir(FormatPDF, path); err != nil {
		return err
	}
	if err := pdf.OutputFileAndClose(path); err != nil {
		return errors.WrapReportError(errors.CodeReportWrite, FormatPDF, path, err)
	}
	return nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(4)
	pdf.SetFont(pdfFont, "B", 12)
	pdf.Cell(0, 10, title)
	pdf.Ln(10)
}

// writeMarkdownBlock prints markdown text line by line. Headings are set in
// bold; every other line is wrapped as plain text.
func writeMarkdownBlock(pdf *gofpdf.Fpdf, tr func(string) string, text string) {
	for _, line := range strings.Split(strings.TrimSpace(text), "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			pdf.Ln(pdfLineHeight / 2)
		case strings.HasPrefix(trimmed, "#"):
			pdf.SetFont(pdfFont, "B", 11)
			pdf.MultiCell(0, pdfLineHeight+1, tr(strings.TrimSpace(strings.TrimLeft(trimmed, "#"))), "", "L", false)
		default:
			pdf.SetFont(pdfFont, "", 10)
			pdf.MultiCell(0, pdfLineHeight, tr(strings.ReplaceAll(trimmed, "**", "")), "", "L", false)
		}
	}
}

func writeHostTable(pdf *gofpdf.Fpdf, tr func(string) string, scan *scanning.ScanResult) {
	headers := []string{"IP Address", "Port/Protocol", "Service"}
	widths := []float64{60, 50, 70}

	pdf.SetFont(pdfFont, "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 8, h, "1", 0, "", true, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont(pdfFont, "", 10)
	fill := false
	for addr, ports := range scan.All() {
		for _, ps := range ports {
			pdf.CellFormat(widths[0], 8, tr(addr), "1", 0, "", fill, 0, "")
			pdf.CellFormat(widths[1], 8, tr(ps.Port), "1", 0, "", fill, 0, "")
			pdf.CellFormat(widths[2], 8, tr(ps.Service), "1", 0, "", fill, 0, "")
			pdf.Ln(8)
			fill = !fill
		}
	}
}
