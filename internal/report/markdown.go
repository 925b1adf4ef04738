package report

import (
	"os"
	"strings"

	"github.com/anstrom/nmapanalysis/internal/errors"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

const markdownTableHeader = "IP Address | Port/Protocol | Service\n--- | --- | ---\n"

// MarkdownTable renders every (host, port, service) of scan as a pipe table,
// one line per pair in host order.
func MarkdownTable(scan *scanning.ScanResult) string {
	var b strings.Builder
	b.WriteString(markdownTableHeader)
	for addr, ports := range scan.All() {
		for _, ps := range ports {
			b.WriteString(addr)
			b.WriteString(" | ")
			b.WriteString(ps.Port)
			b.WriteString(" | ")
			b.WriteString(ps.Service)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ComposeMarkdown joins the generated narrative, the statistics summary and
// the detailed table into the final report document.
func ComposeMarkdown(narrative, stats, table string) string {
	return narrative +
		"\n\n---\n\n### Port/Service Stats\n\n" + stats +
		"\n\n---\n\n### Detailed Port/Service Table\n\n" + table
}

// WriteMarkdown writes a composed markdown document to path.
func WriteMarkdown(path, content string) error {
	if err := ensureDir(FormatMarkdown, path); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), filePerm); err != nil {
		return errors.WrapReportError(errors.CodeReportWrite, FormatMarkdown, path, err)
	}
	return nil
}
