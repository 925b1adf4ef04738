package report

import (
	"context"
	"strings"

	"github.com/anstrom/nmapanalysis/internal/analysis"
	"github.com/anstrom/nmapanalysis/internal/llm"
	"github.com/anstrom/nmapanalysis/internal/logging"
	"github.com/anstrom/nmapanalysis/internal/scanning"
)

const (
	systemPrompt = "### Nmap Scan Analysis\n" +
		"You are a network security consultant that has been tasked with analysing open ports and services provided by the user."

	instructionPrompt = "Create a markdown formatted report findings that will be added to a formal security report. " +
		"Pay attention to ports and services that may be targeted by an attacker. " +
		"Your response has to confirm with the following requirements: " +
		"include a Description section that concisely describes the nature of open ports (do not hyperfocus on risk), " +
		"include a Risk section that details the risk of identified ports and services, " +
		"include a Remediation section from the perspective of IP allow/deny lists, monitoring and alerting safeguards " +
		"and 'air gapping' if services are highly sensitive such as ICS/OT.\n"
)

// BuildPrompt assembles the analysis prompt around a statistics summary. A
// non-empty context is appended as an extra "Context:" paragraph.
func BuildPrompt(statsSummary, userContext string) string {
	var b strings.Builder
	b.WriteString(systemPrompt)
	b.WriteString(instructionPrompt)
	b.WriteString("Identified ports and services below:\n")
	b.WriteString(statsSummary)
	b.WriteString("\n\n")
	if userContext != "" {
		b.WriteString("Context: ")
		b.WriteString(userContext)
		b.WriteString("\n\n")
	}
	return b.String()
}

// Narrative is a generated analysis of one scan together with the material
// it was generated from.
type Narrative struct {
	Text     string
	Stats    *analysis.Statistics
	Summary  string
	Table    string
	Markdown string
}

// Narrator produces narrative reports through a text generator.
type Narrator struct {
	generator llm.Generator
	logger    *logging.Logger
}

// NewNarrator creates a Narrator backed by generator.
func NewNarrator(generator llm.Generator, logger *logging.Logger) *Narrator {
	if logger == nil {
		logger = logging.Default()
	}
	return &Narrator{generator: generator, logger: logger}
}

// Generate summarizes scan, asks the generator for an analysis and composes
// the markdown document. A generator failure is returned as is.
func (n *Narrator) Generate(ctx context.Context, scan *scanning.ScanResult, userContext string) (*Narrative, error) {
	stats := analysis.Calculate(scan)
	summary := stats.Summary()
	table := MarkdownTable(scan)

	n.logger.Debug("Requesting narrative", "hosts", stats.TotalHosts, "services", len(stats.Services),
		"has_context", userContext != "")

	text, err := n.generator.Generate(ctx, BuildPrompt(summary, userContext))
	if err != nil {
		return nil, err
	}

	return &Narrative{
		Text:     text,
		Stats:    stats,
		Summary:  summary,
		Table:    table,
		Markdown: ComposeMarkdown(text, summary, table),
	}, nil
}
