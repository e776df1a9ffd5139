package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/udaytamma/AiEmailAssistant/model"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	sectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	urgentStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Terminal renders doc for printing after a CLI run.
func Terminal(doc digeststore.Document) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("DAILY EMAIL DIGEST"))
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("%d emails, updated %s", doc.Metadata.TotalEmails, formatUpdated(doc.Metadata.LastUpdated))))
	b.WriteString("\n\n")

	terminalBucket(&b, "NEED ACTION", urgentStyle, doc.Digest.NeedAction)
	terminalBucket(&b, "FYI", sectionStyle, doc.Digest.FYI)

	b.WriteString(sectionStyle.Render(fmt.Sprintf("NEWSLETTERS (%d)", len(doc.Digest.Newsletters))))
	b.WriteString("\n")
	for _, n := range doc.Digest.Newsletters {
		fmt.Fprintf(&b, "  %s %s\n", n.Subject, mutedStyle.Render("from "+n.Sender))
		for _, p := range n.SummaryPoints {
			fmt.Fprintf(&b, "    • %s\n", p)
		}
	}
	b.WriteString("\n")

	if other := otherCounts(doc.CategorizedEmails); other != "" {
		b.WriteString(mutedStyle.Render(strings.TrimSpace(strings.ReplaceAll(other, "- ", ""))))
		b.WriteString("\n")
	}
	return b.String()
}

func terminalBucket(b *strings.Builder, title string, style lipgloss.Style, d model.BucketDigest) {
	b.WriteString(style.Render(fmt.Sprintf("%s (%d)", title, len(d.Items))))
	b.WriteString("\n")
	for _, p := range d.Summary {
		fmt.Fprintf(b, "  • %s\n", p)
	}
	for _, it := range d.Items {
		line := fmt.Sprintf("    - %s (%s)", it.Subject, it.Sender)
		if it.DueDate != nil {
			line += " due " + it.DueDate.String()
		}
		b.WriteString(mutedStyle.Render(line))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
