// Package render turns a digest document into Markdown, an HTML dashboard page or terminal text.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/udaytamma/AiEmailAssistant/internal/digeststore"
	"github.com/udaytamma/AiEmailAssistant/internal/shared/bytes"
	"github.com/udaytamma/AiEmailAssistant/model"
)

const timeLayout = "2006-01-02 15:04 MST"

var mdEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"_", `\_`,
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
	"{", `\{`,
	"}", `\}`,
)

func escape(s string) string {
	return mdEscaper.Replace(strings.TrimSpace(s))
}

// Markdown renders doc as a Markdown document. Headings carry stable ids derived from
// their content so that links into the dashboard survive re-renders.
func Markdown(doc digeststore.Document) string {
	var b strings.Builder

	b.WriteString("# Daily Digest\n\n")
	if !doc.Metadata.LastUpdated.IsZero() {
		fmt.Fprintf(&b, "_Updated %s, %d emails, %.2fs_\n\n",
			doc.Metadata.LastUpdated.Format(timeLayout), doc.Metadata.TotalEmails, doc.Metadata.ExecutionTime)
	}

	writeBucket(&b, "Need Action", "need-action", doc.Digest.NeedAction)
	writeBucket(&b, "FYI", "fyi", doc.Digest.FYI)

	b.WriteString("## Newsletters {#newsletters}\n\n")
	if len(doc.Digest.Newsletters) == 0 {
		b.WriteString("No newsletters.\n\n")
	}
	for _, n := range doc.Digest.Newsletters {
		fmt.Fprintf(&b, "### %s {#nl-%s}\n\n", escape(n.Subject), bytes.ShortID(n.ID))
		fmt.Fprintf(&b, "_from %s_\n\n", escape(n.Sender))
		writePoints(&b, n.SummaryPoints)
	}

	if other := otherCounts(doc.CategorizedEmails); other != "" {
		b.WriteString("## Other {#other}\n\n")
		b.WriteString(other)
		b.WriteString("\n")
	}
	return b.String()
}

func writeBucket(b *strings.Builder, title, id string, d model.BucketDigest) {
	fmt.Fprintf(b, "## %s (%d) {#%s}\n\n", title, len(d.Items), id)
	if len(d.Items) == 0 {
		b.WriteString("Nothing here.\n\n")
		return
	}
	writePoints(b, d.Summary)

	for _, it := range d.Items {
		fmt.Fprintf(b, "- **%s** (%s)", escape(it.Subject), escape(it.Sender))
		if it.Subcategory != "" && it.Subcategory != model.SubcategoryNone {
			fmt.Fprintf(b, " `%s`", it.Subcategory)
		}
		if it.DueDate != nil {
			fmt.Fprintf(b, " due %s", it.DueDate)
		}
		if s := it.DisplaySummary(); s != it.Subject {
			fmt.Fprintf(b, ": %s", escape(s))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writePoints(b *strings.Builder, points []string) {
	for _, p := range points {
		fmt.Fprintf(b, "- %s\n", escape(p))
	}
	if len(points) > 0 {
		b.WriteString("\n")
	}
}

// otherCounts lists how many items of the unsummarized categories were seen.
func otherCounts(items []model.CategorizedItem) string {
	counts := make(map[model.Category]int)
	for _, it := range items {
		counts[it.Category]++
	}

	var b strings.Builder
	for _, c := range []model.Category{model.CategoryMarketing, model.CategorySpam, model.CategoryUnknown} {
		if n := counts[c]; n > 0 {
			fmt.Fprintf(&b, "- %s: %d\n", c, n)
		}
	}
	return b.String()
}

func formatUpdated(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format(timeLayout)
}
