package summarizer

import (
	"fmt"
	"strings"

	"github.com/udaytamma/AiEmailAssistant/model"
)

func aggregatePrompt(bucket model.Category, members []model.CategorizedItem, maxMembers, maxPoints int) string {
	if len(members) > maxMembers {
		members = members[:maxMembers]
	}

	var lines strings.Builder
	for _, m := range members {
		fmt.Fprintf(&lines, "- %s (from %s): %s\n", m.Subject, m.Sender, memberSummary(m))
	}

	return fmt.Sprintf(`Analyze the following %s emails and create a consolidated bullet point summary.

Emails:
%s
Respond ONLY with a JSON object containing bullet points (up to %d key points):
{
  "summary_points": ["<point 1>", "<point 2>", "<point 3>", ...]
}

Each bullet point should:
- Highlight the most important or urgent items
- Group similar items together when applicable
- Be clear and actionable

Only return the JSON object, nothing else.`, bucket, lines.String(), maxPoints)
}

func newsletterPrompt(subject, body string) string {
	return fmt.Sprintf(`Analyze the following newsletter email and create a concise 3-bullet point summary.

Subject: %s

Email Content:
%s

Respond ONLY with a JSON object containing exactly 3 bullet points:
{
  "bullet1": "<first key point>",
  "bullet2": "<second key point>",
  "bullet3": "<third key point>"
}

Each bullet point should be:
- One clear, informative sentence
- Capture the main topics or insights
- Be specific and actionable when possible

Only return the JSON object, nothing else.`, subject, body)
}

func memberSummary(m model.CategorizedItem) string {
	if m.Summary == "" || m.IsFallback() {
		return "No summary available"
	}
	return m.Summary
}

func trimBullet(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimLeft(s, "-*• ")
	return strings.TrimSpace(s)
}
