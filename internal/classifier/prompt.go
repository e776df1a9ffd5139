package classifier

import (
	"fmt"
	"strings"

	"github.com/udaytamma/AiEmailAssistant/model"
)

func buildPrompt(item model.Item) string {
	return fmt.Sprintf(`Analyze the following email and respond ONLY with a valid JSON object (no markdown, no code blocks, just pure JSON):

From: %s
Subject: %s
Content: %s

Respond with this exact JSON structure:
{
  "category": "<one of: %s>",
  "subcategory": "<one of: %s>",
  "summary": "<one sentence summary>",
  "action_item": "<one of: %s>",
  "due_date": "<YYYY-MM-DD if applicable, otherwise null>"
}

Classification Rules:
- Need-Action: Requires user response (bills, important tasks)
- FYI: Information only (receipts, updates, confirmations, package delivery updates, online orders)
- Marketing: Promotional content
- Newsletter: Newsletters
- SPAM: Unwanted content, suspicious emails

Only return the JSON object, nothing else.`,
		item.Sender,
		item.Subject,
		item.PreviewText,
		join(model.Categories),
		join(model.Subcategories[:len(model.Subcategories)-1]),
		join(model.ActionItems),
	)
}

func join[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, ", ")
}
