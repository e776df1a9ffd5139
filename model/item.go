package model

// Item is one mailbox message as returned by the fetch step. Immutable once fetched.
type Item struct {
	ID          string `json:"id"`
	Sender      string `json:"sender"`
	Subject     string `json:"subject"`
	PreviewText string `json:"preview_text"`
	ReceivedAt  string `json:"received_at"`
}

// CategorizedItem is an Item merged with its Classification.
type CategorizedItem struct {
	Item
	Classification
}

// Categorize merges item and classification.
func Categorize(item Item, c Classification) CategorizedItem {
	return CategorizedItem{Item: item, Classification: c}
}

// DisplaySummary is the one-line text used when this item represents itself in a list:
// its classification summary, or its subject when there is no usable summary.
func (ci CategorizedItem) DisplaySummary() string {
	if ci.Summary != "" && ci.Summary != FallbackSummary {
		return ci.Summary
	}
	return ci.Subject
}

// IDs returns the identifiers of items in order.
func IDs(items []CategorizedItem) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}
