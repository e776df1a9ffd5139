package model

// BucketDigest is one summarized bucket of the digest.
type BucketDigest struct {
	Items   []CategorizedItem `json:"items"`
	Summary []string          `json:"summary"`
}

// NewsletterDigest is the per-newsletter entry of the digest.
type NewsletterDigest struct {
	ID            string   `json:"id"`
	Subject       string   `json:"subject"`
	Sender        string   `json:"sender"`
	SummaryPoints []string `json:"summary_points"`
}

// DigestResult is the output of one pipeline run. Marketing, SPAM and Unknown
// items are not summarized; they stay available in the full classified set.
type DigestResult struct {
	NeedAction  BucketDigest       `json:"need_action"`
	FYI         BucketDigest       `json:"fyi"`
	Newsletters []NewsletterDigest `json:"newsletters"`
}

// GroupByCategory splits items into buckets preserving their relative order.
func GroupByCategory(items []CategorizedItem) map[Category][]CategorizedItem {
	groups := make(map[Category][]CategorizedItem)
	for _, it := range items {
		groups[it.Category] = append(groups[it.Category], it)
	}
	return groups
}
