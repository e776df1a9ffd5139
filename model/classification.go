package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// FallbackSummary is the summary carried by the classification fallback.
const FallbackSummary = "Failed to categorize"

// Classification is the typed result of classifying one Item.
type Classification struct {
	Category    Category    `json:"category"`
	Subcategory Subcategory `json:"subcategory"`
	Summary     string      `json:"summary"`
	ActionItem  ActionItem  `json:"action_item"`
	DueDate     *Date       `json:"due_date"`
}

// FallbackClassification is returned whenever classification cannot produce a real result.
func FallbackClassification() Classification {
	return Classification{
		Category:    CategoryUnknown,
		Subcategory: SubcategoryNone,
		Summary:     FallbackSummary,
		ActionItem:  ActionNone,
	}
}

// IsFallback reports whether c is the classification fallback.
func (c Classification) IsFallback() bool {
	return c.Category == CategoryUnknown
}

const dateLayout = time.DateOnly

// dueDateLayouts are tried in order when reading dates written by a model.
var dueDateLayouts = []string{
	time.DateOnly,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"01/02/2006",
	"1/2/2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"02 Jan 2006",
}

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDueDate reads a free-form date. Empty strings and "null"/"none" style
// placeholders yield nil without an error.
func ParseDueDate(s string) (*Date, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "na":
		return nil, nil
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d := NewDate(t.Year(), t.Month(), t.Day())
			return &d, nil
		}
	}
	return nil, fmt.Errorf("unrecognized date %q", s)
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	d.Time = t
	return nil
}
