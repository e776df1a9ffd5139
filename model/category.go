package model

import "strings"

// Category is the top-level triage bucket of an item.
type Category string

const (
	CategoryNeedAction Category = "Need-Action"
	CategoryFYI        Category = "FYI"
	CategoryNewsletter Category = "Newsletter"
	CategoryMarketing  Category = "Marketing"
	CategorySpam       Category = "SPAM"
	// CategoryUnknown is produced only by the classification fallback.
	CategoryUnknown Category = "Unknown"
)

// Categories lists the buckets a model reply may legitimately name.
var Categories = []Category{
	CategoryNeedAction,
	CategoryFYI,
	CategoryNewsletter,
	CategoryMarketing,
	CategorySpam,
}

// ParseCategory maps a model-produced label onto a Category.
// Matching ignores case, spaces, dashes and underscores, and accepts a trailing plural "s".
// Unknown is never returned as a successful parse.
func ParseCategory(s string) (Category, bool) {
	norm := normalizeLabel(s)
	if norm == "" {
		return CategoryUnknown, false
	}
	for _, c := range Categories {
		label := normalizeLabel(string(c))
		if norm == label || norm == label+"s" {
			return c, true
		}
	}
	return CategoryUnknown, false
}

// Subcategory refines a Category.
type Subcategory string

const (
	SubcategoryBillDue           Subcategory = "Bill-Due"
	SubcategoryCreditCardPayment Subcategory = "Credit-Card-Payment"
	SubcategoryServiceChange     Subcategory = "Service-Change"
	SubcategoryPackageTracker    Subcategory = "Package-Tracker"
	SubcategoryJobAlert          Subcategory = "JobAlert"
	SubcategoryGeneral           Subcategory = "General"
	SubcategoryNone              Subcategory = "None"
)

var Subcategories = []Subcategory{
	SubcategoryBillDue,
	SubcategoryCreditCardPayment,
	SubcategoryServiceChange,
	SubcategoryPackageTracker,
	SubcategoryJobAlert,
	SubcategoryGeneral,
	SubcategoryNone,
}

// ParseSubcategory returns General for labels outside the known set.
func ParseSubcategory(s string) Subcategory {
	norm := normalizeLabel(s)
	for _, sc := range Subcategories {
		if norm == normalizeLabel(string(sc)) {
			return sc
		}
	}
	return SubcategoryGeneral
}

// ActionItem is the follow-up the classifier suggests for an item.
type ActionItem string

const (
	ActionAddToCalendar ActionItem = "AddToCalendar"
	ActionAddToNotes    ActionItem = "AddToNotes"
	ActionUnsubscribe   ActionItem = "Unsubscribe"
	ActionDelete        ActionItem = "Delete"
	ActionNone          ActionItem = "None"
)

var ActionItems = []ActionItem{
	ActionAddToCalendar,
	ActionAddToNotes,
	ActionUnsubscribe,
	ActionDelete,
	ActionNone,
}

// ParseActionItem returns None for labels outside the known set.
func ParseActionItem(s string) ActionItem {
	norm := normalizeLabel(s)
	for _, a := range ActionItems {
		if norm == normalizeLabel(string(a)) {
			return a
		}
	}
	return ActionNone
}

func normalizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
