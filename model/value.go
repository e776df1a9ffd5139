package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyValue   = errors.New("cache value holds no variant")
	ErrUnknownValue = errors.New("cache value has an unrecognized shape")
)

// Kind tells which variant a Value holds.
type Kind uint8

const (
	KindNone Kind = iota
	KindItem
	KindAggregate
)

func (k Kind) String() string {
	switch k {
	case KindItem:
		return "item"
	case KindAggregate:
		return "aggregate"
	default:
		return "none"
	}
}

// ItemRecord is what the cache keeps under an item id: the classified item
// and, for newsletters, the bullet summary of its body once generated.
type ItemRecord struct {
	CategorizedItem
	NewsletterSummary []string `json:"newsletter_summary,omitempty"`
}

// AggregateSummary is what the cache keeps under an aggregate key.
type AggregateSummary struct {
	Points []string `json:"summary"`
}

// Value is the payload of a cache entry. Exactly one variant is set.
type Value struct {
	item      *ItemRecord
	aggregate *AggregateSummary
}

func ItemValue(r ItemRecord) Value {
	return Value{item: &r}
}

func AggregateValue(points []string) Value {
	return Value{aggregate: &AggregateSummary{Points: points}}
}

func (v Value) Kind() Kind {
	switch {
	case v.item != nil:
		return KindItem
	case v.aggregate != nil:
		return KindAggregate
	default:
		return KindNone
	}
}

// Item returns a copy of the item variant.
func (v Value) Item() (ItemRecord, bool) {
	if v.item == nil {
		return ItemRecord{}, false
	}
	return *v.item, true
}

// Aggregate returns a copy of the aggregate variant.
func (v Value) Aggregate() (AggregateSummary, bool) {
	if v.aggregate == nil {
		return AggregateSummary{}, false
	}
	return *v.aggregate, true
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindItem:
		return json.Marshal(v.item)
	case KindAggregate:
		return json.Marshal(v.aggregate)
	default:
		return nil, ErrEmptyValue
	}
}

// UnmarshalJSON recognizes the persisted shapes: an object carrying "category"
// is an item record, an object whose "summary" is an array is an aggregate.
func (v *Value) UnmarshalJSON(data []byte) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return fmt.Errorf("decode cache value: %w", err)
	}

	if _, ok := probe["category"]; ok {
		var r ItemRecord
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("decode item record: %w", err)
		}
		*v = Value{item: &r}
		return nil
	}

	if raw, ok := probe["summary"]; ok && bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
		var a AggregateSummary
		if err := json.Unmarshal(data, &a); err != nil {
			return fmt.Errorf("decode aggregate summary: %w", err)
		}
		*v = Value{aggregate: &a}
		return nil
	}

	return ErrUnknownValue
}
