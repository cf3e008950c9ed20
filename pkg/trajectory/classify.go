package trajectory

import (
	"encoding/json"
	"fmt"
)

// LargeSequenceLen is the item count above which a classified sequence must
// be delivered asynchronously so the caller can surface a busy state first.
// Sequences at or below this length are delivered synchronously.
const LargeSequenceLen = 500

// Shape tags the container form Classify detected.
type Shape int

const (
	// ShapeItems is the canonical flat sequence of timeline items.
	ShapeItems Shape = iota

	// ShapeEntries is an object carrying an "entries" sequence; the whole
	// object is passed through unchanged for a downstream consumer.
	ShapeEntries

	// ShapeOpaque is anything else; the consumer must attempt its own
	// interpretation (metrics display, raw dump).
	ShapeOpaque
)

func (s Shape) String() string {
	switch s {
	case ShapeItems:
		return "items"
	case ShapeEntries:
		return "entries"
	default:
		return "opaque"
	}
}

// Normalized is the result of classifying a parsed trajectory payload.
type Normalized struct {
	Shape Shape

	// Items is populated for ShapeItems.
	Items []Item

	// Canonical reports whether the sequence already carried the normalized
	// item shape (first element with action+source or observation+source).
	Canonical bool

	// Value retains the original parsed payload for ShapeEntries and
	// ShapeOpaque.
	Value any
}

// Classify determines which known trajectory container shape a parsed JSON
// value is in and normalizes it to the canonical representation. Decision
// order, first match wins:
//
//  1. a sequence whose first element has action+source or observation+source
//     is already normalized and is returned as-is
//  2. any other sequence passes through; the item-level fallback absorbs it
//  3. an object with an "entries" sequence is returned unchanged
//  4. an object with a "history" sequence is unwrapped one level
//  5. anything else is returned unchanged as an opaque value
//
// Classify never fails: syntactically invalid JSON must be rejected by the
// caller before parsing reaches this point.
func Classify(parsed any) Normalized {
	if seq, ok := parsed.([]any); ok {
		return Normalized{
			Shape:     ShapeItems,
			Items:     itemsFromSequence(seq),
			Canonical: isNormalizedSequence(seq),
		}
	}

	obj, ok := parsed.(map[string]any)
	if !ok {
		return Normalized{Shape: ShapeOpaque, Value: parsed}
	}

	if entries, ok := obj["entries"].([]any); ok && entries != nil {
		return Normalized{Shape: ShapeEntries, Value: obj}
	}

	if history, ok := obj["history"].([]any); ok {
		return Normalized{
			Shape:     ShapeItems,
			Items:     itemsFromSequence(history),
			Canonical: isNormalizedSequence(history),
		}
	}

	return Normalized{Shape: ShapeOpaque, Value: obj}
}

// ParseJSON decodes raw bytes and classifies the result. The error carries
// the underlying decoder message so callers can report parse failures
// verbatim.
func ParseJSON(data []byte) (Normalized, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Normalized{}, fmt.Errorf("parsing trajectory JSON: %w", err)
	}
	return Classify(parsed), nil
}

// isNormalizedSequence probes the first element for the already-normalized
// item shape.
func isNormalizedSequence(seq []any) bool {
	if len(seq) == 0 {
		return false
	}

	first, ok := seq[0].(map[string]any)
	if !ok {
		return false
	}

	_, hasSource := first["source"]
	if !hasSource {
		return false
	}

	_, hasAction := first["action"]
	_, hasObservation := first["observation"]
	return hasAction || hasObservation
}

func itemsFromSequence(seq []any) []Item {
	items := make([]Item, len(seq))
	for i, v := range seq {
		items[i] = ItemFromValue(v)
	}
	return items
}
