package trajectory

// observationNullLiteral matches an upstream serialization quirk where a
// missing observation is emitted as the string "null". Only the literal
// string is dropped; a JSON null observation decodes to an empty field and
// must survive the filter (it lands in the unknown renderer instead).
const observationNullLiteral = "null"

// Prefilter removes noise items before dispatch: agent state changes and
// items with the stringified-null observation. This runs on the full
// sequence, separate from the per-item predicate chain, because the
// displayed item count is the post-filter count.
func Prefilter(items []Item) []Item {
	filtered := make([]Item, 0, len(items))
	for _, item := range items {
		if item.Action == "change_agent_state" {
			continue
		}
		if item.Observation == observationNullLiteral {
			continue
		}
		filtered = append(filtered, item)
	}
	return filtered
}
