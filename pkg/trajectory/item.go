// Package trajectory classifies agent trajectory payloads into a canonical
// timeline of items and resolves each item to the renderer responsible for it.
package trajectory

// Kind identifies which renderer a timeline item resolves to.
type Kind int

const (
	KindUnknown Kind = iota
	KindAgentStateChange
	KindUserMessage
	KindAssistantMessage
	KindCommandAction
	KindCommandObservation
	KindIPythonAction
	KindIPythonObservation
	KindFinishAction
	KindErrorObservation
	KindReadAction
	KindReadObservation
	KindEditAction
	KindEditObservation
)

var kindNames = map[Kind]string{
	KindUnknown:            "unknown",
	KindAgentStateChange:   "agent_state_change",
	KindUserMessage:        "user_message",
	KindAssistantMessage:   "assistant_message",
	KindCommandAction:      "command_action",
	KindCommandObservation: "command_observation",
	KindIPythonAction:      "ipython_action",
	KindIPythonObservation: "ipython_observation",
	KindFinishAction:       "finish_action",
	KindErrorObservation:   "error_observation",
	KindReadAction:         "read_action",
	KindReadObservation:    "read_observation",
	KindEditAction:         "edit_action",
	KindEditObservation:    "edit_observation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Item is a single timeline entry parsed from untyped trajectory JSON.
// Field values are extracted when the decoded element is an object; the
// original decoded value is always retained in Value so the unknown renderer
// can fall back to a raw dump.
type Item struct {
	Role        string         `json:"role,omitempty"`
	Source      string         `json:"source,omitempty"`
	Action      string         `json:"action,omitempty"`
	Observation string         `json:"observation,omitempty"`
	Content     string         `json:"content,omitempty"`
	Args        map[string]any `json:"args,omitempty"`
	Extras      map[string]any `json:"extras,omitempty"`
	Value       any            `json:"-"`
}

// ItemFromValue builds an Item from one decoded sequence element.
// A JSON null observation decodes to nil and leaves Observation empty;
// only the literal string "null" produces Observation == "null".
func ItemFromValue(v any) Item {
	item := Item{Value: v}

	m, ok := v.(map[string]any)
	if !ok {
		return item
	}

	item.Role = stringField(m, "role")
	item.Source = stringField(m, "source")
	item.Action = stringField(m, "action")
	item.Observation = stringField(m, "observation")
	item.Content = stringField(m, "content")
	item.Args = mapField(m, "args")
	item.Extras = mapField(m, "extras")

	return item
}

// Arg returns the string value of a named argument, or "" when absent.
func (i Item) Arg(name string) string {
	if i.Args == nil {
		return ""
	}
	s, _ := i.Args[name].(string)
	return s
}

// DetectKind resolves an item to exactly one Kind via an ordered predicate
// chain. The order is part of the contract: new shapes must be inserted
// without reordering existing checks, since it encodes priority when shapes
// could overlap.
func DetectKind(item Item) Kind {
	switch {
	case item.Action == "change_agent_state":
		return KindAgentStateChange
	case item.Role == "user":
		return KindUserMessage
	case item.Role == "assistant":
		return KindAssistantMessage
	case item.Action == "run":
		return KindCommandAction
	case item.Observation == "run":
		return KindCommandObservation
	case item.Action == "run_ipython":
		return KindIPythonAction
	case item.Observation == "run_ipython":
		return KindIPythonObservation
	case item.Action == "finish":
		return KindFinishAction
	case item.Observation == "error":
		return KindErrorObservation
	case item.Action == "read":
		return KindReadAction
	case item.Observation == "read":
		return KindReadObservation
	case item.Action == "edit":
		return KindEditAction
	case item.Observation == "edit":
		return KindEditObservation
	default:
		return KindUnknown
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func mapField(m map[string]any, key string) map[string]any {
	sub, _ := m[key].(map[string]any)
	return sub
}
