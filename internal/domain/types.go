package domain

// Safety classification of a quick command.
const (
	SafetySafeAuto        = "safe_auto"
	SafetyRequiresConfirm = "requires_confirm"
)

// Kinds of a FastIntentResult.
const (
	KindBuiltinTime          = "builtin_time"
	KindQuickCommandCreate   = "quick_command_create"
	KindQuickCommandRemove   = "quick_command_remove"
	KindQuickCommandGenerate = "quick_command_generate"
	KindQuickAction          = "quick_action"
)

// MetaSourceEntitySnapshot tags commands produced by bulk generation so they can
// be told apart from user-authored ones when regenerating.
const MetaSourceEntitySnapshot = "entity_snapshot"

// Action is the device call a quick command issues.
type Action struct {
	Domain   string   `json:"domain"`
	Service  string   `json:"service"`
	EntityID string   `json:"entity_id"`
	Value    *float64 `json:"value,omitempty"`
}

// QuickCommand maps trigger phrases to one device action. Phrase order matters:
// the first matching phrase wins.
type QuickCommand struct {
	ID      string            `json:"id"`
	Phrases []string          `json:"phrases"`
	Action  Action            `json:"action"`
	Safety  string            `json:"safety"`
	Enabled bool              `json:"enabled"`
	Meta    map[string]string `json:"meta"`
}

// FastIntentResult is the router's answer for one utterance. It is never
// persisted; the orchestrator consumes it immediately.
type FastIntentResult struct {
	Kind            string
	ResponseText    string
	Action          *Action
	Command         *QuickCommand
	RequiresConfirm bool
	Meta            map[string]string
}

// Entity is one entry of the home-automation device inventory.
type Entity struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name"`
	Domain   string `json:"domain"`
	State    string `json:"state,omitempty"`
}

// AssistRequest is the utterance the orchestrator handles.
type AssistRequest struct {
	Text      string `json:"text"`
	Locale    string `json:"locale,omitempty"`
	Confirmed bool   `json:"confirmed,omitempty"`
}

// AssistResponse reports what the fast path did with an utterance. Handled=false
// means the caller should continue into its LLM pipeline; Hints carries the
// pre-filter heuristics so that pipeline does not recompute them.
type AssistResponse struct {
	Handled         bool              `json:"handled"`
	Kind            string            `json:"kind,omitempty"`
	Reply           string            `json:"reply,omitempty"`
	RequiresConfirm bool              `json:"requires_confirm,omitempty"`
	Action          *Action           `json:"action,omitempty"`
	CommandID       string            `json:"command_id,omitempty"`
	DelaySeconds    int               `json:"delay_seconds,omitempty"`
	Hints           map[string]any    `json:"hints,omitempty"`
	Meta            map[string]string `json:"meta,omitempty"`
}

// StateChange is the payload the hub receives on device state topics.
type StateChange struct {
	EntityID string `json:"entity_id"`
	Name     string `json:"name,omitempty"`
	Domain   string `json:"domain,omitempty"`
	State    string `json:"state"`
}

// ServiceCall is the payload the hub publishes to dispatch a device action.
type ServiceCall struct {
	RequestID string `json:"request_id"`
	Action    Action `json:"action"`
}

// CallResult is the hub's acknowledgement for a dispatched service call.
type CallResult struct {
	RequestID string `json:"request_id"`
	OK        bool   `json:"ok"`
	State     string `json:"state,omitempty"`
	Error     string `json:"error,omitempty"`
}
