package quickcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"aura/internal/domain"
	"aura/internal/textnorm"
)

// Hard safety boundary: only these domain/service pairs may ever run without
// user confirmation, regardless of what a stored command claims.
var (
	safeAutoDomains = map[string]struct{}{
		"light":         {},
		"switch":        {},
		"input_boolean": {},
	}
	safeAutoServices = map[string]struct{}{
		"turn_on":  {},
		"turn_off": {},
		"toggle":   {},
	}
)

// IsSafeAutoAction reports whether an action is inside the fixed whitelist of
// pre-authorized domain/service pairs.
func IsSafeAutoAction(action domain.Action) bool {
	d := strings.ToLower(strings.TrimSpace(action.Domain))
	s := strings.ToLower(strings.TrimSpace(action.Service))
	_, okDomain := safeAutoDomains[d]
	_, okService := safeAutoServices[s]
	return okDomain && okService
}

type rawCommand struct {
	ID      string          `json:"id"`
	Phrases []string        `json:"phrases"`
	Action  json.RawMessage `json:"action"`
	Safety  string          `json:"safety"`
	Enabled *bool           `json:"enabled"`
	Meta    json.RawMessage `json:"meta"`
}

// decodeMeta reads the meta bag leniently: string-valued keys are kept, any
// other value or a non-object bag degrades to an empty map. A command is never
// rejected over its meta.
func decodeMeta(data json.RawMessage) map[string]string {
	meta := map[string]string{}
	var byKey map[string]json.RawMessage
	if err := json.Unmarshal(data, &byKey); err != nil {
		return meta
	}
	for key, value := range byKey {
		var s string
		if err := json.Unmarshal(value, &s); err == nil {
			meta[key] = s
		}
	}
	return meta
}

// FromRaw decodes one stored command record best-effort. Records with a blank
// id, no usable phrase, or a non-object action are reported invalid and are
// expected to be dropped by the caller, never surfaced as errors.
func FromRaw(data json.RawMessage) (domain.QuickCommand, bool) {
	var raw rawCommand
	if err := json.Unmarshal(data, &raw); err != nil {
		return domain.QuickCommand{}, false
	}

	id := strings.TrimSpace(raw.ID)
	if id == "" {
		return domain.QuickCommand{}, false
	}

	phrases := make([]string, 0, len(raw.Phrases))
	for _, p := range raw.Phrases {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			phrases = append(phrases, trimmed)
		}
	}
	if len(phrases) == 0 {
		return domain.QuickCommand{}, false
	}

	trimmedAction := bytes.TrimSpace(raw.Action)
	if len(trimmedAction) == 0 || trimmedAction[0] != '{' {
		return domain.QuickCommand{}, false
	}
	var action domain.Action
	if err := json.Unmarshal(trimmedAction, &action); err != nil {
		return domain.QuickCommand{}, false
	}

	safety := strings.TrimSpace(raw.Safety)
	if safety == "" {
		safety = domain.SafetySafeAuto
	}
	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}
	return domain.QuickCommand{
		ID:      id,
		Phrases: phrases,
		Action:  action,
		Safety:  safety,
		Enabled: enabled,
		Meta:    decodeMeta(raw.Meta),
	}, true
}

var lastIDStamp atomic.Int64

func idStamp() int64 {
	for {
		now := time.Now().UnixMilli()
		last := lastIDStamp.Load()
		if now <= last {
			now = last + 1
		}
		if lastIDStamp.CompareAndSwap(last, now) {
			return now
		}
	}
}

// NewCommandID builds a stable identifier from a seed slug and a millisecond
// stamp. Stamps are forced strictly monotonic within the process so ids stay
// unique across bulk generation runs.
func NewCommandID(seed string) string {
	return fmt.Sprintf("%s_%d", textnorm.Slug(seed), idStamp())
}
