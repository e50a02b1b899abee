package intent

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"aura/internal/domain"
)

var (
	relativeDelayPattern = regexp.MustCompile(`in\s+(\d+)\s*(seconds?|secs?|minutes?|mins?|hours?|hrs?)`)
	absoluteTimePattern  = regexp.MustCompile(`(?:at|um)\s*(\d{1,2})[:.](\d{2})`)
)

// ParseDelaySeconds extracts a requested execution delay from an utterance.
// Relative durations ("in 10 seconds", "in 2 hrs") are converted directly;
// "half an hour" is special-cased; an absolute "at/um HH:MM" is resolved
// against now, rolling to the next day when the target has already passed.
// Returns 0 when nothing is recognized. Never fails.
func ParseDelaySeconds(text string, now time.Time) int {
	t := strings.ToLower(text)

	if m := relativeDelayPattern.FindStringSubmatch(t); m != nil {
		amount, err := strconv.Atoi(m[1])
		if err == nil {
			switch unit := m[2]; {
			case strings.HasPrefix(unit, "sec"):
				return amount
			case strings.HasPrefix(unit, "min"):
				return amount * 60
			case strings.HasPrefix(unit, "hour") || strings.HasPrefix(unit, "hr"):
				return amount * 3600
			}
		}
	}

	if strings.Contains(t, "half an hour") || strings.Contains(t, "half hour") {
		return 1800
	}

	if m := absoluteTimePattern.FindStringSubmatch(t); m != nil {
		hour, errH := strconv.Atoi(m[1])
		minute, errM := strconv.Atoi(m[2])
		if errH == nil && errM == nil && hour <= 23 && minute <= 59 {
			target := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
			if !target.After(now) {
				target = target.Add(24 * time.Hour)
			}
			return int(target.Sub(now).Seconds())
		}
	}

	return 0
}

// entityMentioned reports whether the lowercased text refers to the entity by
// display name (also with spaces stripped, so "Sonnenblumen Lampe" matches
// "sonnenblumenlampe"), by full entity id, or by the entity-id suffix on a
// whole-word boundary so "kitchen_light" does not fire on "kitchen_lightning".
func entityMentioned(text string, ent domain.Entity) bool {
	name := strings.ToLower(strings.TrimSpace(ent.Name))
	if name != "" {
		if strings.Contains(text, name) {
			return true
		}
		if compact := strings.ReplaceAll(name, " ", ""); strings.Contains(text, compact) {
			return true
		}
	}

	entityID := strings.ToLower(strings.TrimSpace(ent.EntityID))
	if entityID == "" {
		return false
	}
	if strings.Contains(text, entityID) {
		return true
	}
	suffix := entityID
	if idx := strings.LastIndex(entityID, "."); idx >= 0 {
		suffix = entityID[idx+1:]
	}
	if suffix == "" {
		return false
	}
	re, err := regexp.Compile(`\b` + regexp.QuoteMeta(suffix) + `\b`)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// IsMultiDomainRequest reports whether an utterance touches devices from more
// than one domain. Bulk phrasings like "all lights" count as single-domain. A
// "heater"/"heizung" mention together with any digit implies an input_number
// target even when no entity matched by name.
func IsMultiDomainRequest(text string, entities []domain.Entity) bool {
	t := strings.ToLower(text)
	if strings.Contains(t, "all lights") || strings.Contains(t, "all light") || strings.Contains(t, "alle lichter") {
		return false
	}

	matched := make(map[string]struct{})
	for _, ent := range entities {
		if entityMentioned(t, ent) {
			matched[ent.Domain] = struct{}{}
		}
	}

	if strings.Contains(t, "heater") || strings.Contains(t, "heizung") {
		if strings.ContainsFunc(t, unicode.IsDigit) {
			matched["input_number"] = struct{}{}
		}
	}

	return len(matched) > 1
}

var controlVerbPattern = regexp.MustCompile(`\b(turn|switch|toggle|enable|disable|set|dim|brighten|schalte|schalt|schalten|einschalten|ausschalten|anschalten|aktiviere|deaktiviere|an|aus)\b`)

var deviceKeywords = []string{
	"light", "lamp", "bulb", "switch", "plug", "socket", "outlet",
	"tv", "television", "heater", "thermostat", "fan",
	"licht", "lampe", "leuchte", "schalter", "steckdose", "fernseher", "heizung",
}

// LooksLikeHomeControlRequest is a cheap pre-filter deciding whether an
// utterance plausibly targets the home before the LLM pipeline is involved:
// it needs a control verb plus either a device-class keyword or a mention of a
// known entity.
func LooksLikeHomeControlRequest(text string, entities []domain.Entity) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return false
	}
	if !controlVerbPattern.MatchString(t) {
		return false
	}

	for _, kw := range deviceKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	for _, ent := range entities {
		if entityMentioned(t, ent) {
			return true
		}
	}
	return false
}

const defaultStateTolerance = 0.001

// StateMatchesAction verifies a device's reported state against the expected
// effect of a dispatched service call. A tolerance <= 0 selects the default.
// Unknown services verify as false.
func StateMatchesAction(service, initialState, newState string, value *float64, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = defaultStateTolerance
	}
	initial := strings.ToLower(strings.TrimSpace(initialState))
	state := strings.ToLower(strings.TrimSpace(newState))

	switch strings.ToLower(strings.TrimSpace(service)) {
	case "set_value":
		if value == nil {
			return false
		}
		got, err := strconv.ParseFloat(state, 64)
		if err != nil {
			return false
		}
		return math.Abs(got-*value) <= tolerance
	case "turn_on":
		return state == "on"
	case "turn_off":
		return state == "off"
	case "toggle":
		switch initial {
		case "on":
			return state == "off"
		case "off":
			return state == "on"
		default:
			return state != "unknown"
		}
	default:
		return false
	}
}
