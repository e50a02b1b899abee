package quickcmd

import (
	"encoding/json"
	"strings"
	"testing"

	"aura/internal/domain"
)

func TestFromRawDefaults(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "lamp_on_1",
		"phrases": ["  Tischlampe an  ", ""],
		"action": {"domain": "light", "service": "turn_on", "entity_id": "light.tischlampe"}
	}`)

	cmd, ok := FromRaw(raw)
	if !ok {
		t.Fatalf("expected valid command")
	}
	if cmd.ID != "lamp_on_1" {
		t.Fatalf("id=%q, want lamp_on_1", cmd.ID)
	}
	if len(cmd.Phrases) != 1 || cmd.Phrases[0] != "Tischlampe an" {
		t.Fatalf("phrases=%v, want trimmed single phrase", cmd.Phrases)
	}
	if cmd.Safety != domain.SafetySafeAuto {
		t.Fatalf("safety=%q, want default safe_auto", cmd.Safety)
	}
	if !cmd.Enabled {
		t.Fatalf("enabled=false, want default true")
	}
	if cmd.Meta == nil {
		t.Fatalf("meta=nil, want empty map")
	}
}

func TestFromRawRejectsInvalidRecords(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `"just a string"`},
		{"blank id", `{"id": "  ", "phrases": ["x"], "action": {"domain": "light"}}`},
		{"no phrases", `{"id": "a", "phrases": [], "action": {"domain": "light"}}`},
		{"blank phrases only", `{"id": "a", "phrases": ["  ", ""], "action": {"domain": "light"}}`},
		{"action not object", `{"id": "a", "phrases": ["x"], "action": "turn_on"}`},
		{"missing action", `{"id": "a", "phrases": ["x"]}`},
	}
	for _, tc := range cases {
		if _, ok := FromRaw(json.RawMessage(tc.raw)); ok {
			t.Fatalf("%s: expected invalid", tc.name)
		}
	}
}

func TestFromRawKeepsExplicitFields(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "heater_set",
		"phrases": ["heizung auf zwanzig"],
		"action": {"domain": "input_number", "service": "set_value", "entity_id": "input_number.heizung", "value": 20},
		"safety": "requires_confirm",
		"enabled": false,
		"meta": {"source": "user"}
	}`)

	cmd, ok := FromRaw(raw)
	if !ok {
		t.Fatalf("expected valid command")
	}
	if cmd.Safety != domain.SafetyRequiresConfirm {
		t.Fatalf("safety=%q, want requires_confirm", cmd.Safety)
	}
	if cmd.Enabled {
		t.Fatalf("enabled=true, want false")
	}
	if cmd.Action.Value == nil || *cmd.Action.Value != 20 {
		t.Fatalf("value=%v, want 20", cmd.Action.Value)
	}
	if cmd.Meta["source"] != "user" {
		t.Fatalf("meta=%v, want source=user", cmd.Meta)
	}
}

func TestFromRawToleratesNonStringMeta(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "lamp_on",
		"phrases": ["tischlampe an"],
		"action": {"domain": "light", "service": "turn_on", "entity_id": "light.tischlampe"},
		"meta": {"priority": 1, "source": "user", "tags": ["a", "b"]}
	}`)

	cmd, ok := FromRaw(raw)
	if !ok {
		t.Fatalf("expected valid command despite non-string meta values")
	}
	if cmd.Meta["source"] != "user" {
		t.Fatalf("meta=%v, want source=user kept", cmd.Meta)
	}
	if _, present := cmd.Meta["priority"]; present {
		t.Fatalf("meta=%v, want non-string priority ignored", cmd.Meta)
	}
}

func TestFromRawNonObjectMetaDegradesToEmpty(t *testing.T) {
	raw := json.RawMessage(`{
		"id": "lamp_on",
		"phrases": ["tischlampe an"],
		"action": {"domain": "light", "service": "turn_on", "entity_id": "light.tischlampe"},
		"meta": "oops"
	}`)

	cmd, ok := FromRaw(raw)
	if !ok {
		t.Fatalf("expected valid command despite non-object meta")
	}
	if cmd.Meta == nil || len(cmd.Meta) != 0 {
		t.Fatalf("meta=%v, want empty map", cmd.Meta)
	}
}

func TestIsSafeAutoAction(t *testing.T) {
	cases := []struct {
		action domain.Action
		want   bool
	}{
		{domain.Action{Domain: "light", Service: "turn_on"}, true},
		{domain.Action{Domain: "switch", Service: "toggle"}, true},
		{domain.Action{Domain: "input_boolean", Service: "turn_off"}, true},
		{domain.Action{Domain: "Light", Service: "TURN_ON"}, true},
		{domain.Action{Domain: "climate", Service: "turn_on"}, false},
		{domain.Action{Domain: "light", Service: "set_brightness"}, false},
		{domain.Action{Domain: "input_number", Service: "set_value"}, false},
		{domain.Action{}, false},
	}
	for _, tc := range cases {
		if got := IsSafeAutoAction(tc.action); got != tc.want {
			t.Fatalf("IsSafeAutoAction(%+v)=%v, want %v", tc.action, got, tc.want)
		}
	}
}

func TestNewCommandIDUniqueAndSlugged(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := NewCommandID("Désk Lamp on")
		if !strings.HasPrefix(id, "desk_lamp_on_") {
			t.Fatalf("id=%q, want desk_lamp_on_ prefix", id)
		}
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
