package intent

import (
	"testing"
	"time"

	"aura/internal/domain"
)

func testCommands() []domain.QuickCommand {
	return []domain.QuickCommand{
		{
			ID:      "lamp_on",
			Phrases: []string{"tischlampe an"},
			Action:  domain.Action{Domain: "light", Service: "turn_on", EntityID: "light.tischlampe"},
			Safety:  domain.SafetySafeAuto,
			Enabled: true,
		},
		{
			ID:      "heater_on",
			Phrases: []string{"heizung an"},
			Action:  domain.Action{Domain: "climate", Service: "turn_on", EntityID: "climate.heizung"},
			Safety:  domain.SafetySafeAuto,
			Enabled: true,
		},
		{
			ID:      "plug_off",
			Phrases: []string{"steckdose aus"},
			Action:  domain.Action{Domain: "switch", Service: "turn_off", EntityID: "switch.steckdose"},
			Safety:  domain.SafetyRequiresConfirm,
			Enabled: true,
		},
	}
}

func testNow() time.Time {
	return time.Date(2026, 9, 1, 14, 5, 0, 0, time.UTC)
}

func TestBuiltinTimeEnglish(t *testing.T) {
	r := NewRouter(testCommands(), true)
	res, ok := r.MatchFastIntent("What time is it?", "en", testNow())
	if !ok {
		t.Fatalf("expected a result")
	}
	if res.Kind != domain.KindBuiltinTime {
		t.Fatalf("kind=%q, want builtin_time", res.Kind)
	}
	if res.ResponseText != "It is 14:05." {
		t.Fatalf("reply=%q, want It is 14:05.", res.ResponseText)
	}
}

func TestBuiltinTimeGerman(t *testing.T) {
	r := NewRouter(nil, true)
	res, ok := r.MatchFastIntent("Wie spät ist es?", "de", testNow())
	if !ok || res.Kind != domain.KindBuiltinTime {
		t.Fatalf("res=%+v ok=%v, want builtin_time", res, ok)
	}
	if res.ResponseText != "Es ist 14:05 Uhr." {
		t.Fatalf("reply=%q, want Es ist 14:05 Uhr.", res.ResponseText)
	}
}

func TestCreateQuickCommandPattern(t *testing.T) {
	r := NewRouter(nil, true)
	res, ok := r.MatchFastIntent("Create quick command for desk lamp", "en", testNow())
	if !ok || res.Kind != domain.KindQuickCommandCreate {
		t.Fatalf("res=%+v ok=%v, want quick_command_create", res, ok)
	}
	if res.Meta["target"] != "desk lamp" {
		t.Fatalf("target=%q, want desk lamp", res.Meta["target"])
	}
}

func TestCreateQuickCommandPatternGerman(t *testing.T) {
	r := NewRouter(nil, true)
	res, ok := r.MatchFastIntent("Erstelle schnellen Befehl für Tischlampe", "de", testNow())
	if !ok || res.Kind != domain.KindQuickCommandCreate {
		t.Fatalf("res=%+v ok=%v, want quick_command_create", res, ok)
	}
	if res.Meta["target"] != "tischlampe" {
		t.Fatalf("target=%q, want tischlampe", res.Meta["target"])
	}
}

func TestRemoveQuickCommandPattern(t *testing.T) {
	r := NewRouter(nil, true)
	res, ok := r.MatchFastIntent("delete quick command tischlampe an", "en", testNow())
	if !ok || res.Kind != domain.KindQuickCommandRemove {
		t.Fatalf("res=%+v ok=%v, want quick_command_remove", res, ok)
	}
	if res.Meta["target"] != "tischlampe an" {
		t.Fatalf("target=%q, want tischlampe an", res.Meta["target"])
	}
}

func TestGenerateQuickCommandsPattern(t *testing.T) {
	r := NewRouter(nil, true)
	for _, text := range []string{"generate quick commands", "create quick commands", "erstelle quick commands"} {
		res, ok := r.MatchFastIntent(text, "en", testNow())
		if !ok || res.Kind != domain.KindQuickCommandGenerate {
			t.Fatalf("%q: res=%+v ok=%v, want quick_command_generate", text, res, ok)
		}
	}
}

func TestQuickActionSafeAuto(t *testing.T) {
	r := NewRouter(testCommands(), true)
	res, ok := r.MatchFastIntent("tischlampe an", "de", testNow())
	if !ok || res.Kind != domain.KindQuickAction {
		t.Fatalf("res=%+v ok=%v, want quick_action", res, ok)
	}
	if res.RequiresConfirm {
		t.Fatalf("safe_auto light action should not require confirmation")
	}
	if res.Action == nil || res.Action.EntityID != "light.tischlampe" {
		t.Fatalf("action=%+v, want light.tischlampe", res.Action)
	}
	if res.Meta["command_id"] != "lamp_on" {
		t.Fatalf("command_id=%q, want lamp_on", res.Meta["command_id"])
	}
}

func TestQuickActionOutsideWhitelistForcesConfirm(t *testing.T) {
	r := NewRouter(testCommands(), true)
	res, ok := r.MatchFastIntent("heizung an", "de", testNow())
	if !ok || res.Kind != domain.KindQuickAction {
		t.Fatalf("res=%+v ok=%v, want quick_action", res, ok)
	}
	// The command says safe_auto, but climate is not whitelisted.
	if !res.RequiresConfirm {
		t.Fatalf("non-whitelisted action must require confirmation")
	}
}

func TestQuickActionExplicitConfirmFlag(t *testing.T) {
	r := NewRouter(testCommands(), true)
	res, ok := r.MatchFastIntent("steckdose aus", "de", testNow())
	if !ok || !res.RequiresConfirm {
		t.Fatalf("res=%+v ok=%v, want requires_confirm from the command's safety field", res, ok)
	}
}

func TestNoFastIntent(t *testing.T) {
	r := NewRouter(testCommands(), true)
	if _, ok := r.MatchFastIntent("erzähl mir einen witz", "de", testNow()); ok {
		t.Fatalf("small talk must fall through to the LLM pipeline")
	}
	if _, ok := r.MatchFastIntent("   ", "en", testNow()); ok {
		t.Fatalf("blank input must fall through")
	}
}
