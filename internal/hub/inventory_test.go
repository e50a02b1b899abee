package hub

import (
	"testing"
	"time"

	"aura/internal/domain"
)

func TestInventorySetStateAndList(t *testing.T) {
	inv := NewInventory(time.Minute)
	inv.SetState(domain.StateChange{EntityID: "switch.steckdose", Name: "Steckdose", Domain: "switch", State: "off"})
	inv.SetState(domain.StateChange{EntityID: "light.tischlampe", Name: "Tischlampe", Domain: "light", State: "on"})

	entities := inv.List()
	if len(entities) != 2 {
		t.Fatalf("got %d entities, want 2", len(entities))
	}
	// Ordered by entity id for deterministic snapshots.
	if entities[0].EntityID != "light.tischlampe" || entities[1].EntityID != "switch.steckdose" {
		t.Fatalf("order=%v, want light before switch", entities)
	}

	state, ok := inv.State("light.tischlampe")
	if !ok || state != "on" {
		t.Fatalf("state=%q ok=%v, want on", state, ok)
	}
}

func TestInventoryStateUpdateKeepsIdentity(t *testing.T) {
	inv := NewInventory(0)
	inv.SetState(domain.StateChange{EntityID: "light.tischlampe", Name: "Tischlampe", Domain: "light", State: "off"})
	// Later state reports may omit name and domain.
	inv.SetState(domain.StateChange{EntityID: "light.tischlampe", State: "on"})

	entities := inv.List()
	if len(entities) != 1 {
		t.Fatalf("got %d entities, want 1", len(entities))
	}
	if entities[0].Name != "Tischlampe" || entities[0].Domain != "light" || entities[0].State != "on" {
		t.Fatalf("entity=%+v, want name/domain kept and state updated", entities[0])
	}
}

func TestInventoryDerivesDomainFromEntityID(t *testing.T) {
	inv := NewInventory(0)
	inv.SetState(domain.StateChange{EntityID: "input_boolean.gaeste", State: "off"})

	entities := inv.List()
	if len(entities) != 1 || entities[0].Domain != "input_boolean" {
		t.Fatalf("entities=%v, want domain derived from id", entities)
	}
}

func TestInventoryIgnoresBlankEntityID(t *testing.T) {
	inv := NewInventory(0)
	inv.SetState(domain.StateChange{EntityID: "  ", State: "on"})
	if got := inv.List(); len(got) != 0 {
		t.Fatalf("got %v, want empty inventory", got)
	}
}

func TestInventorySnapshotHashIgnoresState(t *testing.T) {
	inv := NewInventory(0)
	inv.SetState(domain.StateChange{EntityID: "light.tischlampe", Name: "Tischlampe", Domain: "light", State: "off"})
	before := inv.SnapshotHash()

	inv.SetState(domain.StateChange{EntityID: "light.tischlampe", State: "on"})
	if after := inv.SnapshotHash(); after != before {
		t.Fatalf("state change altered snapshot hash")
	}

	inv.SetState(domain.StateChange{EntityID: "switch.steckdose", Name: "Steckdose", Domain: "switch", State: "off"})
	if after := inv.SnapshotHash(); after == before {
		t.Fatalf("new entity should alter snapshot hash")
	}
}

func TestParseEntityID(t *testing.T) {
	// A device publishes on the single-entity topic; the hub subscribes with
	// the wildcard form and parses the id back out.
	topic := TopicDeviceState("aura", "light.tischlampe")
	if topic != "aura/device/light.tischlampe/state" {
		t.Fatalf("topic=%q, want aura/device/light.tischlampe/state", topic)
	}
	id, err := ParseEntityID(topic, "aura")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "light.tischlampe" {
		t.Fatalf("id=%q, want light.tischlampe", id)
	}

	for _, topic := range []string{
		"aura/device/light.tischlampe",
		"other/device/light.tischlampe/state",
		"aura/call/abc",
	} {
		if _, err := ParseEntityID(topic, "aura"); err == nil {
			t.Fatalf("topic %q: expected error", topic)
		}
	}
}

func TestParseRequestID(t *testing.T) {
	if got := ParseRequestID(TopicCallResult("aura", "req-42")); got != "req-42" {
		t.Fatalf("got %q, want req-42", got)
	}
}
