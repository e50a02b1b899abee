package hub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"aura/internal/domain"
)

type entityRecord struct {
	entity      domain.Entity
	lastUpdated time.Time
}

// Inventory is the live device inventory assembled from hub state reports.
// Entries older than the staleness TTL are hidden from reads but kept so a
// late report can refresh them.
type Inventory struct {
	mu       sync.RWMutex
	data     map[string]entityRecord
	staleTTL time.Duration
}

func NewInventory(staleTTL time.Duration) *Inventory {
	return &Inventory{
		data:     make(map[string]entityRecord),
		staleTTL: staleTTL,
	}
}

func (inv *Inventory) SetState(change domain.StateChange) {
	entityID := strings.TrimSpace(change.EntityID)
	if entityID == "" {
		return
	}

	inv.mu.Lock()
	defer inv.mu.Unlock()

	record := inv.data[entityID]
	record.entity.EntityID = entityID
	if change.Name != "" {
		record.entity.Name = change.Name
	}
	if change.Domain != "" {
		record.entity.Domain = strings.ToLower(change.Domain)
	} else if record.entity.Domain == "" {
		// Entity ids follow the "{domain}.{object}" convention.
		if idx := strings.Index(entityID, "."); idx > 0 {
			record.entity.Domain = strings.ToLower(entityID[:idx])
		}
	}
	record.entity.State = change.State
	record.lastUpdated = time.Now()
	inv.data[entityID] = record
}

// State returns the current reported state of one entity.
func (inv *Inventory) State(entityID string) (string, bool) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	record, ok := inv.data[entityID]
	if !ok || inv.isStale(record) {
		return "", false
	}
	return record.entity.State, true
}

// List returns a defensive copy of the inventory, ordered by entity id so
// repeated snapshots are deterministic.
func (inv *Inventory) List() []domain.Entity {
	inv.mu.RLock()
	defer inv.mu.RUnlock()

	out := make([]domain.Entity, 0, len(inv.data))
	for _, record := range inv.data {
		if inv.isStale(record) {
			continue
		}
		out = append(out, record.entity)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityID < out[j].EntityID
	})
	return out
}

// SnapshotHash is an opaque identifier of the current inventory, used to
// decide whether quick commands need regenerating. State is excluded: only
// identity changes should invalidate a generation run.
func (inv *Inventory) SnapshotHash() string {
	entities := inv.List()
	h := sha256.New()
	for _, ent := range entities {
		fmt.Fprintf(h, "%s|%s|%s\n", ent.EntityID, ent.Name, ent.Domain)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func (inv *Inventory) isStale(record entityRecord) bool {
	if inv.staleTTL <= 0 {
		return false
	}
	return time.Since(record.lastUpdated) > inv.staleTTL
}
