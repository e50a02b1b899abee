package quickcmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aura/internal/domain"
)

// SchemaVersion of the persisted quick-command document.
const SchemaVersion = 1

// Document is the on-disk representation of one profile's quick commands.
// Commands stay raw on load so malformed records can be dropped individually.
type Document struct {
	SchemaVersion               int               `json:"schema_version"`
	Profile                     string            `json:"profile"`
	Commands                    []json.RawMessage `json:"commands"`
	LastGeneratedFromEntitiesAt *time.Time        `json:"last_generated_from_entities_at"`
	EntitySnapshotHash          *string           `json:"entity_snapshot_hash"`
}

type savedDocument struct {
	SchemaVersion               int                   `json:"schema_version"`
	Profile                     string                `json:"profile"`
	Commands                    []domain.QuickCommand `json:"commands"`
	LastGeneratedFromEntitiesAt *time.Time            `json:"last_generated_from_entities_at"`
	EntitySnapshotHash          *string               `json:"entity_snapshot_hash"`
}

// Store persists one profile's quick commands as a single JSON document under
// <dataRoot>/quick_commands/<profile>.json. It does no locking: the design
// assumes a single writer per profile, concurrent saves are last-writer-wins.
type Store struct {
	dataRoot string
	profile  string
	logger   *slog.Logger
}

func NewStore(dataRoot, profile string, logger *slog.Logger) *Store {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = "default"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dataRoot: dataRoot, profile: profile, logger: logger}
}

func (s *Store) Profile() string {
	return s.profile
}

// Path is the profile's document location.
func (s *Store) Path() string {
	return filepath.Join(s.dataRoot, "quick_commands", s.profile+".json")
}

func (s *Store) defaultDocument() Document {
	return Document{
		SchemaVersion: SchemaVersion,
		Profile:       s.profile,
		Commands:      []json.RawMessage{},
	}
}

// LoadRaw returns the parsed document, or a fresh default one on any read or
// parse failure. It never fails; problems are logged as warnings.
func (s *Store) LoadRaw() Document {
	data, err := os.ReadFile(s.Path())
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("read quick commands failed", "path", s.Path(), "error", err)
		}
		return s.defaultDocument()
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		s.logger.Warn("quick commands file is not a JSON object", "path", s.Path())
		return s.defaultDocument()
	}
	var doc Document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		s.logger.Warn("parse quick commands failed", "path", s.Path(), "error", err)
		return s.defaultDocument()
	}
	return doc
}

// LoadCommands loads the document and keeps only the valid command records.
func (s *Store) LoadCommands() []domain.QuickCommand {
	doc := s.LoadRaw()
	out := make([]domain.QuickCommand, 0, len(doc.Commands))
	dropped := 0
	for _, item := range doc.Commands {
		cmd, ok := FromRaw(item)
		if !ok {
			dropped++
			continue
		}
		out = append(out, cmd)
	}
	if dropped > 0 {
		s.logger.Warn("dropped invalid quick commands", "profile", s.profile, "count", dropped)
	}
	return out
}

// SaveCommands writes the whole document for this profile, creating parent
// directories as needed. Unlike loads, write failures do propagate: silently
// losing a user-authored command would be worse than a visible error.
func (s *Store) SaveCommands(commands []domain.QuickCommand, generatedAt *time.Time, snapshotHash *string) error {
	if commands == nil {
		commands = []domain.QuickCommand{}
	}
	payload := savedDocument{
		SchemaVersion:               SchemaVersion,
		Profile:                     s.profile,
		Commands:                    commands,
		LastGeneratedFromEntitiesAt: generatedAt,
		EntitySnapshotHash:          snapshotHash,
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode quick commands: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path()), 0o755); err != nil {
		return fmt.Errorf("create quick commands dir: %w", err)
	}
	if err := os.WriteFile(s.Path(), data, 0o644); err != nil {
		return fmt.Errorf("write quick commands: %w", err)
	}
	return nil
}
