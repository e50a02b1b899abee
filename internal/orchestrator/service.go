package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"aura/internal/domain"
	"aura/internal/intent"
	"aura/internal/quickcmd"
	"aura/internal/textnorm"
)

// HubClient is the home-automation side of the orchestrator: dispatching
// service calls and reading the device inventory.
type HubClient interface {
	CallService(ctx context.Context, action domain.Action) (domain.CallResult, error)
	EntityState(entityID string) (string, bool)
	Entities() []domain.Entity
	SnapshotHash() string
}

type Config struct {
	Locale       string
	FuzzyEnabled bool
	// VerifySettle is how long a device gets to report its new state before
	// the post-action check runs.
	VerifySettle time.Duration
	CallTimeout  time.Duration
}

// Service runs the fast path for one profile: built-in intents, quick-command
// lifecycle, quick-action dispatch with optional delay, and post-action state
// verification. Anything it does not handle is reported back unhandled,
// together with the heuristic pre-filter signals, so the caller's LLM pipeline
// can take over.
type Service struct {
	cfg    Config
	store  *quickcmd.Store
	hub    HubClient
	logger *slog.Logger

	mu      sync.Mutex
	pending map[*time.Timer]struct{}
	closed  bool
}

func New(cfg Config, store *quickcmd.Store, hub HubClient, logger *slog.Logger) *Service {
	if cfg.VerifySettle <= 0 {
		cfg.VerifySettle = 2 * time.Second
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = 10 * time.Second
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		hub:     hub,
		logger:  logger,
		pending: map[*time.Timer]struct{}{},
	}
}

// Close cancels every deferred quick action still waiting to fire. After Close
// no deferred dispatch reaches the hub, so it is safe to tear the hub down.
func (s *Service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for timer := range s.pending {
		timer.Stop()
	}
	s.pending = map[*time.Timer]struct{}{}
}

func (s *Service) HandleUtterance(ctx context.Context, req domain.AssistRequest) (domain.AssistResponse, error) {
	locale := req.Locale
	if locale == "" {
		locale = s.cfg.Locale
	}

	commands := s.store.LoadCommands()
	router := intent.NewRouter(commands, s.cfg.FuzzyEnabled)

	result, ok := router.MatchFastIntent(req.Text, locale, time.Now())
	if !ok {
		return s.unhandled(req.Text), nil
	}

	switch result.Kind {
	case domain.KindBuiltinTime:
		return domain.AssistResponse{
			Handled: true,
			Kind:    result.Kind,
			Reply:   result.ResponseText,
		}, nil

	case domain.KindQuickCommandCreate:
		return s.createForTarget(commands, result.Meta["target"], locale)

	case domain.KindQuickCommandRemove:
		return s.removeByTarget(commands, result.Meta["target"])

	case domain.KindQuickCommandGenerate:
		return s.regenerateFromEntities(commands, locale)

	case domain.KindQuickAction:
		return s.dispatchQuickAction(ctx, req, result)

	default:
		return s.unhandled(req.Text), nil
	}
}

// unhandled hands the utterance back to the LLM pipeline with the cheap
// pre-filter signals already computed.
func (s *Service) unhandled(text string) domain.AssistResponse {
	entities := s.hub.Entities()
	return domain.AssistResponse{
		Handled: false,
		Hints: map[string]any{
			"home_control_likely": intent.LooksLikeHomeControlRequest(text, entities),
			"multi_domain":        intent.IsMultiDomainRequest(text, entities),
			"delay_seconds":       intent.ParseDelaySeconds(text, time.Now()),
		},
	}
}

// createForTarget authors on/off commands for the inventory device whose name
// matches the spoken target.
func (s *Service) createForTarget(commands []domain.QuickCommand, target, locale string) (domain.AssistResponse, error) {
	targetNorm := textnorm.Normalize(target)
	if targetNorm == "" {
		return domain.AssistResponse{
			Handled: true,
			Kind:    domain.KindQuickCommandCreate,
			Reply:   "I could not tell which device you meant.",
		}, nil
	}

	var matched *domain.Entity
	for _, ent := range s.hub.Entities() {
		nameNorm := textnorm.Normalize(ent.Name)
		if nameNorm == "" {
			continue
		}
		if nameNorm == targetNorm || strings.Contains(targetNorm, nameNorm) || strings.Contains(nameNorm, targetNorm) {
			matched = &ent
			break
		}
	}
	if matched == nil {
		return domain.AssistResponse{
			Handled: true,
			Kind:    domain.KindQuickCommandCreate,
			Reply:   fmt.Sprintf("No device matches %q.", target),
		}, nil
	}

	generated := quickcmd.GenerateFromEntities([]domain.Entity{*matched}, locale)
	if len(generated) == 0 {
		return domain.AssistResponse{
			Handled: true,
			Kind:    domain.KindQuickCommandCreate,
			Reply:   fmt.Sprintf("Device %q does not support quick commands.", matched.Name),
		}, nil
	}
	// User-authored, not a snapshot product: regeneration must not drop them.
	for i := range generated {
		generated[i].Meta = map[string]string{"source": "user"}
	}

	if err := s.store.SaveCommands(append(commands, generated...), nil, nil); err != nil {
		return domain.AssistResponse{}, err
	}

	s.logger.Info("quick commands created", "profile", s.store.Profile(), "entity_id", matched.EntityID, "count", len(generated))
	return domain.AssistResponse{
		Handled: true,
		Kind:    domain.KindQuickCommandCreate,
		Reply:   fmt.Sprintf("Created %d quick commands for %s.", len(generated), matched.Name),
		Meta:    map[string]string{"entity_id": matched.EntityID},
	}, nil
}

// removeByTarget drops commands whose id or any normalized phrase matches the
// spoken target and persists the remainder.
func (s *Service) removeByTarget(commands []domain.QuickCommand, target string) (domain.AssistResponse, error) {
	targetNorm := textnorm.Normalize(target)
	if targetNorm == "" {
		return domain.AssistResponse{
			Handled: true,
			Kind:    domain.KindQuickCommandRemove,
			Reply:   "I could not tell which quick command to remove.",
		}, nil
	}

	kept := make([]domain.QuickCommand, 0, len(commands))
	removed := 0
	for _, cmd := range commands {
		if commandMatchesTarget(cmd, target, targetNorm) {
			removed++
			continue
		}
		kept = append(kept, cmd)
	}

	if removed == 0 {
		return domain.AssistResponse{
			Handled: true,
			Kind:    domain.KindQuickCommandRemove,
			Reply:   fmt.Sprintf("No quick command matches %q.", target),
		}, nil
	}

	if err := s.store.SaveCommands(kept, nil, nil); err != nil {
		return domain.AssistResponse{}, err
	}

	s.logger.Info("quick commands removed", "profile", s.store.Profile(), "count", removed)
	return domain.AssistResponse{
		Handled: true,
		Kind:    domain.KindQuickCommandRemove,
		Reply:   fmt.Sprintf("Removed %d quick commands.", removed),
	}, nil
}

func commandMatchesTarget(cmd domain.QuickCommand, target, targetNorm string) bool {
	if cmd.ID == target {
		return true
	}
	for _, phrase := range cmd.Phrases {
		if textnorm.Normalize(phrase) == targetNorm {
			return true
		}
	}
	return false
}

// regenerateFromEntities replaces the snapshot-sourced commands with a fresh
// generation from the live inventory, keeping user-authored ones untouched.
func (s *Service) regenerateFromEntities(commands []domain.QuickCommand, locale string) (domain.AssistResponse, error) {
	entities := s.hub.Entities()
	generated := quickcmd.GenerateFromEntities(entities, locale)

	kept := make([]domain.QuickCommand, 0, len(commands))
	for _, cmd := range commands {
		if cmd.Meta["source"] == domain.MetaSourceEntitySnapshot {
			continue
		}
		kept = append(kept, cmd)
	}

	now := time.Now().UTC()
	hash := s.hub.SnapshotHash()
	if err := s.store.SaveCommands(append(kept, generated...), &now, &hash); err != nil {
		return domain.AssistResponse{}, err
	}

	s.logger.Info("quick commands regenerated",
		"profile", s.store.Profile(),
		"entities", len(entities),
		"generated", len(generated),
		"kept", len(kept),
	)
	return domain.AssistResponse{
		Handled: true,
		Kind:    domain.KindQuickCommandGenerate,
		Reply:   fmt.Sprintf("Generated %d quick commands from %d devices.", len(generated), len(entities)),
	}, nil
}

// RegenerateQuickCommands is the HTTP-facing form of the "generate quick
// commands" voice request.
func (s *Service) RegenerateQuickCommands(locale string) (domain.AssistResponse, error) {
	if locale == "" {
		locale = s.cfg.Locale
	}
	return s.regenerateFromEntities(s.store.LoadCommands(), locale)
}

func (s *Service) dispatchQuickAction(ctx context.Context, req domain.AssistRequest, result domain.FastIntentResult) (domain.AssistResponse, error) {
	resp := domain.AssistResponse{
		Handled:         true,
		Kind:            domain.KindQuickAction,
		Action:          result.Action,
		CommandID:       result.Meta["command_id"],
		RequiresConfirm: result.RequiresConfirm,
		Meta:            result.Meta,
	}

	if result.RequiresConfirm && !req.Confirmed {
		resp.Reply = "This action needs your confirmation."
		return resp, nil
	}

	delay := intent.ParseDelaySeconds(req.Text, time.Now())
	resp.DelaySeconds = delay

	action := *result.Action
	if delay > 0 {
		s.scheduleDispatch(action, time.Duration(delay)*time.Second)
		resp.Reply = fmt.Sprintf("Okay, in %d seconds.", delay)
		return resp, nil
	}

	if err := s.dispatchAndVerify(ctx, action); err != nil {
		return domain.AssistResponse{}, err
	}
	resp.Reply = "Done."
	return resp, nil
}

// scheduleDispatch defers a dispatch without holding up the reply. The delayed
// call runs against a fresh context: the HTTP request that scheduled it is
// long gone by then.
func (s *Service) scheduleDispatch(action domain.Action, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn("quick action dropped, service closed", "entity_id", action.EntityID, "service", action.Service)
		return
	}

	s.logger.Info("quick action deferred", "entity_id", action.EntityID, "service", action.Service, "delay", delay)
	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, timer)
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.cfg.CallTimeout)
		defer cancel()
		if err := s.dispatchAndVerify(ctx, action); err != nil {
			s.logger.Error("deferred quick action failed", "entity_id", action.EntityID, "error", err)
		}
	})
	s.pending[timer] = struct{}{}
}

func (s *Service) dispatchAndVerify(ctx context.Context, action domain.Action) error {
	initialState, _ := s.hub.EntityState(action.EntityID)

	if _, err := s.hub.CallService(ctx, action); err != nil {
		return fmt.Errorf("dispatch %s.%s on %s: %w", action.Domain, action.Service, action.EntityID, err)
	}

	go s.verifyAfterSettle(action, initialState)
	return nil
}

// verifyAfterSettle waits for the device to report and compares the new state
// against the expected effect of the call. Verification is advisory: a
// mismatch is logged, never raised.
func (s *Service) verifyAfterSettle(action domain.Action, initialState string) {
	time.Sleep(s.cfg.VerifySettle)
	s.VerifyAction(action, initialState)
}

// VerifyAction runs the post-dispatch state check once and reports the
// outcome.
func (s *Service) VerifyAction(action domain.Action, initialState string) bool {
	newState, ok := s.hub.EntityState(action.EntityID)
	if !ok {
		s.logger.Warn("no state reported after action", "entity_id", action.EntityID, "service", action.Service)
		return false
	}
	if !intent.StateMatchesAction(action.Service, initialState, newState, action.Value, 0) {
		s.logger.Warn("action verification failed",
			"entity_id", action.EntityID,
			"service", action.Service,
			"initial_state", initialState,
			"new_state", newState,
		)
		return false
	}
	s.logger.Info("action verified", "entity_id", action.EntityID, "service", action.Service, "new_state", newState)
	return true
}
