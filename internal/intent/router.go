package intent

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"aura/internal/domain"
	"aura/internal/quickcmd"
	"aura/internal/textnorm"
)

// Patterns run against normalized text, so the German phrasings are written
// umlaut-folded ("spat", "fur", "losche").
var (
	timePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(what\s+time\s+is\s+it|time\s+is\s+it|current\s+time|tell\s+me\s+the\s+time)\b`),
		regexp.MustCompile(`\b(wie\s+spat\s+ist\s+es|uhrzeit|wie\s+viel\s+uhr|sag\s+mir\s+die\s+uhrzeit)\b`),
	}

	createPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\bcreate\s+quick\s+command\s+for\s+(.+)$`),
		regexp.MustCompile(`\berstelle\s+schnell(?:en)?\s+befehl\s+fur\s+(.+)$`),
		regexp.MustCompile(`\berstelle\s+quick\s+command\s+fur\s+(.+)$`),
	}

	removePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(remove|delete)\s+quick\s+command\s+(.+)$`),
		regexp.MustCompile(`\b(entferne|losche)\s+quick\s+command\s+(.+)$`),
	}

	generatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(generate|create)\s+quick\s+commands\b`),
		regexp.MustCompile(`\b(erstelle|generiere)\s+quick\s+commands\b`),
	}
)

// Router is the fast path in front of the LLM pipeline: built-in intents,
// quick-command management requests and quick-action matching.
type Router struct {
	matcher *quickcmd.Matcher
}

func NewRouter(commands []domain.QuickCommand, fuzzyEnabled bool) *Router {
	return &Router{matcher: quickcmd.NewMatcher(commands, fuzzyEnabled)}
}

// MatchFastIntent classifies one utterance. A zero now means wall-clock time.
// The second return is false when nothing on the fast path applies and the
// caller should continue into its LLM pipeline.
func (r *Router) MatchFastIntent(text, locale string, now time.Time) (domain.FastIntentResult, bool) {
	norm := textnorm.Normalize(text)
	if norm == "" {
		return domain.FastIntentResult{}, false
	}

	for _, pattern := range timePatterns {
		if !pattern.MatchString(norm) {
			continue
		}
		if now.IsZero() {
			now = time.Now()
		}
		clock := now.Format("15:04")
		reply := fmt.Sprintf("It is %s.", clock)
		if locale == "de" {
			reply = fmt.Sprintf("Es ist %s Uhr.", clock)
		}
		return domain.FastIntentResult{
			Kind:         domain.KindBuiltinTime,
			ResponseText: reply,
		}, true
	}

	for _, pattern := range createPatterns {
		m := pattern.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		if target := strings.TrimSpace(m[1]); target != "" {
			return domain.FastIntentResult{
				Kind: domain.KindQuickCommandCreate,
				Meta: map[string]string{"target": target},
			}, true
		}
	}

	for _, pattern := range removePatterns {
		m := pattern.FindStringSubmatch(norm)
		if m == nil {
			continue
		}
		if target := strings.TrimSpace(m[2]); target != "" {
			return domain.FastIntentResult{
				Kind: domain.KindQuickCommandRemove,
				Meta: map[string]string{"target": target},
			}, true
		}
	}

	for _, pattern := range generatePatterns {
		if pattern.MatchString(norm) {
			return domain.FastIntentResult{Kind: domain.KindQuickCommandGenerate}, true
		}
	}

	cmd := r.matcher.Match(norm)
	if cmd == nil {
		return domain.FastIntentResult{}, false
	}

	action := cmd.Action
	// A command may claim safe_auto, but an action outside the whitelist is
	// never pre-authorized.
	requiresConfirm := cmd.Safety == domain.SafetyRequiresConfirm || !quickcmd.IsSafeAutoAction(action)
	return domain.FastIntentResult{
		Kind:            domain.KindQuickAction,
		Action:          &action,
		Command:         cmd,
		RequiresConfirm: requiresConfirm,
		Meta:            map[string]string{"command_id": cmd.ID},
	}, true
}
