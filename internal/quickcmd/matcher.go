package quickcmd

import (
	"strings"

	"aura/internal/domain"
	"aura/internal/textnorm"
)

// FuzzyThreshold is intentionally conservative: a false positive here fires a
// device action instead of falling through to the LLM pipeline.
const FuzzyThreshold = 0.92

// Matcher matches utterances against a fixed command set. It holds a read-only
// view of the commands for the duration of its match calls and performs no I/O.
type Matcher struct {
	commands     []domain.QuickCommand
	fuzzyEnabled bool
}

func NewMatcher(commands []domain.QuickCommand, fuzzyEnabled bool) *Matcher {
	return &Matcher{commands: commands, fuzzyEnabled: fuzzyEnabled}
}

// Match resolves text to a command in two phases. Phase one walks commands in
// list order and phrases in phrase order, taking the first normalized-equal
// phrase or the first phrase whose token set is a non-empty subset of the input
// tokens. Phase two, only when nothing deterministic matched and fuzzy matching
// is enabled, takes the single best similarity score if it reaches
// FuzzyThreshold. Returns nil when nothing matches.
func (m *Matcher) Match(text string) *domain.QuickCommand {
	textNorm := textnorm.Normalize(text)
	if textNorm == "" {
		return nil
	}
	textTokens := textnorm.TokenSet(textNorm)

	for i := range m.commands {
		cmd := &m.commands[i]
		if !cmd.Enabled {
			continue
		}
		for _, phrase := range cmd.Phrases {
			phraseNorm := textnorm.Normalize(phrase)
			if phraseNorm == "" {
				continue
			}
			if phraseNorm == textNorm {
				return cmd
			}
			if tokensSubset(strings.Fields(phraseNorm), textTokens) {
				return cmd
			}
		}
	}

	if !m.fuzzyEnabled {
		return nil
	}

	var best *domain.QuickCommand
	bestScore := 0.0
	for i := range m.commands {
		cmd := &m.commands[i]
		if !cmd.Enabled {
			continue
		}
		for _, phrase := range cmd.Phrases {
			phraseNorm := textnorm.Normalize(phrase)
			if phraseNorm == "" {
				continue
			}
			// Strict greater: on score ties the first command listed wins.
			if score := similarityRatio(textNorm, phraseNorm); score > bestScore {
				bestScore = score
				best = cmd
			}
		}
	}
	if best != nil && bestScore >= FuzzyThreshold {
		return best
	}
	return nil
}

func tokensSubset(tokens []string, set map[string]struct{}) bool {
	if len(tokens) == 0 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := set[tok]; !ok {
			return false
		}
	}
	return true
}
