package quickcmd

import (
	"strings"

	"aura/internal/domain"
	"aura/internal/textnorm"
)

// GenerateFromEntities synthesizes on/off quick commands from a device
// inventory snapshot. Entries without id or name, entries outside the safe-auto
// domain whitelist and duplicate entity ids (first occurrence wins) are
// skipped. Each eligible device yields exactly two commands, turn_on and
// turn_off, with four trigger phrases each; the locale decides whether the
// German or English phrasings come first.
func GenerateFromEntities(entities []domain.Entity, locale string) []domain.QuickCommand {
	var commands []domain.QuickCommand
	seen := make(map[string]struct{})

	for _, entity := range entities {
		entityID := strings.TrimSpace(entity.EntityID)
		name := strings.TrimSpace(entity.Name)
		entityDomain := strings.ToLower(strings.TrimSpace(entity.Domain))
		if entityID == "" || name == "" {
			continue
		}
		if _, ok := safeAutoDomains[entityDomain]; !ok {
			continue
		}
		if _, ok := seen[entityID]; ok {
			continue
		}
		seen[entityID] = struct{}{}

		nameNorm := textnorm.Normalize(name)
		if nameNorm == "" {
			continue
		}

		deOn := []string{nameNorm + " an", "schalte " + nameNorm + " an"}
		deOff := []string{nameNorm + " aus", "schalte " + nameNorm + " aus"}
		enOn := []string{nameNorm + " on", "turn on " + nameNorm}
		enOff := []string{nameNorm + " off", "turn off " + nameNorm}

		var onPhrases, offPhrases []string
		if locale == "de" {
			onPhrases = append(deOn, enOn...)
			offPhrases = append(deOff, enOff...)
		} else {
			onPhrases = append(enOn, deOn...)
			offPhrases = append(enOff, deOff...)
		}

		commands = append(commands,
			domain.QuickCommand{
				ID:      NewCommandID(nameNorm + "_on"),
				Phrases: onPhrases,
				Action: domain.Action{
					Domain:   entityDomain,
					Service:  "turn_on",
					EntityID: entityID,
				},
				Safety:  domain.SafetySafeAuto,
				Enabled: true,
				Meta:    map[string]string{"source": domain.MetaSourceEntitySnapshot},
			},
			domain.QuickCommand{
				ID:      NewCommandID(nameNorm + "_off"),
				Phrases: offPhrases,
				Action: domain.Action{
					Domain:   entityDomain,
					Service:  "turn_off",
					EntityID: entityID,
				},
				Safety:  domain.SafetySafeAuto,
				Enabled: true,
				Meta:    map[string]string{"source": domain.MetaSourceEntitySnapshot},
			},
		)
	}

	return commands
}
