package usecase

import (
	"strings"

	"imagehound/internal/domain"
)

// EnginesText renders the /engines listing in registry order. The short
// variant points at /more for descriptions.
func (s *Service) EnginesText(more bool) string {
	var sb strings.Builder
	if !more {
		sb.WriteString("To get even more info use /more.\n\n")
	}

	for _, eng := range s.deps.Engines.All() {
		parts := []string{fieldTitle(eng.Name()) + eng.ProviderURL()}
		if more {
			parts = append(parts, fieldTitle("Description")+eng.Description())
		}
		if rec := eng.Recommendation(); len(rec) > 0 {
			parts = append(parts, fieldTitle("Recommended for")+"\n- "+strings.Join(rec, "\n- "))
		}
		if types := eng.Types(); len(types) > 0 {
			parts = append(parts, fieldTitle("Used for")+strings.Join(types, ", "))
		}

		mark := "❌"
		if _, ok := eng.(domain.BestMatchEngine); ok {
			mark = "✅"
		}
		parts = append(parts, fieldTitle("Supports best match")+mark)

		sb.WriteString(strings.Join(parts, "\n"))
		sb.WriteString("\n\n")
	}
	return sb.String()
}
