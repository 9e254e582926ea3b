package engine

import (
	"log/slog"
	"slices"

	"imagehound/internal/domain"
	"imagehound/internal/infra/config"
)

// BuildRegistry constructs the full engine set in display order, honoring
// the disabled list from config. Deep-lookup engines are wrapped with a
// circuit breaker.
func BuildRegistry(cfg config.EnginesConfig, logger *slog.Logger) *Registry {
	all := []domain.Engine{
		NewGoogle(),
		NewBing(),
		NewYandex(),
		WithBreaker(NewIQDB(logger), logger),
		NewTinEye(logger),
		NewAscii2D(logger),
		WithBreaker(NewSauceNAO(cfg.SauceNAOAPIKey, logger), logger),
		WithBreaker(NewTraceMoe(logger), logger),
	}

	var enabled []domain.Engine
	for _, e := range all {
		if slices.Contains(cfg.Disabled, e.Name()) {
			logger.Info("engine disabled by config", "engine", e.Name())
			continue
		}
		enabled = append(enabled, e)
	}
	return NewRegistry(enabled...)
}
