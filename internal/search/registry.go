package search

import (
	"go.uber.org/zap"

	"github.com/sells-group/homematch/internal/config"
	"github.com/sells-group/homematch/pkg/nominatim"
)

// Deps carries everything a source constructor might need.
type Deps struct {
	Config   *config.Config
	Geocoder nominatim.Client
}

type constructor func(Deps) (Source, error)

var constructors = map[string]constructor{
	"zillow":  newZillowSource,
	"realtor": newRealtorSource,
	"mock":    newMockSource,
}

// BuildSources instantiates the sources named in the config. A source whose
// constructor fails, typically on missing credentials, is skipped with a
// warning rather than blocking the rest.
func BuildSources(deps Deps) []Source {
	sources := make([]Source, 0, len(deps.Config.Search.Sources))
	for _, name := range deps.Config.Search.Sources {
		ctor, ok := constructors[name]
		if !ok {
			zap.L().Warn("unknown search source", zap.String("source", name))
			continue
		}
		src, err := ctor(deps)
		if err != nil {
			zap.L().Warn("search source unavailable",
				zap.String("source", name),
				zap.Error(err))
			continue
		}
		sources = append(sources, src)
	}
	return sources
}
