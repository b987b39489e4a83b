package metrics

import (
	"sort"
	"strings"

	"github.com/trannam110702/lighthouse-sub001/errors"
	grapherr "github.com/trannam110702/lighthouse-sub001/graph/error"
)

// Kinds lists every metric kind in dependency order.
func Kinds() []Kind {
	return []Kind{
		FirstContentfulPaint,
		LargestContentfulPaint,
		Interactive,
		SpeedIndex,
		MaxPotentialFID,
		TotalBlockingTime,
	}
}

// Registry builds the table of metric implementations.
func Registry() map[Kind]Metric {
	return map[Kind]Metric{
		FirstContentfulPaint:   firstContentfulPaint{},
		LargestContentfulPaint: largestContentfulPaint{},
		Interactive:            interactive{},
		SpeedIndex:             speedIndex{},
		MaxPotentialFID:        maxPotentialFID{},
		TotalBlockingTime:      totalBlockingTime{},
	}
}

var aliases = map[string]Kind{
	"fcp":         FirstContentfulPaint,
	"lcp":         LargestContentfulPaint,
	"tti":         Interactive,
	"interactive": Interactive,
	"si":          SpeedIndex,
	"mpfid":       MaxPotentialFID,
	"tbt":         TotalBlockingTime,
}

// ParseKind accepts a kind name or its short alias, case-insensitively.
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if k, ok := aliases[name]; ok {
		return k, nil
	}
	for _, k := range Kinds() {
		if strings.ToLower(string(k)) == name {
			return k, nil
		}
	}
	names := make([]string, 0, len(aliases))
	for alias := range aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	err := grapherr.UnknownMetric(s, errors.NewInvalidRequestError("unknown metric %q", s))
	return "", errors.WithHintf(err, "known metrics: %s", strings.Join(names, ", "))
}

// Resolve expands kinds with their transitive dependencies and returns them
// so every dependency precedes its dependents.
func Resolve(registry map[Kind]Metric, kinds ...Kind) ([]Kind, error) {
	var out []Kind
	seen := make(map[Kind]bool)
	var visit func(k Kind) error
	visit = func(k Kind) error {
		if seen[k] {
			return nil
		}
		m, ok := registry[k]
		if !ok {
			return grapherr.UnknownMetric(string(k), errors.NewNotFoundError("metric %s is not registered", k))
		}
		seen[k] = true
		for _, dep := range m.Dependencies() {
			if err := visit(dep); err != nil {
				return err
			}
		}
		out = append(out, k)
		return nil
	}
	for _, k := range kinds {
		if err := visit(k); err != nil {
			return nil, err
		}
	}
	return out, nil
}
