// Package engine decides which dependency metadata records matter to a build
// and produces them: version selection, record lookup, applicability rules,
// verification, generation and deployment.
package engine

import (
	"log/slog"
	"sort"

	"github.com/git-pkgs/depmeta/internal/core"
)

// SelectVersionsToCheck returns every published version at or above
// dependencyVersion, ascending. Published versions that cannot be parsed are
// skipped and logged at debug level; logger may be nil.
func SelectVersionsToCheck(published []string, dependencyVersion string, logger *slog.Logger) ([]string, error) {
	return selectVersions(published, dependencyVersion, logger, func(cmp int) bool { return cmp >= 0 })
}

// SelectBackfillVersions returns every published version strictly below own, ascending.
func SelectBackfillVersions(published []string, own string, logger *slog.Logger) ([]string, error) {
	return selectVersions(published, own, logger, func(cmp int) bool { return cmp < 0 })
}

func selectVersions(published []string, pivot string, logger *slog.Logger, keep func(int) bool) ([]string, error) {
	if len(published) == 0 {
		return nil, nil
	}
	ref, err := core.ParseVersion(pivot)
	if err != nil {
		return nil, err
	}

	type candidate struct {
		raw    string
		parsed core.ComparableVersion
	}
	seen := make(map[string]bool, len(published))
	var selected []candidate
	for _, v := range published {
		if seen[v] {
			continue
		}
		seen[v] = true
		parsed, err := core.ParseVersion(v)
		if err != nil {
			if logger != nil {
				logger.Debug("skipping unparsable published version",
					slog.String("version", v), slog.String("error", err.Error()))
			}
			continue
		}
		if keep(parsed.Compare(ref)) {
			selected = append(selected, candidate{raw: v, parsed: parsed})
		}
	}

	sort.SliceStable(selected, func(i, j int) bool {
		return selected[i].parsed.Compare(selected[j].parsed) < 0
	})

	out := make([]string, len(selected))
	for i, c := range selected {
		out[i] = c.raw
	}
	return out, nil
}
