package engine

import (
	"log/slog"
	"time"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/metrics"
)

// Config carries everything one engine run needs. Nothing is read from globals.
type Config struct {
	// Repository answers record lookups and version listings, usually a *core.Chain.
	Repository core.Repository
	// Dependencies supplies the project's dependency set. Only Verify needs it.
	Dependencies core.DependencySource

	FormatVersion int
	// Concurrency bounds the dependencies evaluated at once. Zero means one.
	Concurrency int
	// Timeout bounds each repository round trip. Zero means no limit.
	Timeout time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

func (c Config) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

func (c Config) concurrency() int {
	if c.Concurrency <= 0 {
		return 1
	}
	return c.Concurrency
}

func (c Config) formatVersion() int {
	if c.FormatVersion == 0 {
		return core.DefaultFormatVersion
	}
	return c.FormatVersion
}
