package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/metrics"
)

// Verifier checks a project's dependencies against their published metadata records.
type Verifier struct {
	cfg     Config
	fetcher *RecordFetcher
	logger  *slog.Logger
}

// NewVerifier creates a verifier. The record cache lives as long as the verifier.
func NewVerifier(cfg Config) *Verifier {
	logger := cfg.logger()
	return &Verifier{
		cfg:     cfg,
		fetcher: NewRecordFetcher(cfg.Repository, cfg.Timeout, logger, cfg.Metrics),
		logger:  logger,
	}
}

// Verify checks the direct dependencies of project and, when transitive is set,
// its whole transitive closure.
func (v *Verifier) Verify(ctx context.Context, project core.Coordinate, transitive bool) (*core.Verdict, error) {
	if v.cfg.Dependencies == nil {
		return nil, errors.New("no dependency source configured")
	}

	deps, err := v.cfg.Dependencies.DirectDependencies(ctx, project)
	if err != nil {
		return nil, fmt.Errorf("listing dependencies of %s: %w", project.Key(), err)
	}
	if transitive {
		closure, err := v.cfg.Dependencies.TransitiveClosure(ctx, project)
		if err != nil {
			return nil, fmt.Errorf("resolving transitive dependencies of %s: %w", project.Key(), err)
		}
		deps = append(deps, closure...)
	}

	return v.VerifyDependencies(ctx, deps)
}

// VerifyDependencies checks an explicit dependency set. Every dependency is evaluated
// before the verdict is returned; a transport failure, malformed record, or
// unparsable dependency version aborts the run with no verdict.
func (v *Verifier) VerifyDependencies(ctx context.Context, deps []core.Dependency) (*core.Verdict, error) {
	deps = dedupe(deps)
	logger := v.logger.With(slog.String("run_id", uuid.NewString()))
	logger.Info("verifying dependency metadata",
		slog.Int("dependencies", len(deps)),
		slog.Int("format_version", v.cfg.formatVersion()))

	results := make([][]core.Outcome, len(deps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.concurrency())
	for i, dep := range deps {
		g.Go(func() error {
			outcomes, err := v.checkDependency(gctx, logger, dep)
			if err != nil {
				return err
			}
			results[i] = outcomes
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	verdict := &core.Verdict{Checked: len(deps)}
	for _, outcomes := range results {
		for _, o := range outcomes {
			if o.Severity == core.SeverityFail {
				verdict.HardFailures = append(verdict.HardFailures, o)
			} else {
				verdict.Warnings = append(verdict.Warnings, o)
			}
		}
	}

	logger.Info("verification finished",
		slog.Int("hard_failures", len(verdict.HardFailures)),
		slog.Int("warnings", len(verdict.Warnings)))
	return verdict, nil
}

func (v *Verifier) checkDependency(ctx context.Context, logger *slog.Logger, dep core.Dependency) ([]core.Outcome, error) {
	versions, err := v.fetcher.Versions(ctx, dep.Coordinate)
	if err != nil {
		return nil, err
	}
	candidates, err := SelectVersionsToCheck(versions, dep.Version, logger)
	if err != nil {
		return nil, fmt.Errorf("dependency %s: %w", dep.Coordinate, err)
	}

	var outcomes []core.Outcome
	for _, version := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lookup := v.fetcher.Fetch(ctx, dep.Coordinate, version)
		switch lookup.Status {
		case NotFound:
			continue
		case Failed:
			return nil, lookup.Err
		}

		eval, err := Evaluate(lookup.Coordinate, lookup.Data, dep.Version, v.cfg.formatVersion())
		if err != nil {
			return nil, err
		}
		if !eval.Applicable() {
			v.cfg.Metrics.RecordOutcome(metrics.OutcomeIgnored)
			logger.Debug("record ignored",
				slog.String("dependency", dep.Coordinate.String()),
				slog.String("record", lookup.Coordinate.String()),
				slog.String("reason", string(eval.Reason)))
			continue
		}

		o := core.Outcome{
			Dependency:    dep,
			Source:        lookup.Coordinate,
			OriginVersion: version,
			Severity:      eval.Record.Severity(),
			Message:       eval.Record.Message,
		}
		v.cfg.Metrics.RecordOutcome(string(o.Severity))
		outcomes = append(outcomes, o)
	}
	return outcomes, nil
}

// dedupe drops repeated dependencies, keeping first-seen order.
// An entry reachable both directly and transitively counts as direct.
func dedupe(deps []core.Dependency) []core.Dependency {
	index := make(map[string]int, len(deps))
	out := make([]core.Dependency, 0, len(deps))
	for _, d := range deps {
		key := d.Coordinate.String()
		if i, ok := index[key]; ok {
			out[i].Direct = out[i].Direct || d.Direct
			continue
		}
		index[key] = len(out)
		out = append(out, d)
	}
	return out
}
