package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/git-pkgs/depmeta/internal/blob"
	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/record"
)

// Target is one record the generator produces.
type Target struct {
	Version string
	Record  core.Record
	// Published is set when the repository already holds this exact record.
	Published bool
}

// Generated describes what happened to one target on disk.
type Generated struct {
	Target
	Path string
	// Written is false when the file already existed with identical content
	// or the record is already published.
	Written bool
}

// Generator produces metadata records for a project.
type Generator struct {
	cfg     Config
	fetcher *RecordFetcher
	output  *blob.LocalStore
	logger  *slog.Logger
}

// NewGenerator creates a generator writing record files into outputDir.
func NewGenerator(cfg Config, outputDir string) *Generator {
	logger := cfg.logger()
	return &Generator{
		cfg:     cfg,
		fetcher: NewRecordFetcher(cfg.Repository, cfg.Timeout, logger, cfg.Metrics),
		output:  blob.NewLocalStore(outputDir),
		logger:  logger,
	}
}

// Plan returns the (version, record) pairs to produce: the project's own version
// first, then, with backfill, every lower published version that carries no record yet.
// A differing record already published at the project's own version is a
// ConflictingRecordError.
func (g *Generator) Plan(ctx context.Context, project core.Coordinate, rec core.Record, backfill bool) ([]Target, error) {
	if _, err := core.ParseVersion(project.Version); err != nil {
		return nil, fmt.Errorf("project %s: %w", project.Key(), err)
	}

	own, err := g.planOwn(ctx, project, rec)
	if err != nil {
		return nil, err
	}
	targets := []Target{own}
	if !backfill {
		return targets, nil
	}

	versions, err := g.fetcher.Versions(ctx, project)
	if err != nil {
		return nil, err
	}
	lower, err := SelectBackfillVersions(versions, project.Version, g.logger)
	if err != nil {
		return nil, err
	}
	for _, version := range lower {
		lookup := g.fetcher.Exists(ctx, project, version)
		switch lookup.Status {
		case Failed:
			return nil, lookup.Err
		case Found:
			g.logger.Info("metadata record already exists, skipping",
				slog.String("record", lookup.Coordinate.String()))
			continue
		}
		targets = append(targets, Target{Version: version, Record: rec})
	}
	return targets, nil
}

func (g *Generator) planOwn(ctx context.Context, project core.Coordinate, rec core.Record) (Target, error) {
	target := Target{Version: project.Version, Record: rec}

	lookup := g.fetcher.Fetch(ctx, project, project.Version)
	switch lookup.Status {
	case Failed:
		return Target{}, lookup.Err
	case NotFound:
		return target, nil
	}

	existing, err := record.Parse(lookup.Data)
	if err != nil {
		return Target{}, &core.MalformedRecordError{Coordinate: lookup.Coordinate, Err: err}
	}
	if existing != rec {
		return Target{}, &core.ConflictingRecordError{Coordinate: lookup.Coordinate, Location: g.cfg.Repository.ID()}
	}
	target.Published = true
	return target, nil
}

// Generate plans the records for project and writes each unpublished one into
// the output directory as <name>-<version>-metadata.json. Running it again with
// the same inputs leaves identical files untouched; a differing file on disk is
// a ConflictingRecordError.
func (g *Generator) Generate(ctx context.Context, project core.Coordinate, rec core.Record, backfill bool) ([]Generated, error) {
	targets, err := g.Plan(ctx, project, rec, backfill)
	if err != nil {
		return nil, err
	}

	results := make([]Generated, 0, len(targets))
	for _, t := range targets {
		name := record.Filename(project.Name, t.Version)
		res := Generated{Target: t, Path: filepath.Join(g.output.Root, name)}
		if t.Published {
			g.logger.Info("metadata record already published, skipping",
				slog.String("record", project.Record(t.Version).String()))
			results = append(results, res)
			continue
		}

		written, err := g.write(ctx, project.Record(t.Version), name, t.Record)
		if err != nil {
			return nil, err
		}
		res.Written = written
		if written {
			g.logger.Info("metadata record generated", slog.String("path", res.Path))
		}
		results = append(results, res)
	}
	return results, nil
}

func (g *Generator) write(ctx context.Context, coord core.Coordinate, name string, rec core.Record) (bool, error) {
	data, err := record.Encode(rec)
	if err != nil {
		return false, err
	}

	existing, err := g.output.Get(ctx, name)
	switch {
	case err == nil:
		if bytes.Equal(existing, data) {
			return false, nil
		}
		return false, &core.ConflictingRecordError{Coordinate: coord, Location: filepath.Join(g.output.Root, name)}
	case !errors.Is(err, blob.ErrNotFound):
		return false, fmt.Errorf("reading %s: %w", name, err)
	}

	if err := g.output.Put(ctx, name, data); err != nil {
		return false, fmt.Errorf("writing %s: %w", name, err)
	}
	return true, nil
}
