package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/git-pkgs/depmeta/internal/blob"
	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/record"
)

// DefaultLayout is the only repository layout deployments support.
const DefaultLayout = "default"

// DeployTargets holds the configured deployment repositories.
// The Alt* fields use the id::layout::url syntax.
type DeployTargets struct {
	Repository            string
	AltRepository         string
	AltSnapshotRepository string
	AltReleaseRepository  string
}

// Select picks the repository a record for version is deployed to: the
// snapshot or release alternate when set, else the general alternate,
// else the default deployment repository.
func (t DeployTargets) Select(version string) (core.RepositorySpec, error) {
	alt := t.AltRepository
	switch {
	case core.IsSnapshotVersion(version) && t.AltSnapshotRepository != "":
		alt = t.AltSnapshotRepository
	case !core.IsSnapshotVersion(version) && t.AltReleaseRepository != "":
		alt = t.AltReleaseRepository
	}
	if alt != "" {
		return ParseAltRepository(alt)
	}
	if t.Repository == "" {
		return core.RepositorySpec{}, errors.New("no deployment repository configured; set deploy.repository or an id::layout::url alternate")
	}
	return core.RepositorySpec{ID: "deployment", URL: t.Repository}, nil
}

// ParseAltRepository parses id::layout::url.
func ParseAltRepository(s string) (core.RepositorySpec, error) {
	parts := strings.SplitN(s, "::", 3)
	if len(parts) != 3 {
		return core.RepositorySpec{}, fmt.Errorf("invalid alternate repository %q, use id::layout::url", s)
	}
	id := strings.TrimSpace(parts[0])
	layout := strings.TrimSpace(parts[1])
	url := strings.TrimSpace(parts[2])
	if id == "" || layout == "" || url == "" {
		return core.RepositorySpec{}, fmt.Errorf("invalid alternate repository %q, use id::layout::url", s)
	}
	if layout != DefaultLayout {
		return core.RepositorySpec{}, fmt.Errorf("unsupported repository layout %q in %q", layout, s)
	}
	return core.RepositorySpec{ID: id, URL: url}, nil
}

// Deployer publishes generated record files from an output directory.
type Deployer struct {
	outputDir string
	output    *blob.LocalStore
	target    core.Repository
	logger    *slog.Logger
}

func NewDeployer(outputDir string, target core.Repository, logger *slog.Logger) *Deployer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deployer{
		outputDir: outputDir,
		output:    blob.NewLocalStore(outputDir),
		target:    target,
		logger:    logger,
	}
}

type pending struct {
	coord core.Coordinate
	key   string
	data  []byte
}

// Deploy publishes the record of project's own version or, with scan, every
// <name>-*-metadata.json below the output directory. All files are parsed
// before the first one is published.
func (d *Deployer) Deploy(ctx context.Context, project core.Coordinate, scan bool) ([]core.Coordinate, error) {
	keys, err := d.files(project, scan)
	if err != nil {
		return nil, err
	}

	var batch []pending
	for _, key := range keys {
		version, ok := record.VersionFromFilename(project.Name, path.Base(key))
		if !scan {
			version, ok = project.Version, true
		}
		if !ok {
			d.logger.Debug("skipping file not recording a version of the project", slog.String("file", key))
			continue
		}
		if _, err := core.ParseVersion(version); err != nil {
			d.logger.Warn("skipping record file with unparsable version",
				slog.String("file", key),
				slog.String("version", version))
			continue
		}

		coord := project.Record(version)
		data, err := d.output.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", key, err)
		}
		if _, err := record.Parse(data); err != nil {
			return nil, &core.MalformedRecordError{Coordinate: coord, Err: err}
		}
		batch = append(batch, pending{coord: coord, key: key, data: data})
	}

	deployed := make([]core.Coordinate, 0, len(batch))
	for _, p := range batch {
		if err := d.target.Publish(ctx, p.coord, p.data); err != nil {
			return deployed, fmt.Errorf("deploying %s: %w", p.key, err)
		}
		d.logger.Info("metadata record deployed",
			slog.String("record", p.coord.String()),
			slog.String("repository", d.target.ID()))
		deployed = append(deployed, p.coord)
	}
	return deployed, nil
}

func (d *Deployer) files(project core.Coordinate, scan bool) ([]string, error) {
	if !scan {
		name := record.Filename(project.Name, project.Version)
		if _, err := os.Stat(filepath.Join(d.outputDir, name)); err != nil {
			return nil, fmt.Errorf("metadata record %s not found in %s, run generate first: %w", name, d.outputDir, err)
		}
		return []string{name}, nil
	}

	matches, err := doublestar.Glob(os.DirFS(d.outputDir), "**/"+record.Pattern(project.Name))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", d.outputDir, err)
	}
	sort.Strings(matches)
	if len(matches) == 0 {
		d.logger.Warn("no metadata records found", slog.String("dir", d.outputDir))
	}
	return matches, nil
}
