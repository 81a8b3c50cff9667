package engine

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/record"
)

// memRepo is an in-memory core.Repository. Errors in fail are keyed by the
// record coordinate string for Resolve and by group:name for ListVersions.
type memRepo struct {
	mu        sync.Mutex
	id        string
	records   map[string][]byte
	versions  map[string][]string
	fail      map[string]error
	resolves  map[string]int
	lists     map[string]int
	published []core.Coordinate
}

func newMemRepo() *memRepo {
	return &memRepo{
		id:       "mem",
		records:  make(map[string][]byte),
		versions: make(map[string][]string),
		fail:     make(map[string]error),
		resolves: make(map[string]int),
		lists:    make(map[string]int),
	}
}

func (r *memRepo) ID() string { return r.id }

func (r *memRepo) Resolve(_ context.Context, coord core.Coordinate) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := coord.String()
	r.resolves[key]++
	if err, ok := r.fail[key]; ok {
		return nil, err
	}
	data, ok := r.records[key]
	if !ok {
		return nil, &core.NotFoundError{Coordinate: coord, Repository: r.id}
	}
	return data, nil
}

func (r *memRepo) ListVersions(_ context.Context, coord core.Coordinate) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := coord.Key()
	r.lists[key]++
	if err, ok := r.fail[key]; ok {
		return nil, err
	}
	return r.versions[key], nil
}

func (r *memRepo) Publish(_ context.Context, coord core.Coordinate, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[coord.String()] = data
	r.published = append(r.published, coord)
	key := coord.Key()
	for _, v := range r.versions[key] {
		if v == coord.Version {
			return nil
		}
	}
	r.versions[key] = append(r.versions[key], coord.Version)
	return nil
}

func (r *memRepo) resolveCount(coord core.Coordinate) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolves[coord.String()]
}

func (r *memRepo) listCount(coord core.Coordinate) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lists[coord.Key()]
}

// release registers versions of group:name without any records.
func (r *memRepo) release(coord core.Coordinate, versions ...string) {
	r.versions[coord.Key()] = append(r.versions[coord.Key()], versions...)
}

// attach stores rec as the record published at version.
func (r *memRepo) attach(t *testing.T, coord core.Coordinate, version string, rec core.Record) {
	t.Helper()
	r.records[coord.Record(version).String()] = encode(t, rec)
}

type memDeps struct {
	direct     []core.Dependency
	transitive []core.Dependency
	closures   int
}

func (d *memDeps) DirectDependencies(context.Context, core.Coordinate) ([]core.Dependency, error) {
	return d.direct, nil
}

func (d *memDeps) TransitiveClosure(context.Context, core.Coordinate) ([]core.Dependency, error) {
	d.closures++
	return append(append([]core.Dependency{}, d.direct...), d.transitive...), nil
}

func encode(t *testing.T, rec core.Record) []byte {
	t.Helper()
	data, err := record.Encode(rec)
	require.NoError(t, err)
	return data
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func coord(name, version string) core.Coordinate {
	return core.Coordinate{Group: "com.example", Name: name, Version: version}
}

func dep(name, version string, direct bool) core.Dependency {
	return core.Dependency{Coordinate: coord(name, version), Direct: direct}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	require.Equal(t, 1, cfg.concurrency())
	require.Equal(t, core.DefaultFormatVersion, cfg.formatVersion())
	require.NotNil(t, cfg.logger())

	cfg = Config{Concurrency: 4, FormatVersion: 1}
	require.Equal(t, 4, cfg.concurrency())
	require.Equal(t, 1, cfg.formatVersion())
}
