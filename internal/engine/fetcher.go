package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/metrics"
)

const defaultCacheSize = 4096

// Status classifies a record lookup.
type Status int

const (
	Found Status = iota
	NotFound
	Failed
)

func (s Status) String() string {
	switch s {
	case Found:
		return metrics.LookupFound
	case NotFound:
		return metrics.LookupNotFound
	default:
		return metrics.LookupError
	}
}

// Lookup is the result of fetching one record. Data is set when Status is Found;
// Err holds a *core.TransportError when Status is Failed.
type Lookup struct {
	Coordinate core.Coordinate
	Status     Status
	Data       []byte
	Err        error
}

// RecordFetcher looks up records and version listings, remembering answers
// for the lifetime of one run so a coordinate reached through several paths
// is only fetched once.
type RecordFetcher struct {
	repo     core.Repository
	timeout  time.Duration
	records  *lru.Cache[string, Lookup]
	versions *lru.Cache[string, []string]
	group    singleflight.Group
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

// NewRecordFetcher creates a fetcher over repo. A positive timeout bounds each repository call.
func NewRecordFetcher(repo core.Repository, timeout time.Duration, logger *slog.Logger, m *metrics.Metrics) *RecordFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	records, _ := lru.New[string, Lookup](defaultCacheSize)
	versions, _ := lru.New[string, []string](defaultCacheSize)
	return &RecordFetcher{
		repo:     repo,
		timeout:  timeout,
		records:  records,
		versions: versions,
		logger:   logger,
		metrics:  m,
	}
}

func (f *RecordFetcher) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if f.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, f.timeout)
}

// Fetch looks up the record published alongside coord at version.
// NotFound is an ordinary result; only transport failures are reported as Failed.
func (f *RecordFetcher) Fetch(ctx context.Context, coord core.Coordinate, version string) Lookup {
	rc := coord.Record(version)
	key := rc.String()
	if cached, ok := f.records.Get(key); ok {
		return cached
	}

	v, _, _ := f.group.Do("record:"+key, func() (any, error) {
		if cached, ok := f.records.Get(key); ok {
			return cached, nil
		}
		lookup := f.resolve(ctx, rc)
		if lookup.Status != Failed {
			f.records.Add(key, lookup)
		}
		return lookup, nil
	})
	return v.(Lookup)
}

func (f *RecordFetcher) resolve(ctx context.Context, rc core.Coordinate) Lookup {
	callCtx, cancel := f.callContext(ctx)
	defer cancel()

	start := time.Now()
	data, err := f.repo.Resolve(callCtx, rc)
	f.metrics.ObserveRequest(f.repo.ID(), "resolve", time.Since(start))

	lookup := Lookup{Coordinate: rc}
	switch {
	case err == nil:
		lookup.Status = Found
		lookup.Data = data
	case errors.Is(err, core.ErrNotFound):
		lookup.Status = NotFound
	default:
		lookup.Status = Failed
		lookup.Err = transportError(err, rc, f.repo.ID())
	}

	f.metrics.RecordLookup(lookup.Status.String())
	f.logger.Debug("record lookup",
		slog.String("record", rc.String()),
		slog.String("result", lookup.Status.String()))
	return lookup
}

// Exists reports whether a record is published alongside coord at version
// without downloading it. Data is never set on the returned Lookup.
func (f *RecordFetcher) Exists(ctx context.Context, coord core.Coordinate, version string) Lookup {
	rc := coord.Record(version)
	key := rc.String()
	if cached, ok := f.records.Get(key); ok {
		return Lookup{Coordinate: rc, Status: cached.Status}
	}

	v, _, _ := f.group.Do("exists:"+key, func() (any, error) {
		callCtx, cancel := f.callContext(ctx)
		defer cancel()

		start := time.Now()
		found, err := core.Exists(callCtx, f.repo, rc)
		f.metrics.ObserveRequest(f.repo.ID(), "exists", time.Since(start))

		lookup := Lookup{Coordinate: rc, Status: NotFound}
		switch {
		case err != nil:
			lookup.Status = Failed
			lookup.Err = transportError(err, rc, f.repo.ID())
		case found:
			lookup.Status = Found
		}
		f.metrics.RecordLookup(lookup.Status.String())
		f.logger.Debug("record existence check",
			slog.String("record", key),
			slog.String("result", lookup.Status.String()))
		return lookup, nil
	})
	return v.(Lookup)
}

// Versions returns the published versions of coord's group:name.
func (f *RecordFetcher) Versions(ctx context.Context, coord core.Coordinate) ([]string, error) {
	key := coord.Key()
	if cached, ok := f.versions.Get(key); ok {
		return cached, nil
	}

	v, err, _ := f.group.Do("versions:"+key, func() (any, error) {
		if cached, ok := f.versions.Get(key); ok {
			return cached, nil
		}
		callCtx, cancel := f.callContext(ctx)
		defer cancel()

		start := time.Now()
		versions, err := f.repo.ListVersions(callCtx, coord.WithVersion(""))
		f.metrics.ObserveRequest(f.repo.ID(), "list_versions", time.Since(start))
		if errors.Is(err, core.ErrNotFound) {
			versions, err = nil, nil
		}
		if err != nil {
			return nil, transportError(err, coord.WithVersion(""), f.repo.ID())
		}
		f.versions.Add(key, versions)
		return versions, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// transportError wraps err unless it already is a TransportError.
// A timed-out call is reported as a transport failure as well.
func transportError(err error, coord core.Coordinate, repo string) error {
	var te *core.TransportError
	if errors.As(err, &te) {
		return err
	}
	return &core.TransportError{Coordinate: coord, Repository: repo, Err: err}
}
