// Package maven provides a repository backend for remote Maven2 repositories over HTTP(S).
package maven

import (
	"context"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/git-pkgs/depmeta/client"
	"github.com/git-pkgs/depmeta/fetch"
	"github.com/git-pkgs/depmeta/internal/core"
)

const DefaultURL = "https://repo1.maven.org/maven2"

func init() {
	factory := func(spec core.RepositorySpec, opts core.Options) (core.Repository, error) {
		return New(spec, opts), nil
	}
	core.Register("http", factory)
	core.Register("https", factory)
}

// Repository talks to one remote Maven2 repository.
type Repository struct {
	id       string
	fetcher  fetch.FetcherInterface
	resolver *fetch.Resolver
	layout   *client.Maven2
	timeout  time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a repository for spec with a retrying, circuit-broken HTTP fetcher.
func New(spec core.RepositorySpec, opts core.Options) *Repository {
	fopts := []fetch.Option{
		fetch.WithBasicAuth(spec.Username, spec.Password),
		fetch.WithMaxRetries(opts.MaxRetries),
	}
	if opts.UserAgent != "" {
		fopts = append(fopts, fetch.WithUserAgent(opts.UserAgent))
	}
	f := fetch.NewCircuitBreakerFetcher(fetch.NewFetcher(fopts...))
	return NewWithFetcher(spec, opts, f)
}

// NewWithFetcher creates a repository using the given fetcher.
func NewWithFetcher(spec core.RepositorySpec, opts core.Options, f fetch.FetcherInterface) *Repository {
	baseURL := spec.URL
	if baseURL == "" {
		baseURL = DefaultURL
	}
	id := spec.ID
	if id == "" {
		id = baseURL
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	resolver := fetch.NewResolver(f, baseURL)
	return &Repository{
		id:       id,
		fetcher:  f,
		resolver: resolver,
		layout:   resolver.Layout(),
		timeout:  opts.Timeout,
		logger:   logger,
		now:      time.Now,
	}
}

func (r *Repository) ID() string {
	return r.id
}

func (r *Repository) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, r.timeout)
}

// Resolve downloads the artifact at coord. -SNAPSHOT versions resolve to the
// latest timestamped build when the repository publishes one.
func (r *Repository) Resolve(ctx context.Context, coord core.Coordinate) ([]byte, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	info, err := r.resolver.Resolve(ctx, coord)
	if err != nil {
		return nil, r.wrap(coord, err)
	}

	data, err := fetch.ReadAll(ctx, r.fetcher, info.URL)
	if err != nil {
		return nil, r.wrap(coord, err)
	}

	r.logger.Debug("resolved artifact",
		slog.String("repository", r.id),
		slog.String("url", info.URL))
	return data, nil
}

// Exists reports whether the artifact at coord is present, with a HEAD request
// instead of a download.
func (r *Repository) Exists(ctx context.Context, coord core.Coordinate) (bool, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	info, err := r.resolver.Resolve(ctx, coord)
	if err == nil {
		_, _, err = r.fetcher.Head(ctx, info.URL)
	}
	if errors.Is(err, fetch.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, r.wrap(coord, err)
	}
	return true, nil
}

// ListVersions reads the version index from maven-metadata.xml.
func (r *Repository) ListVersions(ctx context.Context, coord core.Coordinate) ([]string, error) {
	meta, err := r.readMetadata(ctx, coord)
	if errors.Is(err, core.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return meta.Versioning.Versions, nil
}

func (r *Repository) readMetadata(ctx context.Context, coord core.Coordinate) (*client.Metadata, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	data, err := fetch.ReadAll(ctx, r.fetcher, r.layout.Metadata(coord))
	if err != nil {
		return nil, r.wrap(coord, err)
	}
	meta, err := client.ParseMetadata(data)
	if err != nil {
		return nil, &core.TransportError{Coordinate: coord, Repository: r.id, Err: err}
	}
	return meta, nil
}

// Publish uploads data with .sha1 and .md5 checksum sidecars, then adds the
// version to the artifact's maven-metadata.xml.
func (r *Repository) Publish(ctx context.Context, coord core.Coordinate, data []byte) error {
	url := r.layout.Artifact(coord)
	if err := r.putWithChecksums(ctx, url, data, contentType(coord.Type)); err != nil {
		return r.wrap(coord, err)
	}
	r.logger.Info("published artifact",
		slog.String("repository", r.id),
		slog.String("url", url))

	return r.updateMetadata(ctx, coord)
}

func (r *Repository) updateMetadata(ctx context.Context, coord core.Coordinate) error {
	meta, err := r.readMetadata(ctx, coord)
	switch {
	case errors.Is(err, core.ErrNotFound):
		meta = &client.Metadata{GroupID: coord.Group, ArtifactID: coord.Name}
	case err != nil:
		return err
	}

	if !meta.AddVersion(coord.Version, r.now()) {
		return nil
	}
	if err := core.SortVersions(meta.Versioning.Versions); err == nil {
		meta.Versioning.Latest = meta.Versioning.Versions[len(meta.Versioning.Versions)-1]
	}
	if !coord.IsSnapshot() {
		meta.Versioning.Release = latestRelease(meta.Versioning.Versions, meta.Versioning.Release)
	}

	data, err := meta.Marshal()
	if err != nil {
		return err
	}
	if err := r.putWithChecksums(ctx, r.layout.Metadata(coord), data, "application/xml"); err != nil {
		return r.wrap(coord, err)
	}
	return nil
}

func (r *Repository) putWithChecksums(ctx context.Context, url string, data []byte, contentType string) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	sha := sha1.Sum(data)
	sum := md5.Sum(data)

	uploads := []struct {
		url, contentType string
		body             []byte
	}{
		{url, contentType, data},
		{url + ".sha1", "text/plain", []byte(hex.EncodeToString(sha[:]))},
		{url + ".md5", "text/plain", []byte(hex.EncodeToString(sum[:]))},
	}
	for _, u := range uploads {
		if err := r.fetcher.Put(ctx, u.url, u.body, u.contentType); err != nil {
			return fmt.Errorf("uploading %s: %w", u.url, err)
		}
	}
	return nil
}

// wrap translates transport errors into core errors.
func (r *Repository) wrap(coord core.Coordinate, err error) error {
	if errors.Is(err, fetch.ErrNotFound) {
		return &core.NotFoundError{Coordinate: coord, Repository: r.id}
	}
	var te *core.TransportError
	if errors.As(err, &te) {
		return err
	}
	attrs := []any{
		slog.String("repository", r.id),
		slog.String("artifact", coord.String()),
		slog.String("error", err.Error()),
	}
	if cb, ok := r.fetcher.(*fetch.CircuitBreakerFetcher); ok {
		attrs = append(attrs, slog.Any("breakers", cb.BreakerState()))
	}
	r.logger.Warn("repository request failed", attrs...)
	return &core.TransportError{Coordinate: coord, Repository: r.id, Err: err}
}

// latestRelease returns the highest non-snapshot version in sorted, or current if there is none.
func latestRelease(sorted []string, current string) string {
	for i := len(sorted) - 1; i >= 0; i-- {
		if !core.IsSnapshotVersion(sorted[i]) {
			return sorted[i]
		}
	}
	return current
}

func contentType(typ string) string {
	switch typ {
	case "json":
		return "application/json"
	case "pom", "xml":
		return "application/xml"
	case "", "jar":
		return "application/java-archive"
	default:
		return "application/octet-stream"
	}
}
