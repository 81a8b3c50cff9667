package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/git-pkgs/depmeta/client"
	"github.com/git-pkgs/depmeta/internal/core"
)

func init() {
	core.Register("file", openFile)
	core.Register("s3", openS3)
}

// indexFiles are the version index names checked in order. Local repositories
// written by Maven itself keep maven-metadata-local.xml.
var indexFiles = []string{client.MetadataFile, "maven-metadata-local.xml"}

// Repository stores artifacts in a BlobStore using the Maven2 layout.
type Repository struct {
	id     string
	store  BlobStore
	layout *client.Maven2
	logger *slog.Logger
	now    func() time.Time
}

// NewRepository creates a repository over store.
func NewRepository(id string, store BlobStore, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		id:     id,
		store:  store,
		layout: client.NewMaven2(""),
		logger: logger,
		now:    time.Now,
	}
}

func (r *Repository) ID() string {
	return r.id
}

func (r *Repository) Resolve(ctx context.Context, coord core.Coordinate) ([]byte, error) {
	data, err := r.store.Get(ctx, r.layout.Artifact(coord))
	if err != nil {
		return nil, r.wrap(coord, err)
	}
	return data, nil
}

// ListVersions reads the version index when the repository has one and
// otherwise derives versions from the version directories under group/name.
func (r *Repository) ListVersions(ctx context.Context, coord core.Coordinate) ([]string, error) {
	meta, _, err := r.readIndex(ctx, coord)
	if err == nil {
		return meta.Versioning.Versions, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, r.wrap(coord, err)
	}

	dir := r.layout.Directory(coord)
	keys, err := r.store.List(ctx, dir)
	if err != nil {
		return nil, r.wrap(coord, err)
	}
	return versionsFromKeys(dir, keys), nil
}

func (r *Repository) readIndex(ctx context.Context, coord core.Coordinate) (*client.Metadata, string, error) {
	dir := r.layout.Directory(coord)
	for _, name := range indexFiles {
		key := dir + name
		data, err := r.store.Get(ctx, key)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, "", err
		}
		meta, err := client.ParseMetadata(data)
		if err != nil {
			return nil, "", err
		}
		return meta, key, nil
	}
	return nil, "", ErrNotFound
}

// Cache stores data without touching the version index, so a record copied
// from a remote does not mark its version as installed.
func (r *Repository) Cache(ctx context.Context, coord core.Coordinate, data []byte) error {
	key := r.layout.Artifact(coord)
	if err := r.store.Put(ctx, key, data); err != nil {
		return r.wrap(coord, err)
	}
	r.logger.Debug("stored artifact",
		slog.String("repository", r.id),
		slog.String("key", key))
	return nil
}

// Publish stores data and, when the repository keeps a version index, adds the version to it.
func (r *Repository) Publish(ctx context.Context, coord core.Coordinate, data []byte) error {
	if err := r.Cache(ctx, coord, data); err != nil {
		return err
	}

	meta, indexKey, err := r.readIndex(ctx, coord)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return r.wrap(coord, err)
	}
	if !meta.AddVersion(coord.Version, r.now()) {
		return nil
	}
	_ = core.SortVersions(meta.Versioning.Versions)

	index, err := meta.Marshal()
	if err != nil {
		return err
	}
	if err := r.store.Put(ctx, indexKey, index); err != nil {
		return r.wrap(coord, err)
	}
	return nil
}

func (r *Repository) wrap(coord core.Coordinate, err error) error {
	if errors.Is(err, ErrNotFound) {
		return &core.NotFoundError{Coordinate: coord, Repository: r.id}
	}
	return &core.TransportError{Coordinate: coord, Repository: r.id, Err: err}
}

// versionsFromKeys returns the version directory names that contain at least one file.
func versionsFromKeys(dir string, keys []string) []string {
	seen := make(map[string]bool)
	var versions []string
	for _, key := range keys {
		rest, ok := strings.CutPrefix(key, dir)
		if !ok {
			continue
		}
		version, file, ok := strings.Cut(rest, "/")
		if !ok || file == "" || strings.Contains(file, "/") || strings.HasPrefix(version, ".") {
			continue
		}
		if !seen[version] {
			seen[version] = true
			versions = append(versions, version)
		}
	}
	if err := core.SortVersions(versions); err != nil {
		sort.Strings(versions)
	}
	return versions
}

func openFile(spec core.RepositorySpec, opts core.Options) (core.Repository, error) {
	root, err := LocalPath(spec.URL)
	if err != nil {
		return nil, err
	}
	return NewRepository(spec.ID, NewLocalStore(root), opts.Logger), nil
}

// LocalPath converts a file: URL or plain path into a filesystem path,
// expanding a leading ~ to the user's home directory.
func LocalPath(raw string) (string, error) {
	path := raw
	if strings.HasPrefix(raw, "file:") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("invalid file repository URL %q: %w", raw, err)
		}
		path = u.Path
		if path == "" {
			path = u.Opaque
		}
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", raw, err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	if path == "" {
		return "", fmt.Errorf("empty repository path")
	}
	return filepath.Clean(path), nil
}

// openS3 handles s3://bucket/prefix URLs; endpoint and credentials come from opts.S3.
func openS3(spec core.RepositorySpec, opts core.Options) (core.Repository, error) {
	u, err := url.Parse(spec.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 repository URL %q: %w", spec.URL, err)
	}
	cfg := S3Config{
		Endpoint:  opts.S3.Endpoint,
		Region:    opts.S3.Region,
		AccessKey: opts.S3.AccessKey,
		SecretKey: opts.S3.SecretKey,
		UseSSL:    opts.S3.UseSSL,
		Bucket:    u.Host,
		Prefix:    u.Path,
	}
	if spec.Username != "" {
		cfg.AccessKey, cfg.SecretKey = spec.Username, spec.Password
	}
	store, err := NewMinioStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", spec.URL, err)
	}
	return NewRepository(spec.ID, store, opts.Logger), nil
}
