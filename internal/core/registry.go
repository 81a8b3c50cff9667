package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository is the interface implemented by every artifact repository backend.
type Repository interface {
	// ID returns the configured repository id, used in logs and errors.
	ID() string

	// Resolve returns the bytes of the artifact at coord.
	// A missing artifact yields an error wrapping ErrNotFound.
	Resolve(ctx context.Context, coord Coordinate) ([]byte, error)

	// ListVersions returns every published version of coord's group:name.
	// An unknown artifact yields an empty list, not an error.
	ListVersions(ctx context.Context, coord Coordinate) ([]string, error)

	// Publish uploads data as the artifact at coord.
	Publish(ctx context.Context, coord Coordinate, data []byte) error
}

// DependencySource supplies a project's resolved dependency set.
type DependencySource interface {
	// DirectDependencies returns the dependencies declared by project.
	DirectDependencies(ctx context.Context, project Coordinate) ([]Dependency, error)

	// TransitiveClosure returns every dependency reachable from project, direct ones included.
	TransitiveClosure(ctx context.Context, project Coordinate) ([]Dependency, error)
}

// RepositorySpec describes one configured repository.
type RepositorySpec struct {
	ID       string `mapstructure:"id"`
	URL      string `mapstructure:"url"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// S3Options configures S3-compatible repository backends.
type S3Options struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	UseSSL    bool
}

// Options carries the shared settings passed to every backend factory.
type Options struct {
	Logger     *slog.Logger
	UserAgent  string
	MaxRetries int
	Timeout    time.Duration
	S3         S3Options
}

// Factory creates a repository for spec.
type Factory func(spec RepositorySpec, opts Options) (Repository, error)

var (
	factories = make(map[string]Factory)
	mu        sync.RWMutex
)

// Register adds a repository factory for a URL scheme (e.g., "https", "file", "s3").
func Register(scheme string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[scheme] = factory
}

// Open creates a repository for spec, selecting the backend by the URL scheme.
// URLs without a scheme are treated as filesystem paths.
func Open(spec RepositorySpec, opts Options) (Repository, error) {
	scheme := Scheme(spec.URL)

	mu.RLock()
	factory, ok := factories[scheme]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unsupported repository scheme %q for %s", scheme, spec.URL)
	}
	if spec.ID == "" {
		spec.ID = spec.URL
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return factory(spec, opts)
}

// Scheme returns the lower-cased scheme of a repository URL, "file" for plain paths.
func Scheme(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || len(u.Scheme) <= 1 {
		// Windows drive letters parse as one-letter schemes.
		return "file"
	}
	return strings.ToLower(u.Scheme)
}

// SupportedSchemes returns all registered repository URL schemes.
func SupportedSchemes() []string {
	mu.RLock()
	defer mu.RUnlock()

	schemes := make([]string, 0, len(factories))
	for s := range factories {
		schemes = append(schemes, s)
	}
	sort.Strings(schemes)
	return schemes
}
