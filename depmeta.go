// Package depmeta publishes and verifies dependency metadata records.
//
// A metadata record is a small JSON document published next to a library
// version in a Maven-layout repository. It can mark that version, and
// optionally every version before it, as deprecated with a warning or a hard
// failure. Verification walks a project's dependencies, fetches the records
// of each dependency's version and every later version, and aggregates the
// applicable ones into a Verdict.
//
// Basic usage:
//
//	import (
//		"context"
//		"github.com/git-pkgs/depmeta"
//		_ "github.com/git-pkgs/depmeta/all"
//	)
//
//	repo, err := depmeta.OpenRepository(depmeta.RepositorySpec{
//		ID:  "central",
//		URL: "https://repo1.maven.org/maven2",
//	}, depmeta.Options{})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	lock, err := depmeta.LoadLockfile("depmeta.lock.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	verdict, err := depmeta.Verify(ctx, depmeta.Config{
//		Repository:   repo,
//		Dependencies: lock,
//	}, lock.Project, false)
//	if err != nil {
//		log.Fatal(err) // repository or record problems, no verdict
//	}
//	if err := verdict.Err(); err != nil {
//		log.Fatal(err) // hard failures
//	}
package depmeta

import (
	"context"
	"log/slog"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/depsource"
	"github.com/git-pkgs/depmeta/internal/engine"
	"github.com/git-pkgs/depmeta/internal/record"
)

// Re-export types from internal/core
type (
	// Coordinate identifies a published artifact.
	Coordinate = core.Coordinate

	// Dependency is a coordinate resolved to one version in a project.
	Dependency = core.Dependency

	// Record is the advisory payload published alongside a library version.
	Record = core.Record

	// Severity is the consequence of an applicable record.
	Severity = core.Severity

	// Outcome is one applicable record triggered by a dependency.
	Outcome = core.Outcome

	// Verdict is the aggregated result of a verification run.
	Verdict = core.Verdict

	// Repository is the interface implemented by every repository backend.
	Repository = core.Repository

	// DependencySource supplies a project's resolved dependency set.
	DependencySource = core.DependencySource

	// RepositorySpec describes one configured repository.
	RepositorySpec = core.RepositorySpec

	// Options carries settings shared by every repository backend.
	Options = core.Options

	// Chain consults a local cache and then each remote repository in order.
	Chain = core.Chain

	// Lockfile is a DependencySource read from a YAML lockfile.
	Lockfile = depsource.Lockfile
)

// Re-export engine types
type (
	// Config carries the repository, dependency source and limits of a run.
	Config = engine.Config

	// Generated describes one record produced by Generate.
	Generated = engine.Generated

	// DeployTargets holds the configured deployment repositories.
	DeployTargets = engine.DeployTargets
)

// Re-export constants
const (
	SeverityFail = core.SeverityFail
	SeverityWarn = core.SeverityWarn

	DefaultFormatVersion = core.DefaultFormatVersion
	DefaultMessage       = core.DefaultMessage
)

// Re-export errors
var (
	ErrNotFound = core.ErrNotFound
)

// Error types
type (
	NotFoundError          = core.NotFoundError
	TransportError         = core.TransportError
	MalformedRecordError   = core.MalformedRecordError
	InvalidVersionError    = core.InvalidVersionError
	ConflictingRecordError = core.ConflictingRecordError
	HardFailureError       = core.HardFailureError
)

// OpenRepository creates a repository for spec, choosing the backend by URL scheme.
// Backends must be imported to be registered; see the all package.
func OpenRepository(spec RepositorySpec, opts Options) (Repository, error) {
	return core.Open(spec, opts)
}

// NewChain creates a repository chain. local may be nil.
func NewChain(local Repository, remotes []Repository, logger *slog.Logger) *Chain {
	return core.NewChain(local, remotes, logger)
}

// SupportedSchemes returns all registered repository URL schemes.
func SupportedSchemes() []string {
	return core.SupportedSchemes()
}

// ParseCoordinate parses group:name[:type[:classifier]]:version or a pkg:maven PURL.
func ParseCoordinate(s string) (Coordinate, error) {
	return core.ParseCoordinate(s)
}

// CompareVersions orders two Maven versions.
func CompareVersions(a, b string) (int, error) {
	return core.CompareVersions(a, b)
}

// ParseRecord decodes a record payload.
func ParseRecord(data []byte) (Record, error) {
	return record.Parse(data)
}

// EncodeRecord renders a record in its canonical on-disk form.
func EncodeRecord(r Record) ([]byte, error) {
	return record.Encode(r)
}

// LoadLockfile reads a dependency lockfile.
func LoadLockfile(path string) (*Lockfile, error) {
	return depsource.Load(path)
}

// IsFatal reports whether err aborted a run rather than being part of a verdict.
func IsFatal(err error) bool {
	return core.IsFatal(err)
}

// Verify checks the dependencies of project against their metadata records.
// With transitive, the whole transitive closure is checked.
func Verify(ctx context.Context, cfg Config, project Coordinate, transitive bool) (*Verdict, error) {
	return engine.NewVerifier(cfg).Verify(ctx, project, transitive)
}

// VerifyDependencies checks an explicit dependency set without a DependencySource.
func VerifyDependencies(ctx context.Context, cfg Config, deps []Dependency) (*Verdict, error) {
	return engine.NewVerifier(cfg).VerifyDependencies(ctx, deps)
}

// Generate writes the record for project's version into outputDir and, with
// backfill, for every lower published version that has none yet.
func Generate(ctx context.Context, cfg Config, outputDir string, project Coordinate, rec Record, backfill bool) ([]Generated, error) {
	return engine.NewGenerator(cfg, outputDir).Generate(ctx, project, rec, backfill)
}

// Deploy publishes generated record files of project from outputDir to target.
func Deploy(ctx context.Context, outputDir string, target Repository, project Coordinate, scan bool, logger *slog.Logger) ([]Coordinate, error) {
	return engine.NewDeployer(outputDir, target, logger).Deploy(ctx, project, scan)
}
