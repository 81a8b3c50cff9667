// Package commands implements the depmeta command line.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	_ "github.com/git-pkgs/depmeta/all"
	"github.com/git-pkgs/depmeta/internal/config"
	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/depsource"
	"github.com/git-pkgs/depmeta/internal/metrics"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitHardFailure = 1
	ExitError       = 2
)

// Version is set at build time with -ldflags "-X .../commands.Version=...".
var Version = "dev"

type app struct {
	v      *viper.Viper
	stdout io.Writer
	stderr io.Writer

	cfgFile     string
	logFormat   string
	metricsFile string
	verbose     bool

	cfg     *config.Config
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		v:      viper.New(),
		stdout: stdout,
		stderr: stderr,
		logger: slog.New(slog.NewTextHandler(stderr, nil)),
	}
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newApp(os.Stdout, os.Stderr).run(ctx, os.Args[1:])
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	err := root.ExecuteContext(ctx)
	if a.metrics != nil {
		if werr := a.metrics.WriteFile(a.metricsFile); werr != nil {
			a.logger.Warn("failed to write metrics", slog.String("path", a.metricsFile), slog.String("error", werr.Error()))
		}
	}
	return a.exitCode(err)
}

func (a *app) exitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var hard *core.HardFailureError
	if errors.As(err, &hard) {
		return ExitHardFailure
	}
	fmt.Fprintln(a.stderr, errorStyle.Render("error:"), err)
	return ExitError
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "depmeta",
		Short: "Publish and verify dependency metadata records",
		Long: `depmeta attaches small metadata records to published library versions
and checks a project's dependencies against them.

A record can mark a version (and optionally everything before it) as
deprecated, either as a warning or as a hard failure.`,
		Version:           Version,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./.depmeta.yaml or ~/.depmeta.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text or json")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this file on exit")
	flags.String("local-repository", "", "local repository used as resolution cache")
	flags.StringSlice("repository", nil, "remote repository URL, may be repeated (replaces configured repositories)")
	flags.Int("format-version", 0, "metadata record format version")
	flags.String("output-dir", "", "directory generated records are written to")
	flags.Duration("timeout", 0, "timeout for each repository round trip")
	flags.String("project", "", "project coordinate group:name:version (default: lockfile project)")
	flags.String("dependencies-file", "", "dependency lockfile")

	root.AddCommand(a.generateCmd(), a.verifyCmd(), a.deployCmd(), a.versionCmd())
	return root
}

var boundFlags = map[string]string{
	"local-repository":          "local_repository",
	"format-version":            "format_version",
	"output-dir":                "output_dir",
	"timeout":                   "timeout",
	"dependencies-file":         "dependencies_file",
	"concurrency":               "concurrency",
	"alt-deployment-repository": "deploy.alt_repository",
}

// bindFlags binds every changed flag in fs that maps to a config key.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		key, ok := boundFlags[f.Name]
		if !ok || !f.Changed || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(a.stderr, a.logFormat, a.verbose)
	if err != nil {
		return err
	}
	a.logger = logger
	slog.SetDefault(logger)

	if cmd.Name() == "version" {
		return nil
	}

	if err := bindFlags(a.v, cmd.Flags()); err != nil {
		return err
	}
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	if repos, _ := cmd.Flags().GetStringSlice("repository"); len(repos) > 0 {
		cfg.Repositories = cfg.Repositories[:0]
		for i, url := range repos {
			cfg.Repositories = append(cfg.Repositories, core.RepositorySpec{ID: fmt.Sprintf("repository-%d", i+1), URL: url})
		}
	}
	a.cfg = cfg

	if a.metricsFile != "" {
		a.metrics = metrics.New()
	}
	return nil
}

func newLogger(w io.Writer, format string, verbose bool) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	switch format {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q, use text or json", format)
	}
}

// openChain opens the local repository followed by every configured remote.
func (a *app) openChain() (*core.Chain, error) {
	opts := a.cfg.RepositoryOptions(a.logger)

	var local core.Repository
	if a.cfg.LocalRepository != "" {
		repo, err := core.Open(a.cfg.LocalSpec(), opts)
		if err != nil {
			return nil, fmt.Errorf("opening local repository: %w", err)
		}
		local = repo
	}

	remotes := make([]core.Repository, 0, len(a.cfg.Repositories))
	for _, spec := range a.cfg.Repositories {
		repo, err := core.Open(spec, opts)
		if err != nil {
			return nil, fmt.Errorf("opening repository %s: %w", spec.ID, err)
		}
		remotes = append(remotes, repo)
	}
	return core.NewChain(local, remotes, a.logger), nil
}

// project returns the --project coordinate, or the project named by the
// lockfile when the flag is not set. The lockfile is nil in the first case.
func (a *app) project(cmd *cobra.Command) (core.Coordinate, *depsource.Lockfile, error) {
	if raw, _ := cmd.Flags().GetString("project"); raw != "" {
		c, err := core.ParseCoordinate(raw)
		if err != nil {
			return core.Coordinate{}, nil, fmt.Errorf("--project: %w", err)
		}
		if err := c.Validate(); err != nil {
			return core.Coordinate{}, nil, fmt.Errorf("--project: %w", err)
		}
		return c, nil, nil
	}

	lf, err := depsource.Load(a.cfg.DependenciesFile)
	if err != nil {
		return core.Coordinate{}, nil, fmt.Errorf("no --project given: %w", err)
	}
	return lf.Project, lf, nil
}
