package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/depmeta/internal/depsource"
	"github.com/git-pkgs/depmeta/internal/engine"
)

func (a *app) verifyCmd() *cobra.Command {
	var transitive bool

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check the project's dependencies against their metadata records",
		Long: `Check every dependency in the lockfile against the metadata records
published for its version and all later versions.

Exits 1 when any record marks a dependency as a hard failure.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, lf, err := a.project(cmd)
			if err != nil {
				return err
			}
			if lf == nil {
				if lf, err = depsource.Load(a.cfg.DependenciesFile); err != nil {
					return err
				}
			}

			chain, err := a.openChain()
			if err != nil {
				return err
			}

			verifier := engine.NewVerifier(engine.Config{
				Repository:    chain,
				Dependencies:  lf,
				FormatVersion: a.cfg.FormatVersion,
				Concurrency:   a.cfg.Concurrency,
				Timeout:       a.cfg.Timeout,
				Logger:        a.logger,
				Metrics:       a.metrics,
			})
			verdict, err := verifier.Verify(cmd.Context(), project, transitive)
			if err != nil {
				return err
			}

			if a.logFormat == "json" {
				engine.LogVerdict(a.logger, verdict)
			} else if err := engine.WriteReport(a.stderr, verdict); err != nil {
				return err
			}
			fmt.Fprintln(a.stderr, summary(verdict))
			return verdict.Err()
		},
	}

	cmd.Flags().BoolVar(&transitive, "transitive", false, "also check transitive dependencies")
	cmd.Flags().Int("concurrency", 0, "dependencies checked in parallel")
	return cmd
}
