package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/engine"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		message          string
		fail             bool
		backfill         bool
		appliesToPrevious bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write the metadata record for the project version",
		Long: `Write <name>-<version>-metadata.json into the output directory.

With --backfill, a record is also written for every lower published
version that has none yet.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _, err := a.project(cmd)
			if err != nil {
				return err
			}
			chain, err := a.openChain()
			if err != nil {
				return err
			}

			rec := core.Record{
				FormatVersion:             a.cfg.FormatVersion,
				Message:                   message,
				Fail:                      fail,
				AppliesToPreviousVersions: backfill,
			}
			if cmd.Flags().Changed("applies-to-previous") {
				rec.AppliesToPreviousVersions = appliesToPrevious
			}

			gen := engine.NewGenerator(engine.Config{
				Repository:    chain,
				FormatVersion: a.cfg.FormatVersion,
				Timeout:       a.cfg.Timeout,
				Logger:        a.logger,
				Metrics:       a.metrics,
			}, a.cfg.OutputDir)
			results, err := gen.Generate(cmd.Context(), project, rec, backfill)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, r := range results {
				switch {
				case r.Published:
					fmt.Fprintf(out, "%s %s\n", dimStyle.Render("published"), r.Version)
				case r.Written:
					fmt.Fprintf(out, "%s %s\n", passStyle.Render("wrote"), r.Path)
				default:
					fmt.Fprintf(out, "%s %s\n", dimStyle.Render("unchanged"), r.Path)
				}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&message, "message", "m", core.DefaultMessage, "message shown to consumers")
	flags.BoolVar(&fail, "fail", false, "make the record a hard failure instead of a warning")
	flags.BoolVar(&backfill, "backfill", false, "also write records for lower published versions")
	flags.BoolVar(&appliesToPrevious, "applies-to-previous", false, "apply the record to earlier versions (default: same as --backfill)")
	return cmd
}
