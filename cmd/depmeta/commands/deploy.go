package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/git-pkgs/depmeta/internal/core"
	"github.com/git-pkgs/depmeta/internal/engine"
)

func (a *app) deployCmd() *cobra.Command {
	var scan bool

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Publish generated metadata records",
		Long: `Publish the generated record of the project version to the deployment
repository. With --scan, every <name>-*-metadata.json file below the
output directory is published.

The target is deploy.alt_snapshot_repository or deploy.alt_release_repository
when set, else deploy.alt_repository, else deploy.repository. Alternates use
the id::layout::url syntax.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			project, _, err := a.project(cmd)
			if err != nil {
				return err
			}

			targets := engine.DeployTargets{
				Repository:            a.cfg.Deploy.Repository,
				AltRepository:         a.cfg.Deploy.AltRepository,
				AltSnapshotRepository: a.cfg.Deploy.AltSnapshotRepository,
				AltReleaseRepository:  a.cfg.Deploy.AltReleaseRepository,
			}
			spec, err := targets.Select(project.Version)
			if err != nil {
				return err
			}
			target, err := core.Open(spec, a.cfg.RepositoryOptions(a.logger))
			if err != nil {
				return fmt.Errorf("opening deployment repository %s: %w", spec.ID, err)
			}

			deployed, err := engine.NewDeployer(a.cfg.OutputDir, target, a.logger).Deploy(cmd.Context(), project, scan)
			for _, c := range deployed {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s -> %s\n", passStyle.Render("deployed"), c, spec.ID)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&scan, "scan", false, "publish every record file of the project in the output directory")
	cmd.Flags().String("alt-deployment-repository", "", "alternate repository id::layout::url")
	return cmd
}
