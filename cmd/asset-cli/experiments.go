package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"asset-forge/internal/application/experiment"
)

func newExperimentsCommand(root *rootOptions) *cobra.Command {
	var (
		prompt    string
		outputDir string
	)
	cmd := &cobra.Command{
		Use:   "experiments",
		Short: "Run the seed, steps and guidance scale parameter sweep",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := newAssetService(root.cfg, outputDir)
			if err != nil {
				return err
			}

			runner := experiment.NewRunner(svc, experiment.DefaultGrid())
			res, err := runner.Run(cmd.Context(), prompt)
			if err != nil {
				return err
			}
			path, err := experiment.WriteResults(svc.OutputDir(), res)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			s := res.Summary
			fmt.Fprintf(out, "Experiments: %d, succeeded: %d, failed: %d (%.1f%%)\n",
				s.TotalExperiments, s.SuccessfulExperiments, s.FailedExperiments, s.SuccessRate*100)
			if q := res.Quality; q != nil {
				fmt.Fprintf(out, "Loadability: %.1f%%, watertight: %.1f%%, avg faces: %.0f\n",
					q.LoadabilityRate*100, q.WatertightRate*100, q.AverageFaceCount)
			}
			fmt.Fprintln(out, "\nRecommendations:")
			for _, r := range res.Recommendations {
				fmt.Fprintf(out, "   - %s\n", r)
			}
			fmt.Fprintf(out, "\nResults: %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "a simple cube", "prompt used for every run")
	cmd.Flags().StringVar(&outputDir, "output-dir", "experiments", "output root for experiment runs")
	return cmd
}
