package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"asset-forge/internal/application/validation"
)

func newValidateCommand(root *rootOptions) *cobra.Command {
	var (
		reportPath  string
		concurrency int
	)
	cmd := &cobra.Command{
		Use:   "validate DIR",
		Short: "Validate every .glb file in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v := validation.NewValidator(concurrency)
			report, err := v.ValidateDir(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, f := range report.Files {
				status := "PASS"
				if !f.ValidationPassed {
					status = "FAIL"
				}
				fmt.Fprintf(out, "[%s] %s", status, f.FilePath)
				if f.Error != "" {
					fmt.Fprintf(out, " (%s)", f.Error)
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "\n%d/%d files passed (%.1f%%)\n",
				report.PassedFiles, report.TotalFiles, report.SuccessRate*100)

			if reportPath != "" {
				if err := validation.WriteReport(reportPath, report); err != nil {
					return err
				}
				fmt.Fprintf(out, "Report: %s\n", reportPath)
			}
			if report.FailedFiles > 0 {
				return fmt.Errorf("%d of %d files failed validation", report.FailedFiles, report.TotalFiles)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "write a JSON report to this file")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "files validated in parallel")
	return cmd
}
