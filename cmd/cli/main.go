package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"baymv/adapters/excel"
	"baymv/app"
	"baymv/domain/energy"
	"baymv/internal"
	"baymv/internal/testkit"
)

func main() {
	// .env is optional for the CLI; everything runs in memory.
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "baymv-cli",
		Short: "Change-point inference for energy measurement and verification",
	}

	rootCmd.AddCommand(
		newScanCmd(),
		newSavingsCmd(),
		newReportCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newOfflineServices wires the app services against in-memory storage, so
// CLI runs need no database.
func newOfflineServices() (*app.DatasetService, *app.InferenceService, *app.ReportService) {
	logger := internal.NewDefaultLogger()
	datasets := testkit.NewInMemoryDatasetRepository()
	runs := testkit.NewInMemoryRunRepository()

	reader := excel.NewDataReader("")
	datasetService := app.NewDatasetService(datasets, reader, logger)
	inferenceService := app.NewInferenceService(datasets, runs, testkit.NewSeededRNG(), logger, 3)
	reportService := app.NewReportService(datasets, runs, inferenceService, logger)
	return datasetService, inferenceService, reportService
}

func ingestFile(ctx context.Context, datasets *app.DatasetService, path string) (*energy.Dataset, error) {
	return datasets.IngestFile(ctx, path, path)
}

func newScanCmd() *cobra.Command {
	var step float64
	var seed int64
	var shape string

	cmd := &cobra.Command{
		Use:   "scan [observation-file]",
		Short: "Scan a dataset for change points across model shapes",
		Long: `Run the change-point scan on an observation file (.xlsx or .csv).

Example: baymv-cli scan building.xlsx --step 0.5 --seed 42`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, inference, _ := newOfflineServices()
			ds, err := ingestFile(cmd.Context(), datasets, args[0])
			if err != nil {
				return err
			}

			req := app.SweepRequest{DatasetID: ds.ID, Step: step, Seed: seed}
			if shape != "" {
				req.Shapes = []energy.ModelShape{energy.ModelShape(shape)}
			}
			result, err := inference.RunSweep(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, r := range result.Results {
				if r.Err != "" {
					fmt.Printf("%-4s failed: %s\n", r.Shape, r.Err)
					continue
				}
				fmt.Printf("%-4s MAP change point %s  logML %.2f  (%d candidates, prob %.3f)\n",
					r.Shape, formatThresholds(r.MAP.ChangePoint1, r.MAP.ChangePoint2),
					r.MAP.LogML, len(r.Candidates), r.MAP.Probability)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&step, "step", 0.5, "Grid step for the change-point scan")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&shape, "shape", "", "Restrict to one model shape (3PH, 3PC, 5P)")

	return cmd
}

func newSavingsCmd() *cobra.Command {
	var shape string
	var cp1, cp2 float64
	var samples int
	var seed int64

	cmd := &cobra.Command{
		Use:   "savings [baseline-file] [reporting-file]",
		Short: "Estimate avoided energy over a reporting period",
		Long: `Fit the baseline model and propagate its posterior through the
reporting period with the Monte Carlo sampler.

Example: baymv-cli savings baseline.xlsx reporting.xlsx --shape 3PH --cp1 55`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, inference, _ := newOfflineServices()
			baseline, err := ingestFile(cmd.Context(), datasets, args[0])
			if err != nil {
				return err
			}
			reporting, err := ingestFile(cmd.Context(), datasets, args[1])
			if err != nil {
				return err
			}

			result, err := inference.EstimateSavings(cmd.Context(), app.SavingsRequest{
				BaselineID:   baseline.ID,
				ReportingID:  reporting.ID,
				Shape:        energy.ModelShape(shape),
				ChangePoint1: cp1,
				ChangePoint2: cp2,
				SampleCount:  samples,
				Seed:         seed,
			})
			if err != nil {
				return err
			}

			dist := result.Distribution
			fmt.Printf("Savings posterior (%d samples)\n", result.SampleCount)
			fmt.Printf("  mean   %.1f\n", dist.Mean)
			fmt.Printf("  median %.1f\n", dist.Median)
			for _, interval := range dist.Intervals {
				fmt.Printf("  %.0f%%    [%.1f, %.1f]\n", interval.Level*100, interval.Lower, interval.Upper)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&shape, "shape", "3PH", "Model shape (3PH, 3PC, 5P)")
	cmd.Flags().Float64Var(&cp1, "cp1", 0, "First change point of the baseline model")
	cmd.Flags().Float64Var(&cp2, "cp2", 0, "Second change point (5P only)")
	cmd.Flags().IntVar(&samples, "samples", 5000, "Monte Carlo sample count")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")

	return cmd
}

func newReportCmd() *cobra.Command {
	var step float64
	var seed int64
	var output string
	var asHTML bool

	cmd := &cobra.Command{
		Use:   "report [observation-file]",
		Short: "Render a full model comparison report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			datasets, _, reports := newOfflineServices()
			ds, err := ingestFile(cmd.Context(), datasets, args[0])
			if err != nil {
				return err
			}

			report, err := reports.BuildSweepReport(cmd.Context(), app.SweepRequest{
				DatasetID: ds.ID,
				Step:      step,
				Seed:      seed,
			})
			if err != nil {
				return err
			}

			content := report.Markdown
			if asHTML {
				content = report.HTML
			}
			if output == "" {
				fmt.Println(content)
				return nil
			}
			return os.WriteFile(output, []byte(content), 0o644)
		},
	}

	cmd.Flags().Float64Var(&step, "step", 0.5, "Grid step for the change-point scan")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().StringVar(&output, "out", "", "Write the report to a file instead of stdout")
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render HTML instead of markdown")

	return cmd
}

func newGenerateCmd() *cobra.Command {
	var shape string
	var days int
	var noise float64
	var seed int64

	cmd := &cobra.Command{
		Use:   "generate [output.json]",
		Short: "Generate a synthetic observation dataset with known change points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := testkit.DefaultLoadConfig()
			cfg.Shape = energy.ModelShape(shape)
			cfg.Days = days
			cfg.NoiseStd = noise
			cfg.Seed = seed

			observations := testkit.NewLoadGenerator(cfg).Generate()
			data, err := json.MarshalIndent(observations, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[0], data, 0o644); err != nil {
				return err
			}

			fmt.Printf("Wrote %d observations to %s (shape %s, change point %.1f)\n",
				len(observations), args[0], cfg.Shape, cfg.ChangePoint1)
			return nil
		},
	}

	cmd.Flags().StringVar(&shape, "shape", "3PH", "Ground-truth model shape")
	cmd.Flags().IntVar(&days, "days", 365, "Number of daily observations")
	cmd.Flags().Float64Var(&noise, "noise", 8, "Gaussian noise standard deviation")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed")

	return cmd
}

func formatThresholds(cp1, cp2 float64) string {
	if cp2 != 0 {
		return fmt.Sprintf("(%.1f, %.1f)", cp1, cp2)
	}
	return fmt.Sprintf("%.1f", cp1)
}
