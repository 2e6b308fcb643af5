package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"bcall/adapters/excel"
	"bcall/adapters/export"
	"bcall/adapters/postgres"
	"bcall/app"
	"bcall/domain/bcall"
	"bcall/domain/core"
	"bcall/internal"
	"bcall/internal/config"
	"bcall/internal/report"
	"bcall/internal/testkit"
	"bcall/ports"
)

func main() {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	appConfig, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defaults, err := appConfig.AnalysisConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "bcall",
		Short: "Score legislators from roll-call votes",
		Long: `bcall partitions a legislature into two voting blocs around a pivot
legislator and scores every member: d1 for ideological position, d2 for
voting dispersion.`,
	}

	rootCmd.AddCommand(
		newAnalyzeCmd(appConfig, defaults),
		newSweepCmd(appConfig, defaults),
		newExportCmd(appConfig),
		newSynthCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type analyzeFlags struct {
	layout    string
	sheet     string
	partyFile string
	metric    string
	pivot     string
	threshold float64
	normalize bool
	output    string
	reportOut string
	persist   bool
}

// register declares the shared analysis flags, defaulted from the
// environment-driven configuration so BCALL_* settings hold unless a flag
// overrides them.
func (f *analyzeFlags) register(cmd *cobra.Command, defaults bcall.AnalysisConfig) {
	cmd.Flags().StringVar(&f.layout, "layout", "wide", "Input layout: wide|long")
	cmd.Flags().StringVar(&f.sheet, "sheet", "", "Excel sheet name (default Sheet1)")
	cmd.Flags().StringVar(&f.partyFile, "parties", "", "Optional legislator-party CSV/xlsx")
	cmd.Flags().StringVar(&f.metric, "metric", string(defaults.Metric), "Distance metric: manhattan|euclidean")
	cmd.Flags().StringVar(&f.pivot, "pivot", "", "Pivot legislator (empty = auto-select)")
	cmd.Flags().Float64Var(&f.threshold, "threshold", defaults.Threshold, "Minimum participation in [0,1]")
	cmd.Flags().BoolVar(&f.normalize, "normalize", defaults.Normalize, "Divide distances by overlap size")
	cmd.Flags().StringVar(&f.output, "output", "", "Score table destination (.csv or .xlsx)")
	cmd.Flags().StringVar(&f.reportOut, "report", "", "Write a markdown run report here")
	cmd.Flags().BoolVar(&f.persist, "persist", false, "Store the run in the database")
}

func (f *analyzeFlags) config() (bcall.AnalysisConfig, error) {
	cfg := bcall.DefaultConfig()
	metric, err := bcall.ParseMetric(f.metric)
	if err != nil {
		return cfg, err
	}
	cfg.Metric = metric
	cfg.Threshold = f.threshold
	cfg.Normalize = f.normalize
	if f.pivot != "" {
		cfg.Pivot = core.LegislatorID(f.pivot)
		cfg.AutoPivot = false
	}
	return cfg, nil
}

func (f *analyzeFlags) loadRequest(input string) ports.LoadRequest {
	layout := ports.LayoutWide
	if f.layout == string(ports.LayoutLong) {
		layout = ports.LayoutLong
	}
	return ports.LoadRequest{
		Path:      input,
		Layout:    layout,
		Sheet:     f.sheet,
		PartyPath: f.partyFile,
	}
}

func newAnalyzeCmd(appConfig *config.Config, defaults bcall.AnalysisConfig) *cobra.Command {
	flags := &analyzeFlags{}

	cmd := &cobra.Command{
		Use:   "analyze [input-file]",
		Short: "Run one analysis over a roll-call file",
		Long: `Load a roll-call file, partition the chamber and score every retained
legislator. With no argument the DATA_FILE environment setting is used.

Example: bcall analyze votes.xlsx --metric euclidean --pivot "Diaz" --output scores.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args, appConfig)
			if err != nil {
				return err
			}
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return runAnalyze(cmd.Context(), input, flags, cfg, appConfig)
		},
	}
	flags.register(cmd, defaults)
	return cmd
}

// resolveInput picks the roll-call source: the positional argument when
// given, otherwise DATA_FILE.
func resolveInput(args []string, appConfig *config.Config) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if appConfig.Paths.DataFile != "" {
		return appConfig.Paths.DataFile, nil
	}
	return "", fmt.Errorf("no input file given and DATA_FILE is not set")
}

func runAnalyze(ctx context.Context, input string, flags *analyzeFlags, cfg bcall.AnalysisConfig, appConfig *config.Config) error {
	service, cleanup, err := buildService(appConfig, flags.output, flags.persist)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := service.Run(ctx, app.AnalysisRequest{
		Load:       flags.loadRequest(input),
		Config:     cfg,
		ExportPath: flags.output,
		Persist:    flags.persist,
	})
	if err != nil {
		return err
	}

	printRunSummary(result)
	if flags.reportOut != "" {
		if err := os.WriteFile(flags.reportOut, []byte(report.Markdown(result)), 0o644); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
		fmt.Printf("Report written to %s\n", flags.reportOut)
	}
	return nil
}

func newSweepCmd(appConfig *config.Config, defaults bcall.AnalysisConfig) *cobra.Command {
	flags := &analyzeFlags{}
	var from, to, step float64
	var concurrency int64
	var jsonOut string

	cmd := &cobra.Command{
		Use:   "sweep [input-file]",
		Short: "Sweep the participation threshold and report bloc stability",
		Long: `Re-run the analysis across a range of participation thresholds to show
how sensitive the bloc split is to filtering.

Example: bcall sweep votes.csv --from 0 --to 0.5 --step 0.05 --concurrency 4`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := resolveInput(args, appConfig)
			if err != nil {
				return err
			}
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			return runSweep(cmd.Context(), input, flags, cfg, from, to, step, concurrency, jsonOut)
		},
	}
	flags.register(cmd, defaults)
	cmd.Flags().Float64Var(&from, "from", 0.0, "First threshold")
	cmd.Flags().Float64Var(&to, "to", 0.5, "Last threshold (inclusive)")
	cmd.Flags().Float64Var(&step, "step", 0.05, "Threshold increment")
	cmd.Flags().Int64Var(&concurrency, "concurrency", 4, "Parallel runs")
	cmd.Flags().StringVar(&jsonOut, "json", "", "Write sweep points as JSON here")
	return cmd
}

func runSweep(ctx context.Context, input string, flags *analyzeFlags, cfg bcall.AnalysisConfig,
	from, to, step float64, concurrency int64, jsonOut string) error {

	if step <= 0 {
		return fmt.Errorf("step must be positive, got %v", step)
	}
	var thresholds []float64
	for th := from; th <= to+1e-9; th += step {
		thresholds = append(thresholds, th)
	}

	logger := internal.NewDefaultLogger()
	loader := excel.NewMatrixLoader()
	m, _, err := loader.LoadMatrix(ctx, flags.loadRequest(input))
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(thresholds),
		progressbar.OptionSetDescription("Sweeping thresholds"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
	)

	svc := app.NewSensitivityService(logger)
	points, err := svc.Sweep(ctx, m, app.SweepRequest{
		Thresholds:    thresholds,
		Config:        cfg,
		MaxConcurrent: concurrency,
		OnPoint:       func(completed, total int) { _ = bar.Add(1) },
	})
	if err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println()

	fmt.Printf("%-10s %-9s %-7s %-7s %s\n", "threshold", "retained", "right", "left", "status")
	for _, p := range points {
		if p.Err != nil {
			fmt.Printf("%-10.3f %-9s %-7s %-7s %s\n", p.Threshold, "-", "-", "-", p.ErrMessage)
			continue
		}
		fmt.Printf("%-10.3f %-9d %-7d %-7d ok\n",
			p.Threshold, p.RetainedCount, p.BlocSizes["right"], p.BlocSizes["left"])
	}

	if jsonOut != "" {
		data, err := json.MarshalIndent(points, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write sweep JSON: %w", err)
		}
	}
	return nil
}

func newExportCmd(appConfig *config.Config) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export [run-id]",
		Short: "Export a persisted run's score table to a file",
		Long: `Fetch a stored run from the database and write its score table.

Example: bcall export 0190b5e2-... --output scores.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			return runExport(cmd.Context(), args[0], output, appConfig)
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "Destination file (.csv or .xlsx)")
	return cmd
}

func runExport(ctx context.Context, runID, output string, appConfig *config.Config) error {
	service, cleanup, err := buildService(appConfig, output, true)
	if err != nil {
		return err
	}
	defer cleanup()

	result, err := service.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	if err := writerFor(output).Write(result, output); err != nil {
		return err
	}
	fmt.Printf("Run %s exported to %s\n", runID, output)
	return nil
}

func newSynthCmd() *cobra.Command {
	cfg := testkit.DefaultLegislatureConfig()
	var output string

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Generate a synthetic roll-call CSV with planted blocs",
		Long: `Generate a seeded synthetic legislature for demos and benchmarks. Members
are named R### and L### after their planted bloc, so recovered blocs can be
checked by eye.

Example: bcall synth --right 60 --left 40 --votes 200 --output synth.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				return fmt.Errorf("--output is required")
			}
			return runSynth(cfg, output)
		},
	}
	cmd.Flags().IntVar(&cfg.RightCount, "right", cfg.RightCount, "Right-bloc size")
	cmd.Flags().IntVar(&cfg.LeftCount, "left", cfg.LeftCount, "Left-bloc size")
	cmd.Flags().IntVar(&cfg.VoteCount, "votes", cfg.VoteCount, "Number of roll calls")
	cmd.Flags().Float64Var(&cfg.Loyalty, "loyalty", cfg.Loyalty, "Probability of voting the bloc line")
	cmd.Flags().Float64Var(&cfg.AbstainRate, "abstain-rate", cfg.AbstainRate, "Abstention probability")
	cmd.Flags().Float64Var(&cfg.MissingRate, "missing-rate", cfg.MissingRate, "Absence probability")
	cmd.Flags().Int64Var(&cfg.Seed, "seed", cfg.Seed, "Random seed")
	cmd.Flags().StringVar(&output, "output", "", "Destination CSV")
	return cmd
}

func runSynth(cfg testkit.LegislatureConfig, output string) error {
	m, _, err := testkit.NewLegislatureGenerator(cfg).Generate()
	if err != nil {
		return err
	}
	if err := export.WriteMatrixCSV(m, output); err != nil {
		return err
	}
	fmt.Printf("Synthetic legislature (%d members, %d votes) written to %s\n",
		m.NumLegislators(), m.NumVotes(), output)
	return nil
}

// buildService assembles the analysis service. The repository is attached
// only when needed and configured; needRepo failures are fatal, a missing
// optional database just disables persistence.
func buildService(appConfig *config.Config, output string, needRepo bool) (*app.AnalysisService, func(), error) {
	logger := internal.NewDefaultLogger()

	var repo ports.ResultRepositoryPort
	cleanup := func() {}
	if appConfig.Persistence() {
		db, err := sqlx.Connect("postgres", appConfig.Database.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		cleanup = func() { db.Close() }
		pgRepo := postgres.NewResultRepository(db)
		if err := pgRepo.Migrate(context.Background()); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to migrate result tables: %w", err)
		}
		repo = pgRepo
	} else if needRepo {
		return nil, nil, fmt.Errorf("DATABASE_URL is not set")
	}

	service := app.NewAnalysisService(excel.NewMatrixLoader(), repo, writerFor(output), logger)
	return service, cleanup, nil
}

func writerFor(output string) ports.ResultWriterPort {
	if strings.EqualFold(filepath.Ext(output), ".xlsx") {
		return export.NewExcelWriter()
	}
	return export.NewCSVWriter()
}

func printRunSummary(result *bcall.BCallResult) {
	meta := result.Meta
	summary := bcall.Summarize(result)

	fmt.Printf("Run %s\n", meta.RunID)
	fmt.Printf("  pivot %s", meta.Pivot)
	if meta.AutoPivot {
		fmt.Print(" (auto)")
	}
	fmt.Printf(", metric %s, threshold %.2f\n", meta.Metric, meta.Threshold)
	fmt.Printf("  retained %d/%d legislators over %d votes\n",
		meta.RetainedCount, meta.TotalLegislators, meta.VoteCount)
	for _, bloc := range summary.Blocs {
		fmt.Printf("  %s bloc: %d members, mean d1 %+.3f\n", bloc.Bloc, bloc.Size, bloc.MeanD1)
	}

	top := summary.Extremes
	if len(top) > 5 {
		top = top[:5]
	}
	fmt.Println("  most extreme:")
	for _, id := range top {
		s := result.Scores[id]
		fmt.Printf("    %-24s d1 %+.3f\n", id, s.D1)
	}
}
