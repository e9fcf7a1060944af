package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssep-lab/ssep-search/search/assistant"
	"github.com/ssep-lab/ssep-search/search/geometry"
	"github.com/ssep-lab/ssep-search/search/optimizer"
)

var (
	optTrials    int    // Number of trials; falls back to the space's budget
	optAsk       string // Natural-language request translated into a search space
	optSpacePath string // YAML search-space file
	optSeed      int64  // Sampler seed
	optMock      bool   // Use the analytic mock simulator
	optRunsDir   string // Parent of the study directory
)

// optimizeOptions is everything one study needs besides the config.
type optimizeOptions struct {
	Space    optimizer.SearchSpace
	Trials   int
	Seed     int64
	StudyDir string
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Run a sampler-based search over a declared parameter space",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		if cmd.Flags().Changed("mock") {
			cfg.Executor.Mock = optMock
		}
		if cmd.Flags().Changed("runs-dir") {
			cfg.RunsDir = optRunsDir
		}
		if optAsk != "" && optSpacePath != "" {
			logrus.Fatalf("--ask and --space are mutually exclusive")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		space := resolveSpace(ctx, cfg, optAsk, optSpacePath)
		trials := optTrials
		if !cmd.Flags().Changed("trials") && space.Budget.Trials > 0 {
			trials = space.Budget.Trials
		}
		if trials <= 0 {
			logrus.Fatalf("--trials must be positive, got %d", trials)
		}

		studyDir := filepath.Join(cfg.RunsDir, "latest")
		result, err := runStudy(ctx, cfg, optimizeOptions{Space: space, Trials: trials, Seed: optSeed, StudyDir: studyDir})
		if err != nil {
			logrus.Fatalf("Optimization failed: %v", err)
		}
		fmt.Printf("\n=== BEST (optimize) ===\ntrial %d, %s = %.6g\n", result.BestTrial, result.Objective, result.BestValue)
		printBest(os.Stdout, "", result.BestParams, result.BestMetrics)
		fmt.Printf("\nSaved: %s and %s\n",
			filepath.Join(studyDir, optimizer.TrialLogFileName), filepath.Join(studyDir, optimizer.BestParamsFileName))
	},
}

// resolveSpace loads --space, else translates --ask, else uses the default space.
func resolveSpace(ctx context.Context, cfg Config, ask, spacePath string) optimizer.SearchSpace {
	switch {
	case spacePath != "":
		space, err := optimizer.LoadSearchSpace(spacePath)
		if err != nil {
			logrus.Fatalf("Failed to load search space: %v", err)
		}
		return *space
	case ask != "":
		return assistant.NewTranslator(cfg.newChatClient()).Translate(ctx, ask)
	default:
		return optimizer.DefaultSearchSpace()
	}
}

// runStudy runs a TPE study and writes the trial log and best parameters under StudyDir.
func runStudy(ctx context.Context, cfg Config, opts optimizeOptions) (*optimizer.StudyResult, error) {
	logrus.Infof("Starting study: objective=%s trials=%d seed=%d bounds=%+v",
		opts.Space.Objective, opts.Trials, opts.Seed, opts.Space.Bounds)

	geom := geometry.NewPointCloud(filepath.Join(opts.StudyDir, "pcd"), cfg.Geometry.Points)
	log := optimizer.NewTrialLog(filepath.Join(opts.StudyDir, optimizer.TrialLogFileName))
	study, err := optimizer.NewStudy(opts.Space, optimizer.NewTPESampler(opts.Seed, optimizer.DefaultTPEConfig()),
		cfg.newExecutor(), geom, log)
	if err != nil {
		return nil, err
	}

	result, err := study.Optimize(ctx, opts.Trials)
	if err != nil {
		return nil, err
	}
	if _, err := optimizer.SaveBestParams(result, opts.StudyDir); err != nil {
		return nil, err
	}
	return result, nil
}

func init() {
	optimizeCmd.Flags().IntVar(&optTrials, "trials", 20, "Number of trials (default: the search space budget)")
	optimizeCmd.Flags().StringVar(&optAsk, "ask", "", "Describe the study in natural language; translated by the assistant")
	optimizeCmd.Flags().StringVar(&optSpacePath, "space", "", "YAML search-space file")
	optimizeCmd.Flags().Int64Var(&optSeed, "seed", 42, "Sampler seed")
	optimizeCmd.Flags().BoolVar(&optMock, "mock", false, "Use the analytic mock simulator (default from config / USE_DUMMY)")
	optimizeCmd.Flags().StringVar(&optRunsDir, "runs-dir", "runs", "Parent directory of the study output (default from config)")

	rootCmd.AddCommand(optimizeCmd)
}
