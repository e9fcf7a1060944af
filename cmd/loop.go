package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ssep-lab/ssep-search/search"
	"github.com/ssep-lab/ssep-search/search/geometry"
)

var (
	loopPCD       string  // Fixed geometry artifact passed to every trial
	loopTrials    int     // Number of trials
	loopVoltageKV float64 // Seed voltage (kV)
	loopGapM      float64 // Seed gap (m)
	loopPhi       float64 // Seed phi
	loopStages    int     // Seed stage count
	loopMock      bool    // Use the analytic mock simulator
	loopLLM       bool    // Use the chat assistant for proposals
	loopOut       string  // Summary output directory
)

// loopOptions is everything one trial-loop run needs besides the config.
type loopOptions struct {
	PCD         string
	Trials      int
	Seed        search.ParameterSet
	UseLLM      bool
	OutDir      string
	GeometryDir string
}

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Run the proposal-driven trial loop",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := setup()
		if cmd.Flags().Changed("mock") {
			cfg.Executor.Mock = loopMock
		}
		useLLM := cfg.Assistant.Enabled
		if cmd.Flags().Changed("llm") {
			useLLM = loopLLM
		}
		if loopTrials <= 0 {
			logrus.Fatalf("--trials must be positive, got %d", loopTrials)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		summary, err := runLoop(ctx, cfg, loopOptions{
			PCD:    loopPCD,
			Trials: loopTrials,
			Seed: search.ParameterSet{
				VoltageKV: loopVoltageKV, GapM: loopGapM, Phi: loopPhi, Stages: loopStages,
			},
			UseLLM:      useLLM,
			OutDir:      loopOut,
			GeometryDir: filepath.Join(cfg.RunsDir, "pcd"),
		})
		if err != nil {
			logrus.Fatalf("Trial loop failed: %v", err)
		}
		printBest(os.Stdout, "=== BEST (trial loop) ===", summary.BestParams, summary.BestMetrics)
		fmt.Printf("\nSaved: %s\n", filepath.Join(loopOut, search.SummaryFileName))
	},
}

// runLoop wires the executor, geometry and strategy and runs the loop.
func runLoop(ctx context.Context, cfg Config, opts loopOptions) (*search.Summary, error) {
	var geom search.GeometryProvider = geometry.NewPointCloud(opts.GeometryDir, cfg.Geometry.Points)
	if opts.PCD != "" {
		geom = geometry.Static(opts.PCD)
	}
	strategyCfg := search.StrategyConfig{Name: "heuristic"}
	if opts.UseLLM {
		strategyCfg = search.StrategyConfig{Name: "assistant", Assistant: cfg.assistantConfig()}
	}
	strategy := search.NewProposalStrategy(strategyCfg)

	logrus.Infof("Starting trial loop: trials=%d strategy=%s mock=%v seed=%v",
		opts.Trials, strategy.Name(), cfg.Executor.Mock, opts.Seed)
	loop := search.NewTrialLoop(search.LoopConfig{Trials: opts.Trials, OutputDir: opts.OutDir},
		cfg.newExecutor(), geom, strategy)
	return loop.Run(ctx, opts.Seed)
}

func printBest(w io.Writer, title string, params search.ParameterSet, metrics search.Metrics) {
	if title != "" {
		fmt.Fprintf(w, "\n%s\n", title)
	}
	for _, v := range []interface{}{params, metrics} {
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			logrus.Errorf("marshal: %v", err)
			continue
		}
		fmt.Fprintln(w, string(data))
	}
}

func init() {
	seed := search.DefaultParameters()
	loopCmd.Flags().StringVar(&loopPCD, "pcd", "", "Point-cloud file passed to the simulator unchanged (default: generate per trial)")
	loopCmd.Flags().IntVar(&loopTrials, "trials", 20, "Number of trials")
	loopCmd.Flags().Float64Var(&loopVoltageKV, "V_kV", seed.VoltageKV, "Seed voltage in kV")
	loopCmd.Flags().Float64Var(&loopGapM, "gap_m", seed.GapM, "Seed electrode gap in meters")
	loopCmd.Flags().Float64Var(&loopPhi, "phi", seed.Phi, "Seed phi")
	loopCmd.Flags().IntVar(&loopStages, "stages", seed.Stages, "Seed number of stages")
	loopCmd.Flags().BoolVar(&loopMock, "mock", false, "Use the analytic mock simulator (default from config / USE_DUMMY)")
	loopCmd.Flags().BoolVar(&loopLLM, "llm", false, "Use the chat assistant for proposals (default from config / USE_GPT)")
	loopCmd.Flags().StringVar(&loopOut, "out", search.DefaultLoopOutputDir, "Directory for summary.json")

	rootCmd.AddCommand(loopCmd)
}
