package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kilianp07/railops/core/analysis"
	"github.com/kilianp07/railops/core/model"
	"github.com/kilianp07/railops/core/solver"
	"github.com/kilianp07/railops/infra/logger"
	"github.com/kilianp07/railops/infra/metrics"
	"github.com/kilianp07/railops/infra/sink"
)

var (
	solveInput  string
	solveOutput string
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a planning dataset and write the schedule",
	RunE:  runSolve,
}

func init() {
	solveCmd.Flags().StringVarP(&solveInput, "input", "i", "", "dataset JSON file")
	solveCmd.Flags().StringVarP(&solveOutput, "output-dir", "o", "", "override the schedule output directory")
	_ = solveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if solveOutput != "" {
		cfg.Output.Dir = solveOutput
	}

	logg := logger.New("solve")

	data, err := os.ReadFile(solveInput)
	if err != nil {
		return fmt.Errorf("read dataset: %w", err)
	}
	var ds model.Dataset
	if err := json.Unmarshal(data, &ds); err != nil {
		return fmt.Errorf("parse dataset: %w", err)
	}

	var rec solver.Recorder = solver.NopRecorder{}
	if cfg.Metrics.PrometheusEnabled {
		promSink, err := metrics.NewPromSink()
		if err != nil {
			return fmt.Errorf("prometheus sink: %w", err)
		}
		rec = promSink
		go func() {
			if err := metrics.StartPromServer(ctx, cfg.Metrics.PrometheusAddr); err != nil {
				logg.Errorf("prom server: %v", err)
			}
		}()
	}

	runID := uuid.NewString()
	logg.Infof("solve run %s: %d vehicles, %d routes", runID, len(ds.Vehicles), len(ds.Routes))

	planner := solver.New(logg, rec)
	sched, err := planner.Solve(&ds, cfg.Solve)
	if err != nil {
		return err
	}

	path, err := sink.JSONFile{Dir: cfg.Output.Dir}.Write(runID, sched)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", sched.Status)
	if sched.Status.Solved() {
		rep, err := analysis.Summarize(&ds, sched)
		if err != nil {
			return err
		}
		fmt.Printf("objective: %d km deviation\n", *sched.ObjectiveValue)
		fmt.Printf("routes: %d  maintenance: %d  fleet km: %d (mean %.0f, stddev %.0f)\n",
			rep.RouteCoverage, rep.MaintenanceCount, rep.TotalKm, rep.FinalKmMean, rep.FinalKmStdDev)
	} else if sched.Message != "" {
		fmt.Printf("message: %s\n", sched.Message)
	}
	fmt.Printf("schedule written to %s\n", path)
	return nil
}
