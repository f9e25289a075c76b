package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/lp"
	"github.com/srand/solvelink/pkg/metrics"
	"github.com/srand/solvelink/pkg/model"
	"github.com/srand/solvelink/pkg/solveengine"
	"github.com/srand/solvelink/pkg/utils"
)

var solveCmd = &cobra.Command{
	Use:   "solve <model.yaml>",
	Short: "Solve a model remotely",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		config := LoadConfig()
		if err := config.Validate(); err != nil {
			log.Fatal(err)
		}
		config.Log()

		fs := utils.OsFs()

		m, err := model.LoadFile(fs, args[0])
		if err != nil {
			log.Fatal(err)
		}

		ctx, cancel := SignalContext()
		defer cancel()

		stats := metrics.New()
		client := NewClient(config, stats, logProgress)

		solver := solveengine.NewSolver(config, client, utils.SystemClock, fs)
		solver.AddObserver(stats)

		outcome, solveErr := solver.Solve(ctx, m)

		if config.MetricsFile != "" {
			if err := stats.WriteTextfile(config.MetricsFile); err != nil {
				log.Warn("Failed to write metrics:", err)
			}
		}

		printOutcome(m, outcome, cmd.Flags().Changed("values"))

		if solveErr != nil {
			log.Fatal(solveErr)
		}
	},
}

func printOutcome(m *model.Model, outcome *solveengine.Outcome, values bool) {
	if outcome.Job != nil {
		fmt.Printf("job:          %s\n", outcome.Job.ID)
		fmt.Printf("cause:        %s\n", outcome.Cause())
	}
	fmt.Printf("solve status: %s\n", outcome.Status.Solve)
	fmt.Printf("model status: %s\n", outcome.Status.Model)
	fmt.Printf("duration:     %v\n", outcome.Duration)

	if !outcome.Status.Model.HasSolution() {
		return
	}

	fmt.Printf("objective:    %v\n", outcome.Objective)

	if !values || !outcome.HasValues {
		return
	}

	for idx := range m.Variables {
		if value, ok := m.Value(idx); ok {
			fmt.Printf("  %-10s %v\n", lp.VarName(m, idx), value)
		}
	}
}

func init() {
	solveCmd.Flags().Duration("time-limit", solveengine.DefaultTimeLimit, "Time limit enforced by the service")
	solveCmd.Flags().Duration("hard-time-limit", 0, "Time limit enforced locally")
	solveCmd.Flags().Duration("poll-interval", solveengine.DefaultPollInterval, "Time between status queries")
	solveCmd.Flags().Bool("delete", false, "Delete the job from the service when done")
	solveCmd.Flags().Bool("print-jobs", false, "List recent jobs before submitting")
	solveCmd.Flags().String("lp-file", "", "Write the submitted LP to a file")
	solveCmd.Flags().String("metrics-file", "", "Write metrics to a file when done")
	solveCmd.Flags().BoolP("values", "V", false, "Print variable values")

	viper.BindPFlag("time_limit", solveCmd.Flags().Lookup("time-limit"))
	viper.BindPFlag("hard_time_limit", solveCmd.Flags().Lookup("hard-time-limit"))
	viper.BindPFlag("poll_interval", solveCmd.Flags().Lookup("poll-interval"))
	viper.BindPFlag("delete_job", solveCmd.Flags().Lookup("delete"))
	viper.BindPFlag("print_jobs", solveCmd.Flags().Lookup("print-jobs"))
	viper.BindPFlag("lp_file", solveCmd.Flags().Lookup("lp-file"))
	viper.BindPFlag("metrics_file", solveCmd.Flags().Lookup("metrics-file"))

	rootCmd.AddCommand(solveCmd)
}
