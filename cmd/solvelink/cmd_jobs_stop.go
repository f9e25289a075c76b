package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
)

var jobsStopCmd = &cobra.Command{
	Use:   "stop [id]",
	Short: "Stop a job",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewJobsClient()
		defer client.Close()

		for _, arg := range args {
			if err := solveengine.StopJob(ctx, client, arg); err != nil {
				log.Fatal(err)
			}

			status, err := solveengine.JobStatus(ctx, client, arg)
			if err != nil {
				log.Warn(err)
				continue
			}

			fmt.Println(arg, status)
		}
	},
}

var jobsStatusCmd = &cobra.Command{
	Use:   "status [id]",
	Short: "Show the status of a job",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewJobsClient()
		defer client.Close()

		for _, arg := range args {
			status, err := solveengine.JobStatus(ctx, client, arg)
			if err != nil {
				log.Fatal(err)
			}

			fmt.Println(arg, status)
		}
	},
}

func init() {
	jobsCmd.AddCommand(jobsStopCmd)
	jobsCmd.AddCommand(jobsStatusCmd)
}
