package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
)

var jobsListCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recent jobs",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewJobsClient()
		defer client.Close()

		jobs, err := solveengine.ListJobs(ctx, client, viper.GetInt("per_page"))
		if err != nil {
			log.Fatal(err)
		}

		for index, job := range jobs {
			fmt.Printf("%d: %s %-12s %-10s %s\n", index, job.ID, job.Status, job.Algorithm, job.Submitted)
		}
	},
}

func init() {
	jobsCmd.AddCommand(jobsListCmd)
}
