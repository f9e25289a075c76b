package main

import (
	"github.com/spf13/cobra"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
)

var jobsRemoveCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a job and its results",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := DefaultDeadlineContext()
		defer cancel()

		client := NewJobsClient()
		defer client.Close()

		for _, arg := range args {
			if err := solveengine.DeleteJob(ctx, client, arg); err != nil {
				log.Fatal(err)
			}
			log.Info("Deleted job", arg)
		}
	},
}

func init() {
	jobsCmd.AddCommand(jobsRemoveCmd)
}
