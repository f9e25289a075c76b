package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
	"github.com/srand/solvelink/pkg/transport"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Manage remote jobs",
}

// Returns a client for the job commands. Only the API key is validated.
func NewJobsClient() *transport.Client {
	config := LoadConfig()
	if config.APIKey == "" {
		log.Fatal("No API key configured, set SOLVEENGINE_APIKEY")
	}
	return NewClient(config, nil, nil)
}

func init() {
	jobsCmd.PersistentFlags().Int("per-page", solveengine.DefaultListLength, "Number of jobs to list")
	viper.BindPFlag("per_page", jobsCmd.PersistentFlags().Lookup("per-page"))
	rootCmd.AddCommand(jobsCmd)
}
