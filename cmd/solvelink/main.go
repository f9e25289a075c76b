package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/solveengine"
	"github.com/srand/solvelink/pkg/utils"
)

// Set at build time with -ldflags "-X main.Version=..."
var Version = "dev"

var (
	configFile string
	verbosity  int
)

var rootCmd = &cobra.Command{
	Use:     "solvelink",
	Short:   "Solve optimization models on the SolveEngine service",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if configFile != "" {
			viper.SetConfigFile(configFile)
		} else {
			viper.SetConfigName("solvelink.yaml")
			viper.SetConfigType("yaml")
			viper.AddConfigPath("/etc/solvelink/")
			viper.AddConfigPath("$HOME/.config/solvelink")
			viper.AddConfigPath(".")
		}
		viper.SetEnvPrefix("solveengine")
		viper.AutomaticEnv()

		log.SetVerbosity(verbosity)

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
				log.Fatal(err)
			}
			log.Debug("No configuration file found")
		} else {
			log.Debug("Using configuration file:", viper.ConfigFileUsed())
		}

		// Configuration may raise the verbosity but never lower it.
		if debug := viper.GetInt("debug"); debug > verbosity {
			log.SetVerbosity(debug)
		}
	},
}

// Returns the configuration merged from defaults, file, environment and flags.
func LoadConfig() *solveengine.Config {
	config := solveengine.NewConfig()
	if err := utils.UnmarshalConfig(viper.GetViper(), config); err != nil {
		log.Fatal(err)
	}
	if config.Debug < verbosity {
		config.Debug = verbosity
	}
	return config
}

func init() {
	defaults := solveengine.NewConfig()
	viper.SetDefault("apikey", "")
	viper.SetDefault("endpoint", defaults.Endpoint)
	viper.SetDefault("debug", 0)
	viper.SetDefault("print_jobs", false)
	viper.SetDefault("delete_job", false)
	viper.SetDefault("verify_tls", defaults.VerifyTLS)
	viper.SetDefault("time_limit", defaults.TimeLimit)
	viper.SetDefault("hard_time_limit", 0)
	viper.SetDefault("poll_interval", defaults.PollInterval)
	viper.SetDefault("poll_retries", defaults.PollRetries)
	viper.SetDefault("request_timeout", 0)
	viper.SetDefault("lp_file", "")
	viper.SetDefault("metrics_file", "")
	viper.SetDefault("max_payload", "")

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Configuration file")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Verbosity (repeatable)")
	rootCmd.PersistentFlags().StringP("endpoint", "e", solveengine.DefaultEndpoint, "Service base URL")
	rootCmd.PersistentFlags().Bool("verify-tls", true, "Verify server certificates")
	viper.BindPFlag("endpoint", rootCmd.PersistentFlags().Lookup("endpoint"))
	viper.BindPFlag("verify_tls", rootCmd.PersistentFlags().Lookup("verify-tls"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
