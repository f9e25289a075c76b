package main

import (
	"bufio"
	"os"

	"github.com/spf13/cobra"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/lp"
	"github.com/srand/solvelink/pkg/model"
	"github.com/srand/solvelink/pkg/utils"
)

var writeCmd = &cobra.Command{
	Use:   "write-lp <model.yaml>",
	Short: "Write a model in LP format without solving it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fs := utils.OsFs()

		m, err := model.LoadFile(fs, args[0])
		if err != nil {
			log.Fatal(err)
		}

		var opts []lp.Option
		if stats, _ := cmd.Flags().GetBool("stats"); stats {
			opts = append(opts, lp.WithStatistics())
		}

		output, _ := cmd.Flags().GetString("output")
		if output == "" || output == "-" {
			w := bufio.NewWriter(os.Stdout)
			if err := lp.Write(m, w, opts...); err != nil {
				log.Fatal(err)
			}
			if err := w.Flush(); err != nil {
				log.Fatal(err)
			}
			return
		}

		if err := lp.WriteFile(fs, output, m, opts...); err != nil {
			log.Fatal(err)
		}
		log.Infof("Wrote LP to %s", output)
	},
}

func init() {
	writeCmd.Flags().StringP("output", "o", "", "Output file, compressed if it ends in .gz")
	writeCmd.Flags().BoolP("stats", "s", false, "Prefix the output with model statistics")
	rootCmd.AddCommand(writeCmd)
}
