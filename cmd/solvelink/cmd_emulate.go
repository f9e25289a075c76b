package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	echo "github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/srand/solvelink/pkg/emulator"
	"github.com/srand/solvelink/pkg/log"
	"github.com/srand/solvelink/pkg/metrics"
	"github.com/srand/solvelink/pkg/protocol"
	"github.com/srand/solvelink/pkg/utils"
	"golang.org/x/sync/errgroup"
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Serve a local emulation of the solve service",
	Run: func(cmd *cobra.Command, args []string) {
		listen, _ := cmd.Flags().GetStringSlice("listen")
		statuses, _ := cmd.Flags().GetStringSlice("statuses")
		result, _ := cmd.Flags().GetString("result")

		opts := emulator.Options{
			APIKey: viper.GetString("apikey"),
			Result: protocol.ResultStatus(result),
		}
		for _, status := range statuses {
			opts.Statuses = append(opts.Statuses, protocol.JobStatus(status))
		}

		stats := metrics.New()

		r := emulator.New(opts).Handler()
		r.Use(stats.Middleware)
		r.GET("/metrics", echo.WrapHandler(stats.Handler()))

		ctx, cancel := SignalContext()
		defer cancel()

		g, ctx := errgroup.WithContext(ctx)

		for _, uri := range listen {
			host, err := utils.ParseHttpUrl(uri)
			if err != nil {
				log.Fatal(err)
			}

			server := &http.Server{Addr: host, Handler: r}

			g.Go(func() error {
				log.Info("Listening on http", host)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})
		}

		if err := g.Wait(); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	emulateCmd.Flags().StringSliceP("listen", "l", []string{"tcp://:8080"}, "Listen addresses")
	emulateCmd.Flags().StringSlice("statuses", nil, "Job statuses reported after scheduling, the last one repeats")
	emulateCmd.Flags().String("result", string(protocol.ResultOptimal), "Result status of completed jobs")
	rootCmd.AddCommand(emulateCmd)
}
