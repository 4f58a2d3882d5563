package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/bft-labs/chatship/pkg/chatship"
	"github.com/bft-labs/chatship/plugins/filewatch"
)

func (a *app) watchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Send every line appended to a file until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.WatchFile == "" {
				return fmt.Errorf("--file is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			opts := []chatship.Option{
				filewatch.WithFileWatch(filewatch.Config{
					Path:      a.cfg.WatchFile,
					FromStart: a.cfg.FromStart,
				}),
			}

			var metricsSrv *http.Server
			if a.cfg.MetricsAddr != "" {
				opts = append(opts, chatship.WithMetrics(prometheus.DefaultRegisterer))

				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				metricsSrv = &http.Server{
					Addr:              a.cfg.MetricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					a.log.Info().Str("addr", a.cfg.MetricsAddr).Msg("starting metrics server")
					if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error().Err(err).Msg("metrics server failed")
					}
				}()
			}

			c, err := a.newClient(ctx, opts...)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}
			a.log.Info().
				Str("file", a.cfg.WatchFile).
				Str("provider", c.Provider()).
				Msg("watching")

			<-ctx.Done()
			a.log.Info().Msg("received signal, stopping...")

			closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.DrainTimeout+5*time.Second)
			defer cancel()
			closeErr := c.Close(closeCtx)

			if metricsSrv != nil {
				_ = metricsSrv.Shutdown(closeCtx)
			}
			if closeErr != nil {
				return fmt.Errorf("close client: %w", closeErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&a.cfg.WatchFile, "file", a.cfg.WatchFile, "file to tail")
	cmd.Flags().BoolVar(&a.cfg.FromStart, "from-start", a.cfg.FromStart, "also send the existing content of the file")
	cmd.Flags().StringVar(&a.cfg.MetricsAddr, "metrics-addr", a.cfg.MetricsAddr, "serve Prometheus metrics on this address (e.g. :9102)")
	return cmd
}
