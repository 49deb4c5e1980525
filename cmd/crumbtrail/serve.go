package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/crumbtrail/internal/presentation/tui"
	httpAdapter "github.com/aretw0/crumbtrail/pkg/adapters/http"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves the breadcrumb API under /api/trail, Prometheus metrics under /metrics
and, with --pages, a demo site under /pages whose visits are tracked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.Config.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		opts := []httpAdapter.Option{
			httpAdapter.WithIdentity(a.Identity()),
			httpAdapter.WithStreams(a.Streams),
			httpAdapter.WithMetrics(a.Metrics.Handler()),
			httpAdapter.WithLogger(a.Logger),
		}
		if pages, _ := cmd.Flags().GetBool("pages"); pages {
			opts = append(opts, httpAdapter.WithPages())
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           httpAdapter.NewHandler(a.Tracker, opts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if term.IsTerminal(int(os.Stdout.Fd())) {
			tui.PrintBanner(os.Stdout)
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.Logger.Info("starting crumbtrail server", "addr", srv.Addr, "store", a.Config.Store.Driver)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			a.Logger.Info("shutting down", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.Logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					return err
				}
			}
			a.Logger.Info("crumbtrail server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
	serveCmd.Flags().Bool("pages", false, "Serve the tracked demo site under /pages")
}
