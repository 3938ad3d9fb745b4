package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/labelforge/labelforge/internal/api"
	"github.com/labelforge/labelforge/pkg/config"
)

// serveCommand runs the HTTP API server.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr       string
		configPath string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve sheet generation over HTTP",
		Long: `Serve starts the HTTP API. POST /v1/sheets renders a PDF from the
records in the request body; POST /v1/plan resolves the layout without
rendering. The configuration file provides server-side defaults that
requests may override.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			return c.runServe(cmd.Context(), &cfg, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "TOML configuration file")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the image cache")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, cfg *config.Config, addr string, noCache bool) error {
	runner := c.newRunner(cfg, noCache)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(runner, c.Logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		c.Logger.Info("server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
