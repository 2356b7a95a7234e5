package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/sardine-ai/flexpreset/config"
	"github.com/sardine-ai/flexpreset/server"
	"github.com/sardine-ai/flexpreset/source"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve preset repositories over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "flexpreset.yaml", "server configuration file")
	return cmd
}

// serve runs the server described by cfg until ctx is done or the
// listener fails.
func serve(ctx context.Context, cfg *config.Config) error {
	repos := make([]source.Repository, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		repo, err := source.NewRepository(src)
		if err != nil {
			return err
		}
		repos = append(repos, repo)
	}

	srv := server.NewServer(ctx, repos, cfg.RefreshInterval)
	srv.AuthKey = cfg.AuthKey

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Start(cfg.Listen)
	}()

	select {
	case err := <-errc:
		srv.Stop()
		return err
	case <-ctx.Done():
		logrus.Info("Shutting down server")
		if err := srv.Shutdown(); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return <-errc
	}
}
