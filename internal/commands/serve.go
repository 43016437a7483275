package commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nconklindev/freightmap/internal/config"
	"github.com/nconklindev/freightmap/internal/server"

	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the upload and mapping web form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.processor()
			// Fail at startup rather than on the first upload.
			if _, err := p.Schema(); err != nil {
				return err
			}

			srv, err := server.New(a.cfg.Server, p, a.logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx, a.cfg.Server.Listen)
		},
	}

	f := cmd.Flags()
	f.String(config.KeyListen, ":8501", "listen address")
	f.Int64(config.KeyMaxUploadMB, 200, "maximum upload size in MB")
	f.Duration(config.KeyUploadTTL, 30*time.Minute, "how long an upload waits for its mapping form")
	f.String(config.KeyGinMode, "release", "gin mode (debug, release, test)")
	f.Int64(config.KeyMaxJobs, 4, "conversions allowed to run at once")
	return cmd
}
