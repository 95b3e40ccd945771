package cli

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"tinyrisks_admin/internal/app"

	"github.com/spf13/cobra"
)

func newServeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin console web server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := app.New(o.log, o.cfg)
			if err != nil {
				return err
			}

			go func() {
				application.HTTPServer.BuildRouters()
				application.HTTPServer.MustRun()
			}()

			// Graceful shutdown
			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)

			sign := <-stop
			o.log.Info("stopping application", slog.String("signal", sign.String()))

			application.Stop()

			o.log.Info("application stopped")

			return nil
		},
	}
}
