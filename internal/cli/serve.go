package cli

import (
	"fmt"

	"RegimeShift/internal/di"
	applogger "RegimeShift/pkg/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(e *env) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis over HTTP and websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				e.cfg.Server.Port = port
			}
			app, cleanup, err := di.InitializeApp(e.cfg, e.l)
			if err != nil {
				return fmt.Errorf("app initialization failed: %w", err)
			}
			defer cleanup()

			e.l.Info("starting regimeshift",
				applogger.String("engine", e.cfg.Analysis.Engine),
				applogger.String("history", e.cfg.History.Backend),
				applogger.Bool("kafka", e.cfg.Kafka.Enabled),
				applogger.Int("port", e.cfg.Server.Port),
			)
			return app.Run(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "Override server.port")
	return cmd
}
