package cli

import (
	"fmt"
	"os"

	"RegimeShift/internal/di"
	"RegimeShift/pkg/config"
	applogger "RegimeShift/pkg/logger"

	"github.com/spf13/cobra"
)

// env carries the configuration and logger resolved by the root command.
type env struct {
	cfgFile  string
	logLevel string
	cfg      *config.Config
	l        *applogger.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:           "regimeshift",
		Short:         "Detect structural breaks in commodity price series",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return e.load(cmd.Name() != "serve")
		},
	}

	root.PersistentFlags().StringVar(&e.cfgFile, "config", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&e.logLevel, "log-level", "", "Override log level defined in config")

	root.AddCommand(
		newServeCmd(e),
		newAnalyzeCmd(e),
		newEDACmd(e),
		newExportCmd(e),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (e *env) load(quiet bool) error {
	if e.cfg != nil {
		return nil
	}
	cfg, err := config.LoadWithEnv(e.cfgFile)
	if err != nil {
		return err
	}
	if e.logLevel != "" {
		cfg.Logging.Level = e.logLevel
	}
	// one-shot commands print their result on stdout
	if quiet && cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	l, err := di.ProvideLogger(cfg)
	if err != nil {
		return err
	}
	e.cfg, e.l = cfg, l
	return nil
}
