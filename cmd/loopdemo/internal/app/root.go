package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/on-the-ground/effect_ive_loop/effects/config"
	"github.com/on-the-ground/effect_ive_loop/effects/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Verbose    bool

	config config.Config
	logger *zap.Logger
}

// NewRootCommand creates the root command of the loop demo.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "loopdemo",
		Short: "Run small programs on the effect loop",
		Long: `loopdemo runs example programs whose reducers describe side effects
as data and whose epics perform them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "path to a YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log every reduced action")

	cmd.AddCommand(NewCounterCommand(opts))
	cmd.AddCommand(NewGameCommand(opts))

	return cmd
}

func (o *RootOptions) load() error {
	cfg := config.Default()
	if o.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(o.ConfigPath); err != nil {
			return err
		}
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
	}
	// human readable logs when a person is watching
	fd := os.Stderr.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		cfg.Log.Development = true
	}

	logger, err := log.New(cfg.Log)
	if err != nil {
		return err
	}
	o.config = cfg
	o.logger = logger
	return nil
}

// signalContext ends on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
