// Package bandctl implements the operator CLI: PDF consolidation and a live
// view of the score feed.
package bandctl

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/okian/bandboard/internal/config"
	"github.com/okian/bandboard/internal/consolidate"
	"github.com/okian/bandboard/pkg/logger"
)

var version = "dev"

// rootOptions is shared by every subcommand.
type rootOptions struct {
	logLevel  string
	logFormat string
	cfg       *config.Config

	// opener replaces the PDF reader in tests.
	opener consolidate.Opener
}

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&rootOptions{})
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bandctl",
		Short: "Operate a bandboard score feed",
		Long: `bandctl consolidates competition score sheet PDFs into a single export
and follows a running bandboard server's live feed.

Configuration is read from BANDBOARD_* environment variables, an optional
.env file and the YAML file named by BANDBOARD_CONFIG.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default from config)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (default from config)")

	cmd.AddCommand(newConsolidateCmd(opts), newTailCmd(opts))
	return cmd
}

// setup loads configuration and routes logs to stderr so stdout stays readable.
func (o *rootOptions) setup(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	cfg, err := config.Load(cmd.Context())
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.logFormat != "" {
		cfg.LogFormat = o.logFormat
	}
	if err := logger.Setup(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat); err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// ExecuteContext runs the root command under ctx and returns the process exit code.
func ExecuteContext(ctx context.Context) int {
	if err := logger.InitWithWriter(os.Stderr); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return 1
	}
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		return 1
	}
	return 0
}
