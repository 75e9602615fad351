package cli

import (
	"errors"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mcoot/proplatform/internal/config"
	"github.com/mcoot/proplatform/internal/factory"
)

// state is shared by every subcommand of one root command
type state struct {
	cfg *Config
	app *factory.App
	out *Output
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd, _ := newRootCmd()
	return cmd
}

func newRootCmd() (*cobra.Command, *state) {
	st := &state{cfg: DefaultConfig()}

	rootCmd := &cobra.Command{
		Use:   "ppctl",
		Short: "Command-line client for ProPlatform accounts",
		Long: `ppctl registers, signs in and manages a ProPlatform account.

The credential returned by register or login is kept in a session slot
(a file under ~/.proplatform by default) and used by later commands until
logout clears it.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if st.cfg.loadErr != nil {
				return st.cfg.loadErr
			}
			if err := checkFormat(st.cfg.Output); err != nil {
				return err
			}
			st.out = NewOutput(st.cfg.Output, cmd.OutOrStdout(), cmd.ErrOrStderr())

			app, err := factory.New(st.cfg.Config, factory.Options{
				DefaultBackend: config.BackendFile,
				Logger:         st.cfg.Logger(cmd.ErrOrStderr()),
			})
			if err != nil {
				return err
			}
			st.app = app
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if st.app == nil {
				return nil
			}
			return st.app.Close()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&st.cfg.BaseURL, "base-url", st.cfg.BaseURL, "Identity provider base URL (env: PROPLATFORM_BASE_URL)")
	flags.StringVar(&st.cfg.APIKey, "api-key", st.cfg.APIKey, "Identity provider API key (env: PROPLATFORM_API_KEY)")
	flags.StringVar(&st.cfg.SessionBackend, "session-backend", st.cfg.SessionBackend, "Session backend: file, memory, redis (env: PROPLATFORM_SESSION_BACKEND)")
	flags.StringVar(&st.cfg.SessionDir, "session-dir", st.cfg.SessionDir, "Directory for the file backend (env: PROPLATFORM_SESSION_DIR)")
	flags.StringVar(&st.cfg.SessionSlot, "slot", st.cfg.SessionSlot, "Session slot name (env: PROPLATFORM_SESSION_SLOT)")
	flags.StringVar(&st.cfg.RedisURL, "redis-url", st.cfg.RedisURL, "Redis URL for the redis backend (env: PROPLATFORM_REDIS_URL)")
	flags.DurationVar(&st.cfg.HTTPTimeout, "timeout", st.cfg.HTTPTimeout, "Identity provider request timeout (env: PROPLATFORM_HTTP_TIMEOUT)")
	flags.StringVarP(&st.cfg.Output, "output", "o", st.cfg.Output, "Output format: text, json")
	flags.BoolVarP(&st.cfg.Verbose, "verbose", "v", st.cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newRegisterCmd(st))
	rootCmd.AddCommand(newLoginCmd(st))
	rootCmd.AddCommand(newLogoutCmd(st))
	rootCmd.AddCommand(newStatusCmd(st))
	rootCmd.AddCommand(newProfileCmd(st))
	rootCmd.AddCommand(newHealthCmd(st))

	return rootCmd, st
}

// Execute runs the root command
func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd, st := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.Execute(); err != nil {
		out := st.out
		if out == nil {
			out = NewOutput(st.cfg.Output, stdout, stderr)
		}
		out.PrintError(err)

		var ce *cliError
		if errors.As(err, &ce) && ce.usage {
			return 2
		}
		return 1
	}
	return 0
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
