package cli

import (
	"io"
	"log/slog"

	"github.com/mcoot/proplatform/internal/config"
)

// Config holds CLI configuration: the shared environment config plus
// CLI-only presentation flags
type Config struct {
	config.Config

	Output  string
	Verbose bool

	// loadErr is reported when the first command runs, so --help still works
	loadErr error
}

// DefaultConfig returns a Config populated from the environment
func DefaultConfig() *Config {
	envCfg, err := config.Load()
	return &Config{
		Config:  envCfg,
		Output:  "text",
		Verbose: false,
		loadErr: err,
	}
}

// Logger builds the diagnostic logger. Logs go to w (stderr) so they never mix
// with command output.
func (c *Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelError
	if c.Verbose {
		level = slog.LevelDebug
	}
	return newLogger(w, level)
}
