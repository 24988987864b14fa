package cmd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/maorbril/recently/internal/config"
	"github.com/maorbril/recently/internal/logging"
	"github.com/maorbril/recently/internal/recent"
	"github.com/maorbril/recently/internal/telemetry"
)

var (
	cfgFile  string
	filePath string
	logLevel string

	cfg    = config.Default()
	logger = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "recently",
	Short: "Read and update the shared list of recently used files",
	Long: `Recently manages ~/.recently-used, the XML list of recently used files
shared by desktop applications. It can:
- List recent files, filtered by group or MIME type
- Record and forget files
- Serve the list to Claude Code and other MCP clients`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if filePath != "" {
			loaded.File = filePath
		}
		if logLevel != "" {
			loaded.LogLevel = logLevel
		}
		cfg = loaded
		logger = logging.New(cfg.LogLevel, os.Stderr)

		telemetry.SetVersion(Version)
		telemetry.Init(cfg.TelemetryKey)
		// Track command usage (skip root command itself)
		if cmd.Name() != "recently" {
			telemetry.TrackCommand(cmd.Name())
		}
		return nil
	},
}

// closeTelemetry flushes queued events once the command has finished,
// whether or not it failed.
var closeTelemetry = telemetry.Close

func Execute() error {
	defer closeTelemetry()
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/recently/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&filePath, "file", "f", "", "recent files document (default is ~/.recently-used)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(removeCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// openStore loads the configured recent files document. A missing document
// yields an empty store that is created on the next write.
func openStore() (*recent.Store, error) {
	path, err := cfg.RecentFile()
	if err != nil {
		return nil, err
	}
	s, err := recent.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open recent files: %w", err)
	}
	logger.Debug().Str("file", path).Int("entries", s.Len()).Msg("loaded recent files")
	return s, nil
}

// toURI turns a local path into a file:// URI and leaves URIs untouched.
func toURI(arg string) (string, error) {
	if strings.Contains(arg, "://") {
		return arg, nil
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", arg, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
