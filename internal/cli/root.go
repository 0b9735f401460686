package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/config"
	"github.com/yildizm/catform/internal/emoji"
	"github.com/yildizm/catform/internal/logger"
)

var (
	cfgFile    string
	verbose    bool
	noColor    bool
	noEmoji    bool
	outputFmt  string
	backendURL string
)

// NewRootCommand creates the root command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catform",
		Short: "Catalog rendering form",
		Long: `catform drives a catalog rendering backend from the terminal.

Pick input data files, a template and an optional validation schema, then let
the backend render and validate the catalog. Parameter sets can be stored as
named presets and reused from the interactive form or from scripts.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Auto-disable emojis on Windows if not explicitly set
			if runtime.GOOS == "windows" && !cmd.Flag("no-emoji").Changed {
				noEmoji = true
			}
			emoji.SetEmojiDisabled(noEmoji)
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&noEmoji, "no-emoji", false, "disable emoji output (useful for Windows terminals)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "output format (text, json, markdown)")
	rootCmd.PersistentFlags().StringVar(&backendURL, "backend", "", "backend websocket endpoint (overrides bridge.endpoint)")

	// Add subcommands
	rootCmd.AddCommand(newUICommand())
	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newPresetsCommand())
	rootCmd.AddCommand(newValidationTypesCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newVersionCommand(version, commit, date))

	return rootCmd
}

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display version number, build commit, date, and runtime information",
		Run: func(cmd *cobra.Command, args []string) {
			displayVersion := version
			displayCommit := commit
			displayDate := date

			if version == "dev" || version == "" {
				displayVersion = "development"
			}
			if commit == "none" || commit == "" {
				displayCommit = "local-build"
			}
			if date == "unknown" || date == "" {
				displayDate = "local-build"
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catform %s (%s) built on %s\n", displayVersion, displayCommit, displayDate)
			fmt.Fprintf(out, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// loadConfig loads the effective configuration and folds it into the global flags
func loadConfig() (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Logging.Verbose {
		verbose = true
	}
	if cfg.UI.NoEmoji {
		noEmoji = true
		emoji.SetEmojiDisabled(true)
	}
	return cfg, nil
}

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// Global helpers
func isVerbose() bool {
	return verbose
}

func newLogger(component string) *logger.Logger {
	return logger.NewWithCallback(component, isVerbose)
}

func getOutputFormat(cfg *config.Config) string {
	if outputFmt != "" {
		return outputFmt
	}
	return cfg.Output.DefaultFormat
}

func getEndpoint(cfg *config.Config) string {
	if backendURL != "" {
		return backendURL
	}
	return cfg.Bridge.Endpoint
}

// useColor resolves --no-color, NO_COLOR and output.color_mode
func useColor(cfg *config.Config) bool {
	if noColor || os.Getenv("NO_COLOR") != "" {
		return false
	}
	switch cfg.Output.ColorMode {
	case "always":
		return true
	case "never":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
