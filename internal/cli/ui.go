package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yildizm/catform/internal/config"
	"github.com/yildizm/catform/internal/logger"
	"github.com/yildizm/catform/internal/monitor"
	"github.com/yildizm/catform/internal/ui"
	"github.com/yildizm/catform/internal/watch"
)

var uiTheme string

func newUICommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ui",
		Short: "Open the interactive catalog form",
		Long: `Open the interactive catalog form.

File dialogs, rendering and preset storage are handled by the backend at
bridge.endpoint (or --backend). Backend messages appear in the activity log.
When watching is enabled, changes to the selected files on disk are reported
there too.`,
		Args: cobra.NoArgs,
		RunE: runUI,
	}

	cmd.Flags().StringVar(&uiTheme, "theme", "", "color theme (default, high-contrast, minimal)")

	return cmd
}

func runUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	theme := cfg.UI.Theme
	if uiTheme != "" {
		theme = uiTheme
	}
	if !ui.SetThemeByName(theme) {
		return fmt.Errorf("unknown theme: %s (available: %v)", theme, ui.GetAvailableThemes())
	}
	if noColor {
		_ = os.Setenv("NO_COLOR", "1")
	}

	// the screen belongs to the form; diagnostics go to a file
	log, closeLog, err := fileLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signalContext(cmd)
	defer stop()

	tracker := monitor.NewTracker()
	s, err := openSession(ctx, cfg, log, tracker.Instrument)
	if err != nil {
		return err
	}
	defer s.Close()
	defer logStats(log, tracker)

	if cfg.Watch.Enabled {
		w, err := watch.New(s.ctrl.Store(), s.ctrl, log.WithComponent("watch"))
		if err != nil {
			log.Warn("file watching disabled: %v", err)
		} else {
			defer func() { _ = w.Close() }()
			go func() {
				if err := w.Run(ctx); err != nil {
					log.Warn("watcher stopped: %v", err)
				}
			}()
		}
	}

	go reportDisconnect(ctx, s)

	return ui.Run(ctx, s.ctrl)
}

// logStats records the session's backend call totals in the diagnostic log
func logStats(log *logger.Logger, tracker *monitor.Tracker) {
	snap := tracker.Snapshot()
	calls, failed := snap.Totals()
	log.InfoWithFields("session finished", []logger.Field{
		{Key: "calls", Value: calls},
		{Key: "failed", Value: failed},
		{Key: "duration", Value: snap.Uptime.String()},
	})
	for _, op := range snap.Operations {
		log.DebugWithFields("backend operation", []logger.Field{
			{Key: "operation", Value: string(op.Operation)},
			{Key: "count", Value: op.Count},
			{Key: "avg_ns", Value: op.AvgTime},
			{Key: "errors", Value: op.ErrorCount},
		})
	}
}

// reportDisconnect raises an alert when the backend goes away under the form
func reportDisconnect(ctx context.Context, s *session) {
	select {
	case <-ctx.Done():
	case <-s.client.Done():
		if ctx.Err() != nil {
			return
		}
		msg := "Connection to the backend was lost."
		if err := s.client.Err(); err != nil {
			msg = fmt.Sprintf("Connection to the backend was lost: %v", err)
		}
		s.ctrl.UpdateLog(msg, true)
	}
}

// fileLogger opens logging.file for the diagnostic log
func fileLogger(cfg *config.Config) (*logger.Logger, func(), error) {
	path := config.ExpandPath(cfg.Logging.File)
	if path == "" {
		return logger.Nop(), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	log := logger.NewWithCallback("ui", isVerbose)
	log.SetOutput(f)
	return log, func() { _ = f.Close() }, nil
}
