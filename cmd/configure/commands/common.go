// Package commands implements the study-planner-configure subcommands.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/benvon/study-planner/internal/config"
	"github.com/benvon/study-planner/internal/database"
	"github.com/benvon/study-planner/internal/models"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

var (
	colorHeader = color.New(color.Bold)
	colorOK     = color.New(color.FgGreen)
	colorWarn   = color.New(color.FgYellow)
	colorMuted  = color.New(color.FgWhite, color.Faint)
)

// withDB loads the configuration, connects to Postgres and runs fn
func withDB(ctx context.Context, fn func(cfg *config.Config, db *database.DB) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required; configure always talks to Postgres")
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()
	return fn(cfg, db)
}

func printHeader(w io.Writer, title string) {
	_, _ = colorHeader.Fprintln(w, title)
}

func printOK(w io.Writer, format string, args ...any) {
	_, _ = colorOK.Fprintf(w, "✓ "+format+"\n", args...)
}

func printWarn(w io.Writer, format string, args ...any) {
	_, _ = colorWarn.Fprintf(w, format+"\n", args...)
}

func printField(w io.Writer, name string, value any) {
	fmt.Fprintf(w, "  %s %v\n", colorMuted.Sprint(name+":"), value)
}

func parseUserID(s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, fmt.Errorf("--user is required")
	}
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return uuid.Nil, fmt.Errorf("--user must be a UUID: %w", err)
	}
	return id, nil
}

// parseWindows reads "HH:MM-HH:MM" windows separated by commas. An empty string means no windows.
func parseWindows(s string) ([]models.TimeWindow, error) {
	windows := []models.TimeWindow{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		start, end, ok := strings.Cut(part, "-")
		if !ok {
			return nil, fmt.Errorf("window %q must look like 09:00-11:00", part)
		}
		windows = append(windows, models.TimeWindow{strings.TrimSpace(start), strings.TrimSpace(end)})
	}
	return windows, nil
}

func formatWindows(windows []models.TimeWindow) string {
	if len(windows) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(windows))
	for _, w := range windows {
		parts = append(parts, w.Start()+"-"+w.End())
	}
	return strings.Join(parts, ", ")
}
