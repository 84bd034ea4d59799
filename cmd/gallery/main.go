// Command gallery walks a catalog of artworks hung in a 3D room, or exports
// the computed hang as a manifest and floor plan.
//
// Controls:
//
//	W/A/S/D, arrows - Walk
//	Mouse drag      - Look around
//	Scroll          - Glide forward/back
//	Click, E, Enter - Select the artwork in view
//	Esc             - Quit
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"gallery-engine/config"
)

var (
	configPath string
	logLevel   string
	modeFlag   string
)

func main() {
	root := &cobra.Command{
		Use:           "gallery",
		Short:         "3D museum walk-through and artwork placement",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to gallery TOML config")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&modeFlag, "mode", "", "Placement mode override (auto, wall, anchor)")

	root.AddCommand(newWalkCmd(), newPlanCmd(), newInspectCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("gallery failed", "err", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}

// loadConfig reads --config over the defaults, applies flag overrides and
// validates the result.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return cfg, err
		}
	}
	if modeFlag != "" {
		cfg.Assets.Mode = modeFlag
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
