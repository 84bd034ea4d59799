package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	gio "gallery-engine/io"
)

func newPlanCmd() *cobra.Command {
	var (
		roomPath, catalogPath string
		out, manifest         string
		ppm                   float32
		noTextures            bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute the hang and export a floor plan and placement manifest",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			overrideAssets(&cfg.Assets.Room, roomPath)
			overrideAssets(&cfg.Assets.Catalog, catalogPath)

			ex, err := mountHeadless(cmd.Context(), cfg, !noTextures)
			if err != nil {
				return err
			}
			defer ex.Close()

			if out != "" {
				opts := gio.DefaultPlanOptions()
				if ppm > 0 {
					opts.PixelsPerMeter = ppm
				}
				if err := gio.ExportPlan(out, ex, opts); err != nil {
					return err
				}
				slog.Info("floor plan written", "path", out)
			}
			if manifest != "" {
				if err := gio.WriteManifest(manifest, gio.NewManifest(ex)); err != nil {
					return err
				}
				slog.Info("manifest written", "path", manifest, "items", len(ex.Items))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&roomPath, "room", "", "Room glTF/GLB (overrides assets.room)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML (overrides assets.catalog)")
	cmd.Flags().StringVarP(&out, "out", "o", "plan.webp", "Floor plan output (WebP); empty to skip")
	cmd.Flags().StringVar(&manifest, "manifest", "manifest.json", "Manifest output (JSON); empty to skip")
	cmd.Flags().Float32Var(&ppm, "ppm", 0, "Floor plan pixels per metre")
	cmd.Flags().BoolVar(&noTextures, "no-textures", false, "Skip fetching artwork images; frames use square placeholders")
	return cmd
}

func overrideAssets(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
