package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"gallery-engine/framefit"
)

func newInspectCmd() *cobra.Command {
	var roomPath, catalogPath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the room normalization, frame metrics and placements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			overrideAssets(&cfg.Assets.Room, roomPath)
			overrideAssets(&cfg.Assets.Catalog, catalogPath)

			ex, err := mountHeadless(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer ex.Close()

			w := cmd.OutOrStdout()
			r := ex.Room
			size := r.Bounds.Size()
			fmt.Fprintf(w, "Room:       %s\n", cfg.Assets.Room)
			fmt.Fprintf(w, "Scale:      %.4f\n", r.Transform.Scale)
			fmt.Fprintf(w, "Offset:     (%.3f, %.3f, %.3f)\n", r.Transform.Offset.X, r.Transform.Offset.Y, r.Transform.Offset.Z)
			fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X, size.Y, size.Z)
			fmt.Fprintf(w, "Mode:       %s\n", ex.Mode)

			frame := framefit.NewDefaultFrame(cfg.Frame)
			if cfg.Assets.Frame != "" {
				if frame, err = framefit.LoadFrameAsset(cfg.Assets.Frame, cfg.Frame); err != nil {
					return err
				}
			}
			meta, opening, err := frame.Metadata()
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "Frame:      %.3f x %.3f x %.3f\n", meta.NativeWidth, meta.NativeHeight, meta.NativeDepth)
			fmt.Fprintf(w, "Opening:    %.3f x %.3f (measured: %v)\n", opening.Width, opening.Height, opening.Measured)
			fmt.Fprintln(w)

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tPOSITION\tYAW\tOUTER")
			for _, it := range ex.Items {
				p := it.Placement
				fmt.Fprintf(tw, "%s\t%s\t(%.2f, %.2f, %.2f)\t%.1f°\t%.2f x %.2f\n",
					p.ArtworkID, p.Source, p.Position.X, p.Position.Y, p.Position.Z,
					p.Yaw*180/math.Pi, it.Fit.OuterWidth, it.Fit.OuterHeight)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&roomPath, "room", "", "Room glTF/GLB (overrides assets.room)")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "Catalog YAML (overrides assets.catalog)")
	return cmd
}
