package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newImportShpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-shp <file.shp>",
		Short: "Add the shapes of a shapefile to the draw layer",
		Long: `Convert the shapes of an ESRI shapefile (with its .dbf attributes) to
GeoJSON features, append them to the draw layer and save the settings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openCLI(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Layer.ImportShapefile(args[0])
			if err != nil {
				return err
			}
			if err := a.Settings.Save(cmd.Context()); err != nil {
				return err
			}
			slog.Info("Shapefile imported", "file", args[0], "features", n, "total", a.Layer.Len())
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d features\n", n)
			return nil
		},
	}
}
