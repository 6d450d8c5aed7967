package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/dataset"
	"github.com/petrogas-holding/corpsite/internal/geo"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Inspect and build the map geometry dataset",
}

var datasetFile string

var datasetValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the dataset against the data-model invariants",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := datasetFile
		if path == "" {
			path = cfg.Dataset.Path
		}
		ds, err := loadDataset(path)
		if err != nil {
			return err
		}
		if err := ds.Validate(); err != nil {
			return eris.Wrap(err, "dataset invalid")
		}

		counts := ds.Counts()
		fmt.Fprintf(cmd.OutOrStdout(), "dataset ok: %d areas, %d flow points, %d points of interest\n",
			counts[geo.TypeArea], counts[geo.TypeFlow], counts[geo.TypeTJSL])
		return nil
	},
}

var (
	importAreasPath  string
	importPointsPath string
	importOutPath    string
)

var datasetImportCmd = &cobra.Command{
	Use:   "import-shp",
	Short: "Build a dataset YAML from area and point shapefiles",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if importAreasPath == "" && importPointsPath == "" {
			return eris.New("at least one of --areas or --points is required")
		}

		ds, err := dataset.ImportShapefiles(importAreasPath, importPointsPath)
		if err != nil {
			return eris.Wrap(err, "import shapefiles")
		}
		if err := ds.Validate(); err != nil {
			zap.L().Warn("imported dataset has invalid items", zap.Error(err))
		}

		out := cmd.OutOrStdout()
		if importOutPath != "" {
			f, err := os.Create(importOutPath)
			if err != nil {
				return eris.Wrap(err, "create output")
			}
			defer func() { _ = f.Close() }()
			out = f
		}
		if err := ds.WriteYAML(out); err != nil {
			return err
		}

		zap.L().Info("shapefile import complete",
			zap.Int("areas", len(ds.Areas)),
			zap.Int("pois", len(ds.POIs)),
			zap.String("out", importOutPath),
		)
		return nil
	},
}

func init() {
	datasetValidateCmd.Flags().StringVar(&datasetFile, "file", "", "dataset YAML (default: dataset.path or built-in)")
	datasetImportCmd.Flags().StringVar(&importAreasPath, "areas", "", "polygon shapefile of work areas")
	datasetImportCmd.Flags().StringVar(&importPointsPath, "points", "", "point shapefile of TJSL locations")
	datasetImportCmd.Flags().StringVar(&importOutPath, "out", "", "output YAML path (default stdout)")

	datasetCmd.AddCommand(datasetValidateCmd, datasetImportCmd)
	rootCmd.AddCommand(datasetCmd)
}
