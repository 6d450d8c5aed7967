package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/workarea"
	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

var workareasCmd = &cobra.Command{
	Use:   "workareas",
	Short: "Manage TEKKOM work areas",
}

var workareasSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Fetch work areas from the admin API and store a snapshot",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if store == nil {
			return eris.New("store.driver is none; nothing to sync into")
		}
		defer func() { _ = store.Close() }()

		svc := workarea.NewService(newAdminClient(cfg.Admin).WorkAreas(), store)
		refreshErr := svc.Refresh(ctx)
		for _, n := range svc.Notices() {
			zap.L().Warn("work-area notice", zap.String("level", n.Level), zap.String("message", n.Message))
		}
		if refreshErr != nil {
			return eris.Wrap(refreshErr, "sync work areas")
		}

		fmt.Fprintf(cmd.OutOrStdout(), "synced %d work areas (%d active)\n", len(svc.All()), len(svc.Active()))
		return nil
	},
}

var (
	workareasXLSXPath string
	workareasSheet    string
	workareasDryRun   bool
)

var workareasImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Create work areas in the admin API from a spreadsheet",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		areas, rowErr := workarea.ReadXLSX(workareasXLSXPath, workareasSheet)
		if rowErr != nil {
			zap.L().Warn("skipped invalid spreadsheet rows", zap.Error(rowErr))
		}
		if len(areas) == 0 {
			return eris.New("no valid work areas in spreadsheet")
		}
		if workareasDryRun {
			fmt.Fprintf(cmd.OutOrStdout(), "%d work areas valid (dry run)\n", len(areas))
			return nil
		}

		res := newAdminClient(cfg.Admin).WorkAreas()
		var created int
		for _, a := range areas {
			if _, err := res.Create(ctx, a); err != nil {
				zap.L().Error("create work area failed", zap.String("area_id", a.AreaID), zap.Error(err))
				if adminapi.StatusCode(err) == 0 {
					return eris.Wrap(err, "import work areas")
				}
				continue
			}
			created++
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created %d of %d work areas\n", created, len(areas))
		return nil
	},
}

func init() {
	workareasImportCmd.Flags().StringVar(&workareasXLSXPath, "xlsx", "", "path to XLSX file (required)")
	workareasImportCmd.Flags().StringVar(&workareasSheet, "sheet", "", "sheet name (default first sheet)")
	workareasImportCmd.Flags().BoolVar(&workareasDryRun, "dry-run", false, "validate only, do not call the API")
	_ = workareasImportCmd.MarkFlagRequired("xlsx")

	workareasCmd.AddCommand(workareasSyncCmd, workareasImportCmd)
	rootCmd.AddCommand(workareasCmd)
}
