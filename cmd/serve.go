package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/mapview"
	"github.com/petrogas-holding/corpsite/internal/selection"
	"github.com/petrogas-holding/corpsite/internal/server"
	"github.com/petrogas-holding/corpsite/internal/workarea"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the map and admin proxy HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ds, err := loadDataset(cfg.Dataset.Path)
		if err != nil {
			return eris.Wrap(err, "load dataset")
		}
		if err := ds.Validate(); err != nil {
			return eris.Wrap(err, "invalid dataset")
		}

		store, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		if store != nil {
			defer func() { _ = store.Close() }()
		}

		admin := newAdminClient(cfg.Admin)
		areas := workarea.NewService(admin.WorkAreas(), store)
		if err := areas.Restore(ctx); err != nil {
			zap.L().Warn("restore work-area snapshot failed", zap.Error(err))
		}
		if err := areas.Refresh(ctx); err != nil {
			zap.L().Warn("initial work-area refresh failed", zap.Error(err))
		}

		sessions := selection.NewSessions(time.Duration(cfg.Server.SessionTTLMinutes) * time.Minute)
		go sessions.Run(ctx, time.Minute)

		renderer := mapview.NewRenderer(ds, mapOptions(cfg.Map, cfg.Tiles))
		go watchReload(ctx, renderer, cfg.Dataset.Path)

		handler := server.New(server.Deps{
			Renderer:       renderer,
			Sessions:       sessions,
			Tiles:          newTileProxy(cfg.Tiles),
			Admin:          admin,
			WorkAreas:      areas,
			CORSOrigins:    cfg.Server.CORSOrigins,
			WorkAreaMaxAge: time.Duration(cfg.Admin.RefreshMinutes) * time.Minute,
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server",
			zap.Int("port", port),
			zap.Int("areas", len(ds.Areas)),
			zap.Int("flows", len(ds.Flows)),
			zap.Int("pois", len(ds.POIs)),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// watchReload reloads the dataset on SIGHUP until ctx ends.
func watchReload(ctx context.Context, r *mapview.Renderer, path string) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if _, err := reloadDataset(r, path); err != nil {
				zap.L().Error("dataset reload failed, keeping current dataset", zap.Error(err))
			}
		}
	}
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
