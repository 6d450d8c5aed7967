package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/petrogas-holding/corpsite/internal/cluster"
	"github.com/petrogas-holding/corpsite/internal/config"
	"github.com/petrogas-holding/corpsite/internal/dataset"
	"github.com/petrogas-holding/corpsite/internal/db"
	"github.com/petrogas-holding/corpsite/internal/geo"
	"github.com/petrogas-holding/corpsite/internal/mapview"
	"github.com/petrogas-holding/corpsite/internal/resilience"
	"github.com/petrogas-holding/corpsite/internal/tiles"
	"github.com/petrogas-holding/corpsite/internal/workarea"
	"github.com/petrogas-holding/corpsite/pkg/adminapi"
)

const breakerCooldown = 30 * time.Second

func mapOptions(m config.MapConfig, t config.TilesConfig) mapview.Options {
	opts := mapview.DefaultOptions()
	opts.Center = geo.LatLng{Lat: m.CenterLat, Lng: m.CenterLng}
	opts.DefaultZoom = m.DefaultZoom
	opts.FitPadding = m.FitPadding
	opts.FlowLabelZoom = m.FlowLabelZoom
	opts.Tiles.URLTemplate = "/tiles/basemap/{z}/{x}/{y}." + t.Format
	opts.Tiles.Attribution = t.Attribution
	opts.Cluster = cluster.Options{
		Radius:        m.ClusterRadius,
		DisableAtZoom: m.DisableClusterZoom,
		LabelZoom:     m.POILabelZoom,
	}
	return opts
}

func loadDataset(path string) (*dataset.Dataset, error) {
	if path == "" {
		return dataset.Default()
	}
	return dataset.Load(path)
}

// reloadDataset swaps the dataset at path into r. The rendered dataset is
// kept when the file fails to load or validate.
func reloadDataset(r *mapview.Renderer, path string) (cluster.Diff, error) {
	ds, err := loadDataset(path)
	if err != nil {
		return cluster.Diff{}, eris.Wrap(err, "reload dataset")
	}
	if err := ds.Validate(); err != nil {
		return cluster.Diff{}, eris.Wrap(err, "reload dataset")
	}
	diff := r.Reload(ds)
	zap.L().Info("dataset reloaded",
		zap.Int("areas", len(ds.Areas)),
		zap.Int("flows", len(ds.Flows)),
		zap.Int("points", r.Points().Len()),
	)
	return diff, nil
}

func newTileProxy(t config.TilesConfig) *tiles.Proxy {
	return tiles.NewProxy(t.UpstreamURL, t.Format,
		tiles.WithCache(tiles.NewCache(t.CacheEntries, time.Duration(t.CacheTTLMinutes)*time.Minute)),
		tiles.WithMaxZoom(mapview.MaxZoom),
	)
}

func newAdminClient(a config.AdminConfig) *adminapi.Client {
	policy := resilience.DefaultPolicy()
	if a.RetryAttempts > 0 {
		policy.Attempts = a.RetryAttempts
	}
	return adminapi.New(adminapi.ClientContext{BaseURL: a.BaseURL, Token: a.Token},
		adminapi.WithTimeout(time.Duration(a.TimeoutSecs)*time.Second),
		adminapi.WithRateLimit(a.RateLimit),
		adminapi.WithRetryPolicy(policy),
		adminapi.WithBreaker(resilience.NewBreaker(max(a.BreakerThreshold, 1), breakerCooldown)),
	)
}

// openStore opens and migrates the snapshot store. The "none" driver yields
// a nil store.
func openStore(ctx context.Context, s config.StoreConfig) (workarea.Store, error) {
	var store workarea.Store
	switch s.Driver {
	case "", "none":
		return nil, nil
	case "sqlite":
		st, err := workarea.NewSQLite(s.DatabaseURL)
		if err != nil {
			return nil, err
		}
		store = st
	case "postgres":
		pool, err := db.Open(ctx, s.DatabaseURL, db.PoolConfig{MaxConns: s.MaxConns})
		if err != nil {
			return nil, eris.Wrap(err, "open postgres store")
		}
		store = workarea.NewPostgres(pool, pool.Close)
	default:
		return nil, eris.Errorf("unknown store driver %q", s.Driver)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return store, nil
}
