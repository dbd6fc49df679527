package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/samvad-hq/falcon-incidents/internal/config"
	"github.com/samvad-hq/falcon-incidents/internal/logger"
	"github.com/samvad-hq/falcon-incidents/internal/storage"
	"github.com/samvad-hq/falcon-incidents/internal/watcher"
	"github.com/samvad-hq/falcon-incidents/pkg/feeds"
	"github.com/samvad-hq/falcon-incidents/pkg/incidents"
	"github.com/samvad-hq/falcon-incidents/pkg/publishers"
)

// Watcher is the long-running incident watcher. It polls the configured feeds
// on an interval and publishes new and updated records. It owns the storage
// and publisher clients until Close.
type Watcher struct {
	cfg          *config.Config
	feedReg      *feeds.Registry
	fanout       *publishers.Fanout
	service      *watcher.Service
	pollInterval time.Duration
	log          logger.Logger
	store        storage.Store

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher builds a watcher runtime from config and the feeds/publishers files.
func NewWatcher(ctx context.Context, cfg *config.Config, log logger.Logger) (*Watcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	client := incidents.New(cfg.AccessToken,
		incidents.WithBaseURL(cfg.BaseURL),
		incidents.WithTimeout(cfg.HTTPTimeout),
		incidents.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
		incidents.WithLogger(log),
	)

	feedReg, err := feeds.LoadRegistry(cfg.FeedsFile)
	if err != nil {
		return nil, fmt.Errorf("load feeds registry: %w", err)
	}
	feedList := feedReg.All()
	feedIDs := make([]string, 0, len(feedList))
	for _, f := range feedList {
		feedIDs = append(feedIDs, f.ID)
	}
	log.InfoObj("feeds registry loaded", "feeds_meta", map[string]any{
		"count": len(feedIDs),
		"ids":   feedIDs,
	})

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabledPublishers := publisherReg.Enabled()
	if len(enabledPublishers) == 0 {
		return nil, fmt.Errorf("no publishers configured")
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabledPublishers, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}
	fanout := publishers.NewFanout(pubClients)
	publisherSummaries := make([]map[string]string, 0, len(enabledPublishers))
	for _, pubCfg := range enabledPublishers {
		publisherSummaries = append(publisherSummaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(publisherSummaries),
		"publishers": publisherSummaries,
	})

	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		RecordTTL:       cfg.StorageTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		_ = fanout.Close()
		return nil, fmt.Errorf("init storage: %w", err)
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"record_ttl_seconds":       int(cfg.StorageTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	service := watcher.NewService(feeds.DefaultFetcherRegistry(client), client, fanout, log, store)

	return &Watcher{
		cfg:          cfg,
		feedReg:      feedReg,
		fanout:       fanout,
		service:      service,
		pollInterval: cfg.PollInterval,
		log:          log,
		store:        store,
	}, nil
}

// Run polls until the context is cancelled. The caller still owns Close.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}

	fs := w.feedReg.All()
	if len(fs) == 0 {
		w.log.WarnObj("no feeds configured; watcher idle", "feeds_file", w.cfg.FeedsFile)
		<-ctx.Done()
		return ctx.Err()
	}

	w.log.InfoObj("watcher loop starting", "watcher_state", map[string]any{
		"feeds_count":      len(fs),
		"publishers_count": w.fanout.Size(),
		"poll_interval":    w.pollInterval.String(),
	})

	if err := w.runOnce(ctx, fs); err != nil {
		w.log.ErrorObj("initial poll failed", "error", err)
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.InfoObj("watcher loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := w.runOnce(ctx, fs); err != nil {
				w.log.ErrorObj("scheduled poll failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single pass over every feed. It may be called
// repeatedly, and before or after Run, until Close.
func (w *Watcher) RunOnce(ctx context.Context) error {
	if w == nil || w.service == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	return w.runOnce(ctx, w.feedReg.All())
}

func (w *Watcher) runOnce(ctx context.Context, fs []feeds.Feed) error {
	start := time.Now()
	w.log.InfoObj("poll started", "poll_meta", map[string]any{
		"feeds_count": len(fs),
		"started_at":  start.UTC(),
	})
	if err := w.service.Run(ctx, fs); err != nil {
		return err
	}
	w.log.InfoObj("poll completed", "poll_meta", map[string]any{
		"feeds_count": len(fs),
		"elapsed_ms":  time.Since(start).Milliseconds(),
	})
	return nil
}

// Close releases the store and publisher clients. Later calls return the
// first call's result.
func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		var errs []error
		if w.store != nil {
			if err := w.store.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close storage: %w", err))
			}
		}
		if err := w.fanout.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publishers: %w", err))
		}
		w.closeErr = errors.Join(errs...)
	})
	return w.closeErr
}
