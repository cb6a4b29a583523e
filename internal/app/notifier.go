package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samvad-hq/openoverheid/internal/checker"
	"github.com/samvad-hq/openoverheid/internal/config"
	"github.com/samvad-hq/openoverheid/internal/logger"
	"github.com/samvad-hq/openoverheid/internal/storage"
	"github.com/samvad-hq/openoverheid/pkg/publishers"
	"github.com/samvad-hq/openoverheid/pkg/rdw"
)

// Notifier represents the reminder runtime. It manages the check loop,
// coordinating between the watchlist store, the RDW client, the checker
// service, and publishers.
type Notifier struct {
	cfg           *config.Config
	api           *rdw.API
	fanout        *publishers.Fanout
	store         storage.Store
	checkService  *checker.Service
	checkInterval time.Duration
	seed          []string
	log           logger.Logger
}

// NewAPI builds the RDW API tree configured from cfg.
func NewAPI(cfg *config.Config, log logger.Logger) *rdw.API {
	return rdw.NewAPI(
		rdw.WithBaseURL(cfg.RDWBaseURL),
		rdw.WithTimeout(cfg.HTTPTimeout),
		rdw.WithLogger(log),
	)
}

// OpenStore opens the configured watchlist store.
func OpenStore(cfg *config.Config) (storage.Store, error) {
	store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
		ReminderTTL:     cfg.ReminderTTL,
		CleanupInterval: cfg.StorageCleanupInterval,
	})
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}
	return store, nil
}

// NewNotifier builds a notifier runtime from config files.
func NewNotifier(ctx context.Context, cfg *config.Config, log logger.Logger) (*Notifier, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var seed []string
	if cfg.WatchlistFile != "" {
		plates, err := LoadWatchlist(cfg.WatchlistFile)
		if err != nil {
			return nil, fmt.Errorf("load watchlist: %w", err)
		}
		seed = plates
		log.InfoObj("watchlist seed loaded", "watchlist_meta", map[string]any{
			"path":  cfg.WatchlistFile,
			"count": len(seed),
		})
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := OpenStore(cfg)
	if err != nil {
		fanout.Close()
		return nil, err
	}
	log.InfoObj("storage initialized", "storage_config", map[string]any{
		"type":                     cfg.StorageType,
		"path":                     cfg.BBoltPath,
		"reminder_ttl_seconds":     int(cfg.ReminderTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
	})

	api := NewAPI(cfg, log)

	var pub checker.EventPublisher
	if fanout.Size() > 0 {
		pub = fanout
	}
	checkService := checker.NewService(api.Vehicles.Inspections, pub, log, store, store, cfg.ReminderWindowDays)

	return &Notifier{
		cfg:           cfg,
		api:           api,
		fanout:        fanout,
		store:         store,
		checkService:  checkService,
		checkInterval: cfg.CheckInterval,
		seed:          seed,
		log:           log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		log.WarnObj("no publishers file configured; reminders are only logged", "publishers_file", "")
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}

	enabled := publisherReg.Enabled()
	if len(enabled) == 0 {
		log.WarnObj("no publishers enabled; reminders are only logged", "publishers_file", cfg.PublishersFile)
		return publishers.NewFanout(nil), nil
	}

	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Run starts the check loop until the context is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	if n == nil || n.checkService == nil {
		return fmt.Errorf("notifier is not initialized")
	}

	n.log.InfoObj("notifier loop starting", "notifier_state", map[string]any{
		"publishers_count":     n.fanout.Size(),
		"check_interval":       n.checkInterval.String(),
		"reminder_window_days": n.cfg.ReminderWindowDays,
	})

	if err := n.RunOnce(ctx); err != nil {
		n.log.ErrorObj("initial check failed", "error", err)
	}

	ticker := time.NewTicker(n.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.log.InfoObj("notifier loop exiting", "reason", ctx.Err())
			return nil
		case <-ticker.C:
			if err := n.RunOnce(ctx); err != nil {
				n.log.ErrorObj("scheduled check failed", "error", err)
			}
		}
	}
}

// RunOnce performs a single check across all watched plates.
func (n *Notifier) RunOnce(ctx context.Context) error {
	if n == nil || n.checkService == nil {
		return fmt.Errorf("notifier is not initialized")
	}

	plates, err := n.plates()
	if err != nil {
		return err
	}
	if len(plates) == 0 {
		n.log.WarnObj("watchlist is empty; nothing to check", "watchlist_file", n.cfg.WatchlistFile)
		return nil
	}

	start := time.Now()
	n.log.InfoObj("check started", "check_meta", map[string]any{
		"plates_count": len(plates),
		"started_at":   start.UTC(),
	})
	if err := n.checkService.Run(ctx, plates); err != nil {
		return err
	}
	n.log.InfoObj("check completed", "check_meta", map[string]any{
		"plates_count": len(plates),
		"elapsed_ms":   time.Since(start).Milliseconds(),
	})
	return nil
}

func (n *Notifier) plates() ([]string, error) {
	stored, err := n.store.Plates()
	if err != nil {
		return nil, fmt.Errorf("list watched plates: %w", err)
	}
	return mergePlates(n.seed, stored), nil
}

// Close releases the store, the publishers, and the RDW client.
func (n *Notifier) Close() error {
	if n == nil {
		return nil
	}
	var errs []error
	if n.store != nil {
		if err := n.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if err := n.fanout.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publishers: %w", err))
	}
	if n.api != nil {
		if err := n.api.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rdw api: %w", err))
		}
	}
	return errors.Join(errs...)
}
