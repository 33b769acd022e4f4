package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/DJCodeOne/freshwax-sub008/internal/app"
	"github.com/DJCodeOne/freshwax-sub008/internal/cache"
	"github.com/DJCodeOne/freshwax-sub008/internal/config"
	"github.com/DJCodeOne/freshwax-sub008/internal/metrics"
	"github.com/DJCodeOne/freshwax-sub008/internal/notify"
	"github.com/DJCodeOne/freshwax-sub008/internal/probe"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository"
	"github.com/DJCodeOne/freshwax-sub008/internal/repository/memory"
	"github.com/DJCodeOne/freshwax-sub008/internal/service"
	"github.com/DJCodeOne/freshwax-sub008/internal/streamkey"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type stores struct {
	slots     service.SlotStore
	usage     service.UsageStore
	djs       service.DJStore
	takeovers service.TakeoverStore
}

// stack is everything serve and sweep share.
type stack struct {
	pool      *pgxpool.Pool
	stores    stores
	cache     cache.LiveCache
	closers   []func()
	hub       *notify.Hub
	metrics   *metrics.Metrics
	keys      *streamkey.Generator
	slots     *service.SlotService
	takeovers *service.TakeoverService
	sweeper   *service.Sweeper
	djs       *service.DJService
}

func openStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (stores, *pgxpool.Pool, error) {
	if cfg.DBDSN == "" {
		if cfg.IsProduction() {
			return stores{}, nil, cfg.RequireDB()
		}
		logger.Warn("DB_DSN not set, using in-memory stores")
		usage := memory.NewUsageRepository()
		return stores{
			slots:     memory.NewSlotRepository(usage),
			usage:     usage,
			djs:       memory.NewDJRepository(),
			takeovers: memory.NewTakeoverRepository(),
		}, nil, nil
	}

	pool, err := app.NewPool(ctx, cfg.DBDSN, logger)
	if err != nil {
		return stores{}, nil, err
	}
	return stores{
		slots:     repository.NewSlotRepository(pool),
		usage:     repository.NewUsageRepository(pool),
		djs:       repository.NewDJRepository(pool),
		takeovers: repository.NewTakeoverRepository(pool),
	}, pool, nil
}

// buildStack wires stores and services. notifiers are added to the websocket
// hub, which is always present.
func buildStack(ctx context.Context, cfg *config.Config, logger *zap.Logger, extra ...func(djs service.DJStore) notify.Notifier) (*stack, error) {
	st, pool, err := openStores(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	s := &stack{
		pool:    pool,
		stores:  st,
		cache:   cache.Nop{},
		hub:     notify.NewHub(logger),
		metrics: metrics.New(),
	}
	if pool != nil {
		s.closers = append(s.closers, pool.Close)
	}

	if cfg.RedisAddr != "" {
		client, err := cache.NewClient(ctx, cfg.RedisAddr)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		s.cache = cache.NewLiveCache(client)
		s.closers = append(s.closers, func() { _ = client.Close() })
		logger.Info("Live slot cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	s.keys, err = streamkey.NewGenerator(cfg.StreamKeySecret)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("stream key generator: %w", err)
	}

	notifier := notify.Multi{s.hub}
	for _, build := range extra {
		notifier = append(notifier, build(st.djs))
	}

	s.slots = service.NewSlotService(service.SlotDeps{
		Slots:     st.slots,
		Usage:     st.usage,
		DJs:       st.djs,
		Cache:     s.cache,
		Notifier:  notifier,
		Prober:    probe.NewHLSProber(cfg.HLSBaseURL),
		Keys:      s.keys,
		Metrics:   s.metrics,
		Location:  cfg.Location(),
		ServerURL: cfg.RTMPServerURL,
	}, cfg.Settings, logger.Named("slots"))
	s.takeovers = service.NewTakeoverService(st.takeovers, s.slots, notifier, s.metrics, cfg.Settings, logger.Named("takeover"))
	s.sweeper = service.NewSweeper(s.slots, s.takeovers, logger.Named("sweep"))
	s.djs = service.NewDJService(st.djs, logger.Named("djs"))

	return s, nil
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
