package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/poolscout/internal/blob/s3"
	"github.com/alanyoungcy/poolscout/internal/scanner"
	"github.com/alanyoungcy/poolscout/internal/server"
	"github.com/alanyoungcy/poolscout/internal/server/handler"
	"github.com/alanyoungcy/poolscout/internal/server/ws"
)

// buildCoordinator assembles the scan pipeline from the wired dependencies.
func (a *App) buildCoordinator(deps *Dependencies) *scanner.Coordinator {
	resolver := scanner.NewMetadataResolver(deps.Chain, a.logger)

	processor := scanner.NewProcessor(
		scanner.ProcessorConfig{
			ReferenceBase:    a.cfg.Assets.Base,
			ReferenceQuote:   a.cfg.Assets.Quote,
			FreshnessHorizon: a.cfg.Scanner.FreshnessHorizon.Duration,
			SpikingThreshold: a.cfg.Scanner.SpikingThreshold,
		},
		deps.TokenStore,
		resolver,
		deps.Market,
		deps.SignalBus,
		deps.Notifier,
		a.logger,
	)

	return scanner.NewCoordinator(
		scanner.CoordinatorConfig{
			LookbackBlocks:   a.cfg.Chain.LookbackBlocks,
			FreshnessHorizon: a.cfg.Scanner.FreshnessHorizon.Duration,
			ExpiryHorizon:    a.cfg.Scanner.ExpiryHorizon.Duration,
			TopLimit:         a.cfg.Scanner.TopLimit,
			LockTTL:          a.cfg.Scanner.LockTTL.Duration,
		},
		deps.Chain,
		deps.TokenStore,
		deps.CursorStore,
		processor,
		deps.SummaryCache,
		deps.LockManager,
		deps.Archiver,
		a.logger,
	).WithNotifier(deps.Notifier)
}

// ServeMode runs the background scan loop together with the HTTP and
// WebSocket API.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode")

	g, ctx := errgroup.WithContext(ctx)

	coord := a.buildCoordinator(deps)
	trigger := make(chan struct{}, 1)

	// WebSocket hub bridging the signal bus to connected clients.
	hub := ws.NewHub(deps.SignalBus, a.logger, ws.Config{
		Mode:      a.cfg.Mode,
		StartedAt: time.Now().UTC(),
	})
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health: handler.NewHealthHandler(deps.PG, deps.Redis, a.logger),
		Tokens: handler.NewTokensHandler(
			coord,
			deps.TokenStore,
			a.cfg.Scanner.TopLimit,
			a.cfg.Scanner.FreshnessHorizon.Duration,
			a.logger,
		),
		Scan:     handler.NewScanHandler(trigger, a.logger),
		Archives: handler.NewArchivesHandler(deps.BlobLister, s3blob.ArchivePrefix, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(srv.Start)

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Background scan loop; manual triggers arrive on the trigger channel.
	g.Go(func() error {
		return coord.RunLoop(ctx, a.cfg.Scanner.Interval.Duration, trigger)
	})

	return g.Wait()
}

// ScanMode runs the scan loop without any API surface, for deployments
// where a separate serve instance fronts the same database.
func (a *App) ScanMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting scan mode",
		slog.Duration("interval", a.cfg.Scanner.Interval.Duration),
	)

	coord := a.buildCoordinator(deps)
	return coord.RunLoop(ctx, a.cfg.Scanner.Interval.Duration, nil)
}

// OnceMode runs a single scan cycle and exits. Intended for cron-style
// scheduling and smoke tests.
func (a *App) OnceMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting once mode")

	coord := a.buildCoordinator(deps)
	summary, err := coord.RunCycle(ctx)
	if err != nil {
		return err
	}

	a.logger.InfoContext(ctx, "scan cycle finished",
		slog.String("cycle_id", summary.CycleID),
		slog.String("blocks", summary.BlocksScanned),
		slog.Int("events", summary.TotalEvents),
		slog.Int("new_tokens", summary.NewTokensFound),
		slog.Int("visible_tokens", len(summary.Tokens)),
	)
	return nil
}
