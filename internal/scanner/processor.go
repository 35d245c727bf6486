package scanner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/poolscout/internal/domain"
	"github.com/alanyoungcy/poolscout/internal/notify"
)

// newTokenChannel is the signal-bus channel new token records are published
// on for WebSocket consumers.
const newTokenChannel = "tokens:new"

// ProcessorConfig holds the pipeline parameters the processor needs.
type ProcessorConfig struct {
	// ReferenceBase and ReferenceQuote identify the two reference assets a
	// candidate token must pair against.
	ReferenceBase  string
	ReferenceQuote string

	// FreshnessHorizon bounds which existing records the dedup check sees.
	FreshnessHorizon time.Duration

	// SpikingThreshold is the score at or above which a record is flagged
	// as spiking and an alert is sent.
	SpikingThreshold int
}

// Processor turns one raw pool-creation event into zero or one persisted
// token record. Every failure inside processing is converted to a "no new
// record" outcome with a logged diagnostic; nothing here aborts the
// enclosing scan cycle.
type Processor struct {
	cfg      ProcessorConfig
	store    domain.TokenStore
	resolver *MetadataResolver
	market   domain.MarketDataSource
	bus      domain.SignalBus // optional
	notifier *notify.Notifier // optional
	logger   *slog.Logger
	now      func() time.Time
}

// NewProcessor creates a Processor. bus and notifier may be nil, in which
// case new-token publishing and spike alerts are skipped.
func NewProcessor(
	cfg ProcessorConfig,
	store domain.TokenStore,
	resolver *MetadataResolver,
	market domain.MarketDataSource,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Processor {
	if cfg.SpikingThreshold <= 0 {
		cfg.SpikingThreshold = 25
	}
	return &Processor{
		cfg:      cfg,
		store:    store,
		resolver: resolver,
		market:   market,
		bus:      bus,
		notifier: notifier,
		logger:   logger.With(slog.String("component", "pool_processor")),
		now:      time.Now,
	}
}

// Process handles one pool-creation event. It reports true only when a new
// token record was written to the store.
func (p *Processor) Process(ctx context.Context, ev domain.PoolCreatedEvent) bool {
	candidate, ok := p.candidateLeg(ev)
	if !ok {
		// Neither leg (or both legs) is a reference asset: not a new
		// token listing against our reference pair.
		return false
	}

	// Dedup check. This is an optimization only; the store's uniqueness
	// constraint on the normalized address is the real guarantee, so a
	// concurrent insert slipping past this check is still safe.
	exists, err := p.store.Exists(ctx, candidate, p.cfg.FreshnessHorizon)
	if err != nil {
		p.logger.Warn("dedup check failed, discarding event",
			slog.String("pool", ev.PoolID),
			slog.String("address", candidate),
			slog.String("error", err.Error()),
		)
		return false
	}
	if exists {
		return false
	}

	md, err := p.resolver.Resolve(ctx, candidate)
	if err != nil {
		// MetadataInvalid/MetadataUnavailable are normal "nothing to
		// record" outcomes, not cycle errors.
		p.logger.Debug("metadata resolution failed, discarding event",
			slog.String("pool", ev.PoolID),
			slog.String("address", candidate),
			slog.String("error", err.Error()),
		)
		return false
	}

	tokenType := Classify(ev.FeeTier, ev.HookPayload)

	snap, err := p.market.Snapshot(ctx, candidate)
	if err != nil {
		p.logger.Warn("market snapshot failed, discarding event",
			slog.String("address", candidate),
			slog.String("error", err.Error()),
		)
		return false
	}

	score := Score(ScoreInput{
		AgeMinutes:     0,
		LiquidityUSD:   snap.LiquidityUSD,
		PriceChangePct: snap.PriceChangePct,
	})

	now := p.now().UTC()
	rec := domain.TokenRecord{
		Address:        domain.NormalizeAddress(candidate),
		Symbol:         md.Symbol,
		Name:           md.Name,
		PoolID:         ev.PoolID,
		Score:          score,
		LiquidityUSD:   snap.LiquidityUSD,
		Price:          snap.Price,
		PriceChangePct: snap.PriceChangePct,
		MarketCap:      snap.MarketCap,
		Volume24h:      snap.Volume24h,
		AgeMinutes:     0,
		IsSpiking:      score >= p.cfg.SpikingThreshold,
		TokenType:      tokenType,
		DetectedAt:     now,
		LastUpdated:    now,
	}

	stored, err := p.store.Upsert(ctx, rec)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			// Lost a check-then-insert race with another scan; the
			// existing record wins.
			return false
		}
		p.logger.Warn("token upsert failed",
			slog.String("address", rec.Address),
			slog.String("error", err.Error()),
		)
		return false
	}

	// If the store kept an earlier DetectedAt, the record pre-existed and
	// this write was an update, not a discovery.
	if !stored.DetectedAt.Equal(rec.DetectedAt) {
		return false
	}

	p.logger.Info("new token recorded",
		slog.String("address", stored.Address),
		slog.String("symbol", stored.Symbol),
		slog.String("type", string(stored.TokenType)),
		slog.Int("score", stored.Score),
	)

	p.publish(ctx, stored)
	if stored.IsSpiking {
		p.alertSpiking(ctx, stored)
	}

	return true
}

// candidateLeg returns the non-reference leg of the pool, if exactly one leg
// matches a configured reference asset.
func (p *Processor) candidateLeg(ev domain.PoolCreatedEvent) (string, bool) {
	ref0 := p.isReference(ev.Currency0)
	ref1 := p.isReference(ev.Currency1)
	switch {
	case ref0 && !ref1:
		return ev.Currency1, true
	case ref1 && !ref0:
		return ev.Currency0, true
	default:
		return "", false
	}
}

func (p *Processor) isReference(addr string) bool {
	return domain.SameAddress(addr, p.cfg.ReferenceBase) ||
		domain.SameAddress(addr, p.cfg.ReferenceQuote)
}

// publish pushes the new record onto the signal bus for WS consumers.
func (p *Processor) publish(ctx context.Context, rec domain.TokenRecord) {
	if p.bus == nil {
		return
	}
	payload, err := json.Marshal(map[string]any{
		"type":    "new_token",
		"payload": rec,
	})
	if err != nil {
		return
	}
	if err := p.bus.Publish(ctx, newTokenChannel, payload); err != nil {
		p.logger.Warn("publish new token failed",
			slog.String("address", rec.Address),
			slog.String("error", err.Error()),
		)
	}
}

// alertSpiking notifies operators about a token that scored at or above the
// spiking threshold on discovery.
func (p *Processor) alertSpiking(ctx context.Context, rec domain.TokenRecord) {
	if p.notifier == nil {
		return
	}
	title := fmt.Sprintf("Spiking token: %s", rec.Symbol)
	msg := fmt.Sprintf("%s (%s) scored %d/30 on discovery\nliquidity $%.0f, momentum %.1f%%\n%s",
		rec.Name, rec.TokenType, rec.Score, rec.LiquidityUSD, rec.PriceChangePct, rec.Address)
	if err := p.notifier.Notify(ctx, notify.EventTokenSpiking, title, msg); err != nil {
		p.logger.Warn("spike alert failed",
			slog.String("address", rec.Address),
			slog.String("error", err.Error()),
		)
	}
}
