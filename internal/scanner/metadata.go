package scanner

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// Defaults substituted when a single metadata field cannot be read. One
// unreadable field must not fail the whole resolution.
const (
	fallbackName     = "Unknown Token"
	fallbackSymbol   = "UNK"
	fallbackDecimals = uint8(18)
)

// Metadata is the resolved display metadata for a token.
type Metadata struct {
	Name     string
	Symbol   string
	Decimals uint8
}

// MetadataResolver fetches and validates token metadata via the chain-read
// capability.
type MetadataResolver struct {
	reader domain.MetadataReader
	logger *slog.Logger
}

// NewMetadataResolver creates a resolver over the given reader.
func NewMetadataResolver(reader domain.MetadataReader, logger *slog.Logger) *MetadataResolver {
	return &MetadataResolver{
		reader: reader,
		logger: logger.With(slog.String("component", "metadata_resolver")),
	}
}

// Resolve issues the three field reads concurrently. Each read individually
// falls back to a default on failure. After gathering, the symbol and name
// lengths are validated; violations yield domain.ErrMetadataInvalid. If the
// read capability itself failed (context expired before the reads could
// run), the result is domain.ErrMetadataUnavailable.
func (r *MetadataResolver) Resolve(ctx context.Context, address string) (Metadata, error) {
	md := Metadata{
		Name:     fallbackName,
		Symbol:   fallbackSymbol,
		Decimals: fallbackDecimals,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if name, err := r.reader.TokenName(gctx, address); err == nil {
			md.Name = name
		} else {
			r.logger.Debug("name read failed, using fallback",
				slog.String("address", address),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	g.Go(func() error {
		if symbol, err := r.reader.TokenSymbol(gctx, address); err == nil {
			md.Symbol = symbol
		} else {
			r.logger.Debug("symbol read failed, using fallback",
				slog.String("address", address),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	g.Go(func() error {
		if dec, err := r.reader.TokenDecimals(gctx, address); err == nil {
			md.Decimals = dec
		} else {
			r.logger.Debug("decimals read failed, using fallback",
				slog.String("address", address),
				slog.String("error", err.Error()),
			)
		}
		return nil
	})
	_ = g.Wait() // individual failures already handled per field

	if err := ctx.Err(); err != nil {
		return Metadata{}, domain.ErrMetadataUnavailable
	}

	if len(md.Symbol) > domain.MaxSymbolLen || len(md.Name) > domain.MaxNameLen {
		return Metadata{}, domain.ErrMetadataInvalid
	}

	return md, nil
}
