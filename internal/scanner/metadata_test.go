package scanner

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

type fakeReader struct {
	name      string
	symbol    string
	decimals  uint8
	nameErr   error
	symbolErr error
	decErr    error
}

func (f *fakeReader) TokenName(context.Context, string) (string, error) {
	return f.name, f.nameErr
}

func (f *fakeReader) TokenSymbol(context.Context, string) (string, error) {
	return f.symbol, f.symbolErr
}

func (f *fakeReader) TokenDecimals(context.Context, string) (uint8, error) {
	return f.decimals, f.decErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestMetadataResolver_AllFieldsReadable(t *testing.T) {
	r := NewMetadataResolver(&fakeReader{name: "Dragon Coin", symbol: "DRGN", decimals: 6}, testLogger())

	md, err := r.Resolve(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Dragon Coin", md.Name)
	assert.Equal(t, "DRGN", md.Symbol)
	assert.Equal(t, uint8(6), md.Decimals)
}

func TestMetadataResolver_PerFieldFallback(t *testing.T) {
	readErr := errors.New("execution reverted")

	r := NewMetadataResolver(&fakeReader{
		name:      "Dragon Coin",
		symbolErr: readErr,
		decErr:    readErr,
	}, testLogger())

	md, err := r.Resolve(context.Background(), "0xabc")
	require.NoError(t, err)

	// The readable field survives; only the failing fields fall back.
	assert.Equal(t, "Dragon Coin", md.Name)
	assert.Equal(t, "UNK", md.Symbol)
	assert.Equal(t, uint8(18), md.Decimals)
}

func TestMetadataResolver_AllFieldsFallback(t *testing.T) {
	readErr := errors.New("no contract code")

	r := NewMetadataResolver(&fakeReader{
		nameErr:   readErr,
		symbolErr: readErr,
		decErr:    readErr,
	}, testLogger())

	md, err := r.Resolve(context.Background(), "0xabc")
	require.NoError(t, err)
	assert.Equal(t, "Unknown Token", md.Name)
	assert.Equal(t, "UNK", md.Symbol)
	assert.Equal(t, uint8(18), md.Decimals)
}

func TestMetadataResolver_OverlongSymbolInvalid(t *testing.T) {
	r := NewMetadataResolver(&fakeReader{
		name:     "Spam Token",
		symbol:   strings.Repeat("X", domain.MaxSymbolLen+5),
		decimals: 18,
	}, testLogger())

	_, err := r.Resolve(context.Background(), "0xabc")
	assert.ErrorIs(t, err, domain.ErrMetadataInvalid)
}

func TestMetadataResolver_OverlongNameInvalid(t *testing.T) {
	r := NewMetadataResolver(&fakeReader{
		name:     strings.Repeat("A", domain.MaxNameLen+1),
		symbol:   "OK",
		decimals: 18,
	}, testLogger())

	_, err := r.Resolve(context.Background(), "0xabc")
	assert.ErrorIs(t, err, domain.ErrMetadataInvalid)
}

func TestMetadataResolver_ContextExpiredUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewMetadataResolver(&fakeReader{name: "Dragon Coin", symbol: "DRGN"}, testLogger())

	_, err := r.Resolve(ctx, "0xabc")
	assert.ErrorIs(t, err, domain.ErrMetadataUnavailable)
}
