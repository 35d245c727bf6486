package domain

import "context"

// MetadataReader reads ERC-20 display metadata for a token contract. Each
// method is an independent fallible read; callers decide how to combine
// partial failures.
type MetadataReader interface {
	TokenName(ctx context.Context, address string) (string, error)
	TokenSymbol(ctx context.Context, address string) (string, error)
	TokenDecimals(ctx context.Context, address string) (uint8, error)
}

// ChainReader is the chain-read capability consumed by the scan pipeline.
type ChainReader interface {
	MetadataReader

	// HeadBlock returns the current chain head block number.
	HeadBlock(ctx context.Context) (uint64, error)

	// PoolCreatedEvents returns all pool-initialization events emitted in
	// the inclusive block range [from, to], in log order.
	PoolCreatedEvents(ctx context.Context, from, to uint64) ([]PoolCreatedEvent, error)
}
