package domain

// PoolCreatedEvent is one decoded pool-initialization log entry. Currency0
// and Currency1 are the two pool legs in on-chain order; HookPayload is the
// opaque hook data attached to the pool (empty when the pool has no hooks).
type PoolCreatedEvent struct {
	PoolID      string
	Currency0   string
	Currency1   string
	FeeTier     int
	HookPayload []byte
	BlockNumber uint64
}
