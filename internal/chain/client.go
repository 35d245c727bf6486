// Package chain implements the domain chain-read capability over an EVM
// JSON-RPC endpoint using go-ethereum.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/poolscout/internal/domain"
)

// initializeEventSig is the pool-initialization event emitted by the
// Uniswap v4 PoolManager singleton.
const initializeEventSig = "Initialize(bytes32,address,address,uint24,int24,address,uint160,int24)"

// initializeABIJSON describes the non-indexed portion of the Initialize
// event for data decoding.
const initializeABIJSON = `[{
	"anonymous": false,
	"inputs": [
		{"indexed": true,  "name": "id",           "type": "bytes32"},
		{"indexed": true,  "name": "currency0",    "type": "address"},
		{"indexed": true,  "name": "currency1",    "type": "address"},
		{"indexed": false, "name": "fee",          "type": "uint24"},
		{"indexed": false, "name": "tickSpacing",  "type": "int24"},
		{"indexed": false, "name": "hooks",        "type": "address"},
		{"indexed": false, "name": "sqrtPriceX96", "type": "uint160"},
		{"indexed": false, "name": "tick",         "type": "int24"}
	],
	"name": "Initialize",
	"type": "event"
}]`

// erc20ABIJSON covers the three metadata reads issued by the resolver.
const erc20ABIJSON = `[
	{"constant": true, "inputs": [], "name": "name",     "outputs": [{"name": "", "type": "string"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "symbol",   "outputs": [{"name": "", "type": "string"}], "type": "function"},
	{"constant": true, "inputs": [], "name": "decimals", "outputs": [{"name": "", "type": "uint8"}],  "type": "function"}
]`

// Config holds connection parameters for the chain client.
type Config struct {
	RPCURL      string
	PoolManager string
	CallTimeout time.Duration
}

// Client wraps an ethclient.Client and provides typed reads for the scan
// pipeline. All calls are bounded by the configured per-call timeout.
type Client struct {
	eth             *ethclient.Client
	poolManager     common.Address
	initializeTopic common.Hash
	poolABI         abi.ABI
	erc20ABI        abi.ABI
	callTimeout     time.Duration
	logger          *slog.Logger
}

// Dial connects to the RPC endpoint and returns a ready Client.
func Dial(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if !common.IsHexAddress(cfg.PoolManager) {
		return nil, fmt.Errorf("chain: invalid pool manager address %q", cfg.PoolManager)
	}

	eth, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", cfg.RPCURL, err)
	}

	poolABI, err := abi.JSON(strings.NewReader(initializeABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse pool ABI: %w", err)
	}
	erc20, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return nil, fmt.Errorf("chain: parse erc20 ABI: %w", err)
	}

	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		eth:             eth,
		poolManager:     common.HexToAddress(cfg.PoolManager),
		initializeTopic: crypto.Keccak256Hash([]byte(initializeEventSig)),
		poolABI:         poolABI,
		erc20ABI:        erc20,
		callTimeout:     timeout,
		logger:          logger.With(slog.String("component", "chain")),
	}, nil
}

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// HeadBlock returns the current chain head block number.
func (c *Client) HeadBlock(ctx context.Context) (uint64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	head, err := c.eth.BlockNumber(ctx)
	if err != nil {
		return 0, fmt.Errorf("chain: head block: %w", err)
	}
	return head, nil
}

// PoolCreatedEvents filters the PoolManager's Initialize logs in the
// inclusive range [from, to] and decodes them into domain events. Removed
// (reorged) logs are skipped.
func (c *Client) PoolCreatedEvents(ctx context.Context, from, to uint64) ([]domain.PoolCreatedEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(from),
		ToBlock:   new(big.Int).SetUint64(to),
		Addresses: []common.Address{c.poolManager},
		Topics:    [][]common.Hash{{c.initializeTopic}},
	}

	logs, err := c.eth.FilterLogs(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("chain: filter logs [%d,%d]: %w", from, to, err)
	}

	events := make([]domain.PoolCreatedEvent, 0, len(logs))
	for _, lg := range logs {
		if lg.Removed {
			continue
		}
		ev, err := c.decodeInitialize(lg)
		if err != nil {
			c.logger.Warn("skipping undecodable log",
				slog.String("tx", lg.TxHash.Hex()),
				slog.Uint64("block", lg.BlockNumber),
				slog.String("error", err.Error()),
			)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// decodeInitialize converts one raw Initialize log to a domain event.
func (c *Client) decodeInitialize(lg types.Log) (domain.PoolCreatedEvent, error) {
	if len(lg.Topics) < 4 {
		return domain.PoolCreatedEvent{}, fmt.Errorf("expected 4 topics, got %d", len(lg.Topics))
	}

	var data struct {
		Fee          *big.Int
		TickSpacing  *big.Int
		Hooks        common.Address
		SqrtPriceX96 *big.Int
		Tick         *big.Int
	}
	if err := c.poolABI.UnpackIntoInterface(&data, "Initialize", lg.Data); err != nil {
		return domain.PoolCreatedEvent{}, fmt.Errorf("unpack data: %w", err)
	}

	// The hooks address doubles as the hook payload: the zero address
	// means the pool carries no extension logic.
	var hookPayload []byte
	if data.Hooks != (common.Address{}) {
		hookPayload = data.Hooks.Bytes()
	}

	return domain.PoolCreatedEvent{
		PoolID:      lg.Topics[1].Hex(),
		Currency0:   common.BytesToAddress(lg.Topics[2].Bytes()).Hex(),
		Currency1:   common.BytesToAddress(lg.Topics[3].Bytes()).Hex(),
		FeeTier:     int(data.Fee.Int64()),
		HookPayload: hookPayload,
		BlockNumber: lg.BlockNumber,
	}, nil
}

// TokenName reads the ERC-20 name field.
func (c *Client) TokenName(ctx context.Context, address string) (string, error) {
	var name string
	if err := c.callString(ctx, address, "name", &name); err != nil {
		return "", err
	}
	return name, nil
}

// TokenSymbol reads the ERC-20 symbol field.
func (c *Client) TokenSymbol(ctx context.Context, address string) (string, error) {
	var symbol string
	if err := c.callString(ctx, address, "symbol", &symbol); err != nil {
		return "", err
	}
	return symbol, nil
}

// TokenDecimals reads the ERC-20 decimals field.
func (c *Client) TokenDecimals(ctx context.Context, address string) (uint8, error) {
	out, err := c.call(ctx, address, "decimals")
	if err != nil {
		return 0, err
	}
	dec, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("chain: decimals(%s): unexpected type %T", address, out[0])
	}
	return dec, nil
}

// callString performs an eth_call returning a single string output.
func (c *Client) callString(ctx context.Context, address, method string, dst *string) error {
	out, err := c.call(ctx, address, method)
	if err != nil {
		return err
	}
	s, ok := out[0].(string)
	if !ok {
		return fmt.Errorf("chain: %s(%s): unexpected type %T", method, address, out[0])
	}
	*dst = s
	return nil
}

// call packs and executes a zero-argument eth_call against the given
// contract and unpacks the outputs.
func (c *Client) call(ctx context.Context, address, method string) ([]any, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("chain: invalid token address %q", address)
	}

	ctx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	input, err := c.erc20ABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	to := common.HexToAddress(address)
	raw, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s(%s): %w", method, address, err)
	}

	out, err := c.erc20ABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s(%s): %w", method, address, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("chain: %s(%s): empty result", method, address)
	}
	return out, nil
}

// Compile-time interface check.
var _ domain.ChainReader = (*Client)(nil)
