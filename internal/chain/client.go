package chain

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// Backend is the subset of the go-ethereum client API the wallet needs.
// Both *ethclient.Client and the simulated backend's client satisfy it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	FeeHistory(ctx context.Context, blockCount uint64, lastBlock *big.Int, rewardPercentiles []float64) (*ethereum.FeeHistory, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// Options tune the client. Zero values pick the defaults.
type Options struct {
	RateLimit float64       // requests per second, default 10
	Timeout   time.Duration // HTTP timeout for Dial, default 30s
	ChainID   *big.Int      // nil means ask the node once
	Logger    *zerolog.Logger
}

// Client implements wallet.ChainReader and wallet.Submitter on top of an
// Ethereum JSON-RPC endpoint.
type Client struct {
	backend Backend
	limiter *rate.Limiter
	log     zerolog.Logger
	close   func()

	mu      sync.Mutex
	chainID *big.Int
}

var (
	_ wallet.ChainReader = (*Client)(nil)
	_ wallet.Submitter   = (*Client)(nil)
)

// Dial connects to rpcURL with keep-alives and a bounded HTTP timeout.
func Dial(rpcURL string, opts Options) (*Client, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:    100,
		IdleConnTimeout: 90 * time.Second,
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
	rpcClient, err := rpc.DialHTTPWithClient(rpcURL, httpClient)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}
	ec := ethclient.NewClient(rpcClient)
	c := NewClient(ec, opts)
	c.close = ec.Close
	return c, nil
}

// NewClient wraps an existing backend.
func NewClient(b Backend, opts Options) *Client {
	limit := opts.RateLimit
	if limit <= 0 {
		limit = 10
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	var chainID *big.Int
	if opts.ChainID != nil {
		chainID = new(big.Int).Set(opts.ChainID)
	}
	return &Client{
		backend: b,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
		log:     log,
		chainID: chainID,
	}
}

// Close releases the underlying connection when the client owns it.
func (c *Client) Close() {
	if c.close != nil {
		c.close()
	}
}

func (c *Client) wait(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}
	return nil
}

// ChainID returns the configured chain ID or asks the node once.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	cached := c.chainID
	c.mu.Unlock()
	if cached != nil {
		return new(big.Int).Set(cached), nil
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	id, err := c.backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}
	c.mu.Lock()
	c.chainID = new(big.Int).Set(id)
	c.mu.Unlock()
	return id, nil
}

// Balance returns the latest native balance of account in wei.
func (c *Client) Balance(ctx context.Context, account string) (*big.Int, error) {
	addr, err := ParseAddress(account)
	if err != nil {
		return nil, err
	}
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	bal, err := c.backend.BalanceAt(ctx, addr, nil)
	if err != nil {
		c.log.Debug().Err(err).Str("account", addr.Hex()).Msg("eth_getBalance failed")
		return nil, fmt.Errorf("balance of %s: %w", addr.Hex(), err)
	}
	return bal, nil
}

// EstimateGas runs eth_estimateGas for the skeleton.
func (c *Client) EstimateGas(ctx context.Context, tx wallet.TxSkeleton) (uint64, error) {
	from, err := ParseAddress(tx.From)
	if err != nil {
		return 0, err
	}
	to, err := ParseAddress(tx.To)
	if err != nil {
		return 0, err
	}
	msg := ethereum.CallMsg{From: from, To: &to, Data: tx.Data}
	if tx.Value != nil {
		msg.Value = new(big.Int).Set(tx.Value)
	}
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	gas, err := c.backend.EstimateGas(ctx, msg)
	if err != nil {
		c.log.Debug().Err(err).Str("from", from.Hex()).Str("to", to.Hex()).Msg("eth_estimateGas failed")
		return 0, fmt.Errorf("estimate gas: %w", err)
	}
	return gas, nil
}

// ParseAddress accepts a 0x-prefixed or bare 20-byte hex address.
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("%w: %q", wallet.ErrInvalidAddress, s)
	}
	return common.HexToAddress(s), nil
}
