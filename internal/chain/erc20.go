package chain

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const erc20JSON = `[
{"inputs":[{"internalType":"address","name":"recipient","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"internalType":"bool","name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"},
{"inputs":[{"internalType":"address","name":"account","type":"address"}],"name":"balanceOf","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"decimals","outputs":[{"internalType":"uint8","name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
{"inputs":[],"name":"symbol","outputs":[{"internalType":"string","name":"","type":"string"}],"stateMutability":"view","type":"function"}
]`

var erc20ABI abi.ABI

func init() {
	ab, err := abi.JSON(strings.NewReader(erc20JSON))
	if err != nil {
		panic(fmt.Sprintf("erc20 abi: %v", err))
	}
	erc20ABI = ab
}

// EncodeERC20Transfer returns calldata for transfer(to, amount).
func EncodeERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	data, err := erc20ABI.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("erc20 pack: %w", err)
	}
	return data, nil
}

// TokenBalance returns balanceOf(account) on the token contract.
func (c *Client) TokenBalance(ctx context.Context, token, account string) (*big.Int, error) {
	tokenAddr, err := ParseAddress(token)
	if err != nil {
		return nil, err
	}
	owner, err := ParseAddress(account)
	if err != nil {
		return nil, err
	}
	data, err := erc20ABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("erc20 pack: %w", err)
	}
	ret, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data})
	if err != nil {
		return nil, fmt.Errorf("balanceOf(%s) on %s: %w", owner.Hex(), tokenAddr.Hex(), err)
	}
	if len(ret) == 0 {
		return big.NewInt(0), nil
	}
	out, err := erc20ABI.Unpack("balanceOf", ret)
	if err != nil {
		return nil, fmt.Errorf("balanceOf unpack: %w", err)
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf: unexpected type %T", out[0])
	}
	return bal, nil
}

// TokenDecimals returns decimals(); tokens that return nothing default to 18.
func (c *Client) TokenDecimals(ctx context.Context, token string) (uint8, error) {
	tokenAddr, err := ParseAddress(token)
	if err != nil {
		return 0, err
	}
	data, _ := erc20ABI.Pack("decimals")
	ret, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data})
	if err != nil {
		return 0, fmt.Errorf("decimals() on %s: %w", tokenAddr.Hex(), err)
	}
	if len(ret) == 0 {
		return 18, nil
	}
	return ret[len(ret)-1], nil
}

// TokenSymbol returns symbol(), accepting both string and bytes32 encodings.
func (c *Client) TokenSymbol(ctx context.Context, token string) (string, error) {
	tokenAddr, err := ParseAddress(token)
	if err != nil {
		return "", err
	}
	data, _ := erc20ABI.Pack("symbol")
	ret, err := c.callWithRetry(ctx, ethereum.CallMsg{To: &tokenAddr, Data: data})
	if err != nil {
		return "", fmt.Errorf("symbol() on %s: %w", tokenAddr.Hex(), err)
	}
	if out, err := erc20ABI.Unpack("symbol", ret); err == nil {
		if s, ok := out[0].(string); ok {
			return s, nil
		}
	}
	return strings.TrimRight(string(ret), "\x00"), nil
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "Too Many Requests") || strings.Contains(s, "-32005")
}

// callWithRetry performs eth_call and backs off only when the provider
// throttles. Any other error is returned on the first attempt.
func (c *Client) callWithRetry(ctx context.Context, msg ethereum.CallMsg) ([]byte, error) {
	const maxAttempts = 3
	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		ret, err := c.backend.CallContract(ctx, msg, nil)
		if err == nil {
			return ret, nil
		}
		lastErr = err
		if !isRateLimitError(err) || attempt == maxAttempts {
			break
		}
		c.log.Debug().Err(err).Int("attempt", attempt).Dur("backoff", backoff).Msg("eth_call throttled")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
	}
	return nil, lastErr
}

// PreflightTokenTransfer simulates transfer(to, amount) from `from` with
// eth_call. It reports false with a reason when the token would revert or
// return false. Tokens that return no data fall back to eth_estimateGas.
func (c *Client) PreflightTokenTransfer(ctx context.Context, token, from, to string, amount *big.Int) (bool, string, error) {
	tokenAddr, err := ParseAddress(token)
	if err != nil {
		return false, "", err
	}
	fromAddr, err := ParseAddress(from)
	if err != nil {
		return false, "", err
	}
	toAddr, err := ParseAddress(to)
	if err != nil {
		return false, "", err
	}
	data, err := EncodeERC20Transfer(toAddr, amount)
	if err != nil {
		return false, "", err
	}
	msg := ethereum.CallMsg{From: fromAddr, To: &tokenAddr, Data: data, Value: new(big.Int)}

	ret, callErr := c.callWithRetry(ctx, msg)
	if callErr != nil {
		if ctx.Err() != nil {
			return false, "", ctx.Err()
		}
		return false, revertReason(callErr), nil
	}
	if len(ret) == 0 {
		if err := c.wait(ctx); err != nil {
			return false, "", err
		}
		if _, err := c.backend.EstimateGas(ctx, msg); err != nil {
			return false, "transfer would revert", nil
		}
		return true, "", nil
	}
	if ret[len(ret)-1] == 1 {
		return true, "", nil
	}
	return false, "transfer() returned false", nil
}

func revertReason(e error) string {
	s := e.Error()
	if i := strings.Index(s, "execution reverted"); i >= 0 {
		return s[i:]
	}
	return s
}
