package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// FeeData reads the latest base fee and the node's suggested priority fee.
// Either part missing is wallet.ErrFeeDataUnavailable.
func (c *Client) FeeData(ctx context.Context) (wallet.FeeData, error) {
	base, err := c.latestBaseFee(ctx)
	if err != nil {
		return wallet.FeeData{}, fmt.Errorf("%w: %w", wallet.ErrFeeDataUnavailable, err)
	}
	if err := c.wait(ctx); err != nil {
		return wallet.FeeData{}, err
	}
	tip, err := c.backend.SuggestGasTipCap(ctx)
	if err != nil {
		return wallet.FeeData{}, fmt.Errorf("%w: priority fee: %w", wallet.ErrFeeDataUnavailable, err)
	}
	if tip == nil {
		return wallet.FeeData{}, fmt.Errorf("%w: no priority fee", wallet.ErrFeeDataUnavailable)
	}
	c.log.Debug().Str("baseFee", base.String()).Str("tip", tip.String()).Msg("fee data")
	return wallet.FeeData{Base: base, Priority: new(big.Int).Set(tip)}, nil
}

func (c *Client) latestBaseFee(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	h, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, err
	}
	if h == nil || h.BaseFee == nil {
		return nil, errors.New("no baseFee (pre-1559?)")
	}
	return new(big.Int).Set(h.BaseFee), nil
}
