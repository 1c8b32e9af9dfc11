// Package transfer plans native and token transfers and computes the largest
// native amount an account can send once gas is paid for.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/rs/zerolog"

	"github.com/ligun0805/crossapp-wallet/internal/chain"
	"github.com/ligun0805/crossapp-wallet/internal/config"
	"github.com/ligun0805/crossapp-wallet/internal/metrics"
	"github.com/ligun0805/crossapp-wallet/internal/wallet"
)

// Calculator computes fee-aware transfer amounts. It never caches fee data and
// never retries; every call reads balance, gas and fees afresh, in that order.
type Calculator struct {
	rpc       wallet.ChainReader
	marginPct uint64
	log       zerolog.Logger
}

type Option func(*Calculator)

// WithMargin sets the gas safety margin in percent of the estimate.
func WithMargin(pct uint64) Option {
	return func(c *Calculator) {
		if pct > 0 {
			c.marginPct = pct
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Calculator) { c.log = l }
}

func NewCalculator(rpc wallet.ChainReader, opts ...Option) *Calculator {
	c := &Calculator{rpc: rpc, marginPct: config.DefaultGasMarginPct, log: zerolog.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// MarginPct returns the configured margin.
func (c *Calculator) MarginPct() uint64 { return c.marginPct }

// ComputeMaxSendable returns balance - adjustedGas*(base+priority) for a
// transfer of the whole balance from sender to recipient. A non-positive
// result is wallet.ErrInsufficientFunds.
func (c *Calculator) ComputeMaxSendable(ctx context.Context, sender, recipient string) (*big.Int, error) {
	amount, _, _, err := c.maxSendable(ctx, sender, recipient)
	if err != nil {
		return nil, err
	}
	return amount, nil
}

func (c *Calculator) maxSendable(ctx context.Context, sender, recipient string) (*big.Int, wallet.FeeEstimate, wallet.FeeData, error) {
	amount, est, fees, err := c.computeMax(ctx, sender, recipient)
	metrics.RecordCalculation(outcome(err))
	if err != nil {
		c.log.Debug().Err(err).Str("sender", sender).Str("recipient", recipient).Msg("max sendable failed")
		return nil, wallet.FeeEstimate{}, wallet.FeeData{}, err
	}
	c.log.Debug().
		Str("sender", sender).
		Str("recipient", recipient).
		Uint64("gas", est.GasUnits).
		Uint64("marginPct", c.marginPct).
		Str("feePerGas", est.FeePerGas.String()).
		Str("amount", amount.String()).
		Msg("max sendable")
	return amount, est, fees, nil
}

func (c *Calculator) computeMax(ctx context.Context, sender, recipient string) (*big.Int, wallet.FeeEstimate, wallet.FeeData, error) {
	var est wallet.FeeEstimate
	if sender == "" || recipient == "" {
		return nil, est, wallet.FeeData{}, fmt.Errorf("%w: sender and recipient are required", wallet.ErrInvalidAddress)
	}

	balance, err := c.rpc.Balance(ctx, sender)
	if err != nil {
		return nil, est, wallet.FeeData{}, fmt.Errorf("%w: %w", wallet.ErrNetworkUnavailable, err)
	}

	gas, err := c.rpc.EstimateGas(ctx, wallet.TxSkeleton{From: sender, To: recipient, Value: balance})
	if err != nil {
		return nil, est, wallet.FeeData{}, fmt.Errorf("%w: %w", wallet.ErrGasEstimationFailed, err)
	}

	fees, err := c.feeData(ctx)
	if err != nil {
		return nil, est, wallet.FeeData{}, err
	}

	est = wallet.FeeEstimate{GasUnits: gas, FeePerGas: fees.Total()}
	gasCost := est.Cost(c.marginPct)
	amount := new(big.Int).Sub(balance, gasCost)
	if amount.Sign() <= 0 {
		return nil, est, fees, fmt.Errorf("%w: balance %s, gas cost %s", wallet.ErrInsufficientFunds, balance, gasCost)
	}
	return amount, est, fees, nil
}

func (c *Calculator) feeData(ctx context.Context) (wallet.FeeData, error) {
	fees, err := c.rpc.FeeData(ctx)
	if err != nil {
		if errors.Is(err, wallet.ErrFeeDataUnavailable) {
			return wallet.FeeData{}, err
		}
		return wallet.FeeData{}, fmt.Errorf("%w: %w", wallet.ErrFeeDataUnavailable, err)
	}
	if !fees.Complete() {
		return wallet.FeeData{}, fmt.Errorf("%w: base or priority fee missing", wallet.ErrFeeDataUnavailable)
	}
	return fees, nil
}

// PlanMax builds a native transfer of the max sendable amount. Its gas limit
// and fee cap are exactly the values used in the calculation, so the amount
// plus the most the transaction can pay for gas never exceeds the balance.
func (c *Calculator) PlanMax(ctx context.Context, sender, recipient string) (wallet.TransferPlan, error) {
	amount, est, fees, err := c.maxSendable(ctx, sender, recipient)
	if err != nil {
		return wallet.TransferPlan{}, err
	}
	return wallet.TransferPlan{
		From:      sender,
		Recipient: recipient,
		Amount:    amount,
		GasLimit:  est.AdjustedGas(c.marginPct).Uint64(),
		FeeCap:    est.FeePerGas,
		TipCap:    new(big.Int).Set(fees.Priority),
	}, nil
}

// PlanNative builds a native transfer of amount, checking the balance covers
// amount plus the margin-adjusted gas cost.
func (c *Calculator) PlanNative(ctx context.Context, sender, recipient string, amount *big.Int) (wallet.TransferPlan, error) {
	if err := checkAmount(amount); err != nil {
		return wallet.TransferPlan{}, err
	}
	if sender == "" || recipient == "" {
		return wallet.TransferPlan{}, fmt.Errorf("%w: sender and recipient are required", wallet.ErrInvalidAddress)
	}
	balance, err := c.rpc.Balance(ctx, sender)
	if err != nil {
		return wallet.TransferPlan{}, fmt.Errorf("%w: %w", wallet.ErrNetworkUnavailable, err)
	}
	gas, err := c.rpc.EstimateGas(ctx, wallet.TxSkeleton{From: sender, To: recipient, Value: amount})
	if err != nil {
		return wallet.TransferPlan{}, fmt.Errorf("%w: %w", wallet.ErrGasEstimationFailed, err)
	}
	fees, err := c.feeData(ctx)
	if err != nil {
		return wallet.TransferPlan{}, err
	}
	est := wallet.FeeEstimate{GasUnits: gas, FeePerGas: fees.Total()}
	need := new(big.Int).Add(amount, est.Cost(c.marginPct))
	if need.Cmp(balance) > 0 {
		return wallet.TransferPlan{}, fmt.Errorf("%w: need %s, have %s", wallet.ErrInsufficientFunds, need, balance)
	}
	return wallet.TransferPlan{
		From:      sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		GasLimit:  est.AdjustedGas(c.marginPct).Uint64(),
		FeeCap:    est.FeePerGas,
		TipCap:    new(big.Int).Set(fees.Priority),
	}, nil
}

// PlanToken builds an ERC-20 transfer of amount token base units. The token
// balance must cover amount and the native balance must cover gas.
func (c *Calculator) PlanToken(ctx context.Context, sender, token, recipient string, amount *big.Int) (wallet.TransferPlan, error) {
	if err := checkAmount(amount); err != nil {
		return wallet.TransferPlan{}, err
	}
	to, err := chain.ParseAddress(recipient)
	if err != nil {
		return wallet.TransferPlan{}, err
	}
	if sender == "" || token == "" {
		return wallet.TransferPlan{}, fmt.Errorf("%w: sender and token are required", wallet.ErrInvalidAddress)
	}

	tokenBal, err := c.rpc.TokenBalance(ctx, token, sender)
	if err != nil {
		return wallet.TransferPlan{}, fmt.Errorf("%w: %w", wallet.ErrNetworkUnavailable, err)
	}
	if amount.Cmp(tokenBal) > 0 {
		return wallet.TransferPlan{}, fmt.Errorf("%w: token balance %s < %s", wallet.ErrInsufficientFunds, tokenBal, amount)
	}
	native, err := c.rpc.Balance(ctx, sender)
	if err != nil {
		return wallet.TransferPlan{}, fmt.Errorf("%w: %w", wallet.ErrNetworkUnavailable, err)
	}
	data, err := chain.EncodeERC20Transfer(to, amount)
	if err != nil {
		return wallet.TransferPlan{}, err
	}
	gas, err := c.rpc.EstimateGas(ctx, wallet.TxSkeleton{From: sender, To: token, Value: new(big.Int), Data: data})
	if err != nil {
		return wallet.TransferPlan{}, fmt.Errorf("%w: %w", wallet.ErrGasEstimationFailed, err)
	}
	fees, err := c.feeData(ctx)
	if err != nil {
		return wallet.TransferPlan{}, err
	}
	est := wallet.FeeEstimate{GasUnits: gas, FeePerGas: fees.Total()}
	if cost := est.Cost(c.marginPct); cost.Cmp(native) > 0 {
		return wallet.TransferPlan{}, fmt.Errorf("%w: gas cost %s, native balance %s", wallet.ErrInsufficientFunds, cost, native)
	}
	return wallet.TransferPlan{
		From:      sender,
		Recipient: recipient,
		Amount:    new(big.Int).Set(amount),
		Token:     token,
		GasLimit:  est.AdjustedGas(c.marginPct).Uint64(),
		FeeCap:    est.FeePerGas,
		TipCap:    new(big.Int).Set(fees.Priority),
	}, nil
}

func checkAmount(amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("amount must be > 0")
	}
	return nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, wallet.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, wallet.ErrFeeDataUnavailable):
		return "fee_data_unavailable"
	case errors.Is(err, wallet.ErrGasEstimationFailed):
		return "gas_estimation_failed"
	case errors.Is(err, wallet.ErrNetworkUnavailable):
		return "network_unavailable"
	default:
		return "invalid"
	}
}
