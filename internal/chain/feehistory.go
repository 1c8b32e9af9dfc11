package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// RewardStats aggregates the priority fees paid at one percentile over the
// sampled blocks.
type RewardStats struct {
	Percentile int
	Min        *big.Int
	Avg        *big.Int
	Max        *big.Int
}

// FeeHistory is a summary of recent fee conditions.
type FeeHistory struct {
	Blocks      int
	NextBaseFee *big.Int // base fee of the pending block
	Rewards     []RewardStats
}

// FeeHistoryStats reads eth_feeHistory for the last blocks and returns
// min/avg/max rewards for each percentile.
func (c *Client) FeeHistoryStats(ctx context.Context, blocks int, percentiles []int) (FeeHistory, error) {
	if blocks <= 0 {
		blocks = 20
	}
	if len(percentiles) == 0 {
		percentiles = []int{50, 95, 99}
	}
	pcts := make([]float64, len(percentiles))
	for i, p := range percentiles {
		if p <= 0 || p > 100 {
			return FeeHistory{}, fmt.Errorf("percentile %d out of range", p)
		}
		pcts[i] = float64(p)
	}

	if err := c.wait(ctx); err != nil {
		return FeeHistory{}, err
	}
	fh, err := c.backend.FeeHistory(ctx, uint64(blocks), nil, pcts)
	if err != nil {
		return FeeHistory{}, fmt.Errorf("feeHistory: %w", err)
	}
	if len(fh.Reward) == 0 {
		return FeeHistory{}, errors.New("feeHistory: empty reward")
	}

	out := FeeHistory{Blocks: len(fh.Reward), Rewards: make([]RewardStats, len(percentiles))}
	if n := len(fh.BaseFee); n > 0 && fh.BaseFee[n-1] != nil {
		out.NextBaseFee = new(big.Int).Set(fh.BaseFee[n-1])
	}
	for j, p := range percentiles {
		st := RewardStats{Percentile: p, Avg: new(big.Int), Max: new(big.Int)}
		seen := 0
		for _, row := range fh.Reward {
			if j >= len(row) || row[j] == nil {
				continue
			}
			v := row[j]
			if st.Min == nil || v.Cmp(st.Min) < 0 {
				st.Min = new(big.Int).Set(v)
			}
			if v.Cmp(st.Max) > 0 {
				st.Max.Set(v)
			}
			st.Avg.Add(st.Avg, v)
			seen++
		}
		if seen > 0 {
			st.Avg.Quo(st.Avg, big.NewInt(int64(seen)))
		}
		if st.Min == nil {
			st.Min = new(big.Int)
		}
		out.Rewards[j] = st
	}
	return out, nil
}
