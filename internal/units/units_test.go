package units

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBig(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	require.True(t, ok)
	return v
}

func TestFormatEther(t *testing.T) {
	assert.Equal(t, "0", FormatEther(nil))
	assert.Equal(t, "1.500000", FormatEther(mustBig(t, "1500000000000000000")))
	assert.Equal(t, "0.000001", FormatEther(big.NewInt(1_000_000_000_000)))
}

func TestFormatGwei(t *testing.T) {
	assert.Equal(t, "1.50", FormatGwei(big.NewInt(1_500_000_000)))
}

func TestFormatUnits(t *testing.T) {
	assert.Equal(t, "1.5", FormatUnits(big.NewInt(1_500_000), 6))
	assert.Equal(t, "42", FormatUnits(big.NewInt(42), 0))
	assert.Equal(t, "0.000001", FormatUnits(big.NewInt(1), 6))
	assert.Equal(t, "0", FormatUnits(nil, 6))
}

func TestParseUnits(t *testing.T) {
	tests := []struct {
		in       string
		decimals int32
		want     string
		wantErr  bool
	}{
		{"1", 18, "1000000000000000000", false},
		{"0.25", 6, "250000", false},
		{" 12.5 ", 2, "1250", false},
		{"0.0000001", 6, "", true},
		{"-1", 6, "", true},
		{"abc", 6, "", true},
		{"", 6, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUnits(tt.in, tt.decimals)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseEther(t *testing.T) {
	got, err := ParseEther("0.01")
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000", got.String())
}
