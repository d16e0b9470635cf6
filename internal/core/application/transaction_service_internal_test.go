package application

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		amount   string
		expected btcutil.Amount
	}{
		{"1", 100000000},
		{"0.00000001", 1},
		{" 0.5 ", 50000000},
		{"21000000", btcutil.MaxSatoshi},
		{"1.10000000", 110000000},
	}
	for _, tt := range tests {
		amount, err := parseAmount(tt.amount)
		require.NoError(t, err, tt.amount)
		require.Equal(t, tt.expected, amount, tt.amount)
	}

	for _, amount := range []string{
		"", "abc", "0", "-1", "0.000000001", "21000000.00000001",
	} {
		_, err := parseAmount(amount)
		require.ErrorIs(t, err, ErrInvalidAmount, amount)
	}
}
