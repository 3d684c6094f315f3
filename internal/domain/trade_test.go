package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: decimal.RequireFromString(s), Valid: true}
}

func TestNewYearWindow_BoundsInclusive(t *testing.T) {
	w := NewYearWindow(2024)

	assert.True(t, w.Contains(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.True(t, w.Contains(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)))

	assert.False(t, w.Contains(time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, w.Contains(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestRationalPrice_Quotient(t *testing.T) {
	q := RationalPrice{Numerator: 1, Denominator: 8, Valid: true}.Quotient()
	require.True(t, q.Valid)
	assert.True(t, q.Decimal.Equal(decimal.RequireFromString("0.125")))

	assert.False(t, RationalPrice{}.Quotient().Valid)
	assert.False(t, RationalPrice{Numerator: 1, Denominator: 0, Valid: true}.Quotient().Valid)
}

func TestTradeRecord_NativeEquivalent(t *testing.T) {
	tests := []struct {
		name string
		rec  TradeRecord
		want decimal.NullDecimal
	}{
		{
			name: "native base sold",
			rec: TradeRecord{
				BaseIsSeller:  true,
				BaseAssetType: AssetTypeNative,
				BaseAmount:    dec("100"),
				CounterAmount: dec("12"),
			},
			want: dec("100"),
		},
		{
			name: "native counter bought",
			rec: TradeRecord{
				BaseIsSeller:     false,
				CounterAssetType: AssetTypeNative,
				BaseAmount:       dec("50"),
				CounterAmount:    dec("400"),
			},
			want: dec("400"),
		},
		{
			name: "native base but account bought",
			rec: TradeRecord{
				BaseIsSeller:  false,
				BaseAssetType: AssetTypeNative,
				BaseAmount:    dec("100"),
			},
			want: decimal.NullDecimal{},
		},
		{
			name: "no native leg",
			rec: TradeRecord{
				BaseIsSeller:     true,
				BaseAssetType:    "credit_alphanum4",
				CounterAssetType: "credit_alphanum4",
				BaseAmount:       dec("1"),
				CounterAmount:    dec("2"),
			},
			want: decimal.NullDecimal{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.rec.NativeEquivalent()
			require.Equal(t, tt.want.Valid, got.Valid)
			if tt.want.Valid {
				assert.True(t, got.Decimal.Equal(tt.want.Decimal))
			}
		})
	}
}
