package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
	})

	t.Run("returns error for empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromFloat(100), "")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		want    Currency
		wantErr bool
	}{
		{"empty falls back", "", USD, false},
		{"lower case normalized", "eur", EUR, false},
		{"padded", " gbp ", GBP, false},
		{"too long", "EURO", "", true},
		{"digits", "U5D", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCurrency(tt.code, USD)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMoney_Percent(t *testing.T) {
	m, err := NewMoneyFromString("1000.00", USD)
	require.NoError(t, err)

	assert.True(t, m.Percent(50).Amount().Equal(decimal.NewFromInt(500)))
	assert.True(t, m.Percent(0).IsZero())
	assert.True(t, m.Percent(100).Equals(m))

	odd, err := NewMoneyFromString("10.01", USD)
	require.NoError(t, err)
	assert.Equal(t, "3.30", odd.Percent(33).Amount().StringFixed(2))
}

func TestMoney_Add(t *testing.T) {
	a, _ := NewMoneyFromString("10", USD)
	b, _ := NewMoneyFromString("5.5", USD)
	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "15.50 USD", sum.String())

	_, err = a.Add(Zero(EUR))
	assert.Error(t, err)
}

func TestMoney_MarshalJSON(t *testing.T) {
	m, _ := NewMoneyFromString("42.5", EUR)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"42.50","currency":"EUR"}`, string(data))
}
