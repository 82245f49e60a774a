package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromInt(1000), UGX)
		require.NoError(t, err)
		assert.Equal(t, UGX, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(1000)))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1000), "")
		assert.Error(t, err)
	})
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		a := NewMoneyUGXFromFloat(1500)
		b := NewMoneyUGXFromFloat(500)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(2000)))
	})

	t.Run("rejects mixed currency addition", func(t *testing.T) {
		a := NewMoneyUGX(decimal.NewFromInt(100))
		b, _ := NewMoney(decimal.NewFromInt(100), USD)
		_, err := a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtracts same currency", func(t *testing.T) {
		a := NewMoneyUGXFromFloat(1500)
		b := NewMoneyUGXFromFloat(500)
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(1000)))
	})

	t.Run("negate flips the sign", func(t *testing.T) {
		m := NewMoneyUGXFromFloat(250)
		assert.True(t, m.Negate().IsNegative())
		assert.True(t, m.Negate().Negate().Equals(m))
	})

	t.Run("divide by zero fails", func(t *testing.T) {
		m := NewMoneyUGXFromFloat(100)
		_, err := m.Divide(decimal.Zero)
		assert.Error(t, err)
	})
}

func TestMoney_Comparisons(t *testing.T) {
	a := NewMoneyUGXFromFloat(100)
	b := NewMoneyUGXFromFloat(200)

	less, err := a.LessThan(b)
	require.NoError(t, err)
	assert.True(t, less)

	greater, err := b.GreaterThan(a)
	require.NoError(t, err)
	assert.True(t, greater)

	usd, _ := NewMoney(decimal.NewFromInt(100), USD)
	_, err = a.LessThan(usd)
	assert.Error(t, err)
}

func TestMoney_Predicates(t *testing.T) {
	assert.True(t, ZeroUGX().IsZero())
	assert.True(t, NewMoneyUGXFromFloat(1).IsPositive())
	assert.True(t, NewMoneyUGXFromFloat(-1).IsNegative())
}

func TestMoney_JSON(t *testing.T) {
	t.Run("round trips through JSON", func(t *testing.T) {
		m := NewMoneyUGXFromFloat(12500.50)
		data, err := json.Marshal(m)
		require.NoError(t, err)

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, m.Equals(decoded))
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"100","currency":""}`), &m)
		assert.Error(t, err)
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"abc","currency":"UGX"}`), &m)
		assert.Error(t, err)
	})
}

func TestMoney_String(t *testing.T) {
	m := NewMoneyUGXFromFloat(1234.5)
	assert.Equal(t, "1234.50 UGX", m.String())
	assert.Equal(t, "1234.5", m.StringFixed(1))
}
