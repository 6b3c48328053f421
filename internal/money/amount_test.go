package money

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("accepts plain integer strings", func(t *testing.T) {
		a, err := Parse("100000")
		require.NoError(t, err)
		assert.Equal(t, Amount(100000), a)
	})

	t.Run("accepts zero", func(t *testing.T) {
		a, err := Parse("0")
		require.NoError(t, err)
		assert.Equal(t, Amount(0), a)
	})

	t.Run("rejects empty string", func(t *testing.T) {
		_, err := Parse("")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects decimals", func(t *testing.T) {
		_, err := Parse("100.50")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects signs", func(t *testing.T) {
		_, err := Parse("-100")
		assert.ErrorIs(t, err, ErrInvalidAmount)

		_, err = Parse("+100")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})

	t.Run("rejects thousands separators", func(t *testing.T) {
		_, err := Parse("100,000")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	})
}

func TestParsePositive(t *testing.T) {
	_, err := ParsePositive("0")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	a, err := ParsePositive("40000")
	require.NoError(t, err)
	assert.Equal(t, Amount(40000), a)
}

func TestAmountJSON(t *testing.T) {
	t.Run("marshals as quoted integer string", func(t *testing.T) {
		data, err := json.Marshal(Amount(250000))
		require.NoError(t, err)
		assert.Equal(t, `"250000"`, string(data))
	})

	t.Run("unmarshals quoted and bare integers", func(t *testing.T) {
		var a Amount
		require.NoError(t, json.Unmarshal([]byte(`"40000"`), &a))
		assert.Equal(t, Amount(40000), a)

		require.NoError(t, json.Unmarshal([]byte(`60000`), &a))
		assert.Equal(t, Amount(60000), a)
	})

	t.Run("rejects fractional wire values", func(t *testing.T) {
		var a Amount
		assert.Error(t, json.Unmarshal([]byte(`"400.00"`), &a))
	})
}

func TestApplyDiscount(t *testing.T) {
	t.Run("applies whole percentage", func(t *testing.T) {
		a, err := ApplyDiscount(Amount(100000), "20")
		require.NoError(t, err)
		assert.Equal(t, Amount(80000), a)
	})

	t.Run("rounds half up", func(t *testing.T) {
		// 999 * 0.85 = 849.15 -> 849; 999 * 0.75 = 749.25 -> 749
		a, err := ApplyDiscount(Amount(999), "15")
		require.NoError(t, err)
		assert.Equal(t, Amount(849), a)

		// 5 * 0.5 = 2.5 -> округление половины вверх
		a, err = ApplyDiscount(Amount(5), "50")
		require.NoError(t, err)
		assert.Equal(t, Amount(3), a)
	})

	t.Run("zero and full discounts are boundary-valid", func(t *testing.T) {
		a, err := ApplyDiscount(Amount(100000), "0")
		require.NoError(t, err)
		assert.Equal(t, Amount(100000), a)

		a, err = ApplyDiscount(Amount(100000), "100")
		require.NoError(t, err)
		assert.Equal(t, Amount(0), a)
	})

	t.Run("rejects out-of-range and unparseable", func(t *testing.T) {
		_, err := ApplyDiscount(Amount(100000), "101")
		assert.ErrorIs(t, err, ErrInvalidPercentage)

		_, err = ApplyDiscount(Amount(100000), "-1")
		assert.ErrorIs(t, err, ErrInvalidPercentage)

		_, err = ApplyDiscount(Amount(100000), "twenty")
		assert.ErrorIs(t, err, ErrInvalidPercentage)
	})
}
