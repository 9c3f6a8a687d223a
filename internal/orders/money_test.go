package orders

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoneyMarshalKeepsTwoDecimals(t *testing.T) {
	b, err := json.Marshal(MustMoney("30"))
	require.NoError(t, err)
	assert.Equal(t, `"30.00"`, string(b))

	b, err = json.Marshal(Money{})
	require.NoError(t, err)
	assert.Equal(t, `"0.00"`, string(b))
}

func TestMoneyUnmarshalAcceptsNumbersAndStrings(t *testing.T) {
	var fromNumber, fromString Money
	require.NoError(t, json.Unmarshal([]byte(`19.999`), &fromNumber))
	require.NoError(t, json.Unmarshal([]byte(`"10.5"`), &fromString))

	assert.Equal(t, "20.00", fromNumber.String())
	assert.Equal(t, "10.50", fromString.String())

	var bad Money
	assert.Error(t, json.Unmarshal([]byte(`"ten"`), &bad))
}

func TestMoneyArithmetic(t *testing.T) {
	line := MustMoney("10.00").Times(3)
	assert.Equal(t, "30.00", line.String())
	assert.Equal(t, "32.49", line.Plus(MustMoney("2.49")).String())
}

func TestOrderTotal(t *testing.T) {
	total := OrderTotal([]ItemInput{
		{Price: MustMoney("10.00"), Quantity: 3},
		{Price: MustMoney("0.99"), Quantity: 2},
	})
	assert.Equal(t, "31.98", total.String())
	assert.Equal(t, "0.00", OrderTotal(nil).String())
}
