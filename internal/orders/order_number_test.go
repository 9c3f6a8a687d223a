package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatOrderNumber(t *testing.T) {
	assert.Equal(t, "2025-00001", FormatOrderNumber(2025, 1))
	assert.Equal(t, "2025-00042", FormatOrderNumber(2025, 42))
	assert.Equal(t, "2026-123456", FormatOrderNumber(2026, 123456))
}

func TestParseOrderNumber(t *testing.T) {
	year, seq, err := ParseOrderNumber("2025-00042")
	require.NoError(t, err)
	assert.Equal(t, 2025, year)
	assert.Equal(t, 42, seq)

	for _, bad := range []string{"", "2025", "abc-00001", "2025-x"} {
		_, _, err := ParseOrderNumber(bad)
		assert.Error(t, err, bad)
	}
}

func TestOrderNumberPrefix(t *testing.T) {
	assert.Equal(t, "2025-%", OrderNumberPrefix(2025))
}
