package advisor

import (
	"encoding/json"
	"testing"

	"hydro-advisor/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReadingsZeroIsSupplied(t *testing.T) {
	reading, supplied, err := parseReading(map[string]interface{}{"ph": json.Number("0")})
	require.NoError(t, err)
	assert.True(t, supplied)
	assert.Equal(t, 0.0, reading.PH)

	_, supplied, err = parseReading(map[string]interface{}{"nutrient_ppm": "0"})
	require.NoError(t, err)
	assert.True(t, supplied)

	_, supplied, err = parseReading(map[string]interface{}{"ph": "  "})
	require.NoError(t, err)
	assert.False(t, supplied)
}

func TestParseReadingsRejectsNonNumeric(t *testing.T) {
	_, _, err := parseReading(map[string]interface{}{"temperature_c": "warm"})
	require.Error(t, err)
	assert.True(t, common.IsValidationError(err))
	assert.Contains(t, err.Error(), "temperature_c")
}
