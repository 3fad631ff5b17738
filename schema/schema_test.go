package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Test Data ─────────────────────────────────────────────────────────────────

var offenses = Config{
	Name: "offense_inmate",
	Dimensions: []DimensionMeta{
		DefaultDimension("county", "County"),
		TemporalDimension("off_date", "Offense Date"),
		TokenDimension("charge_tokens", "Charge Tokens"),
	},
	Measures: []MeasureMeta{
		DefaultMeasure("prisonterm", "Prison Term", "days"),
	},
}

// ============================================================================
// METADATA
// ============================================================================

func TestColumnsAreDimensionsThenMeasures(t *testing.T) {
	assert.Equal(t, []string{"county", "off_date", "charge_tokens"}, offenses.DimensionKeys())
	assert.Equal(t, []string{"prisonterm"}, offenses.MeasureKeys())
	assert.Equal(t, []string{"county", "off_date", "charge_tokens", "prisonterm"}, offenses.Columns())
}

func TestDimensionConstructors(t *testing.T) {
	d, ok := offenses.Dimension("off_date")
	require.True(t, ok)
	assert.True(t, d.IsTemporal)
	assert.True(t, d.Groupable)

	tok, ok := offenses.Dimension("charge_tokens")
	require.True(t, ok)
	assert.True(t, tok.IsTokenList)
	assert.False(t, tok.Groupable)

	_, ok = offenses.Dimension("race")
	assert.False(t, ok)
	assert.Equal(t, "mean", offenses.Measures[0].DefaultAggregation)
}

// ============================================================================
// VALIDATE
// ============================================================================

func TestValidateMapsHeaderPositions(t *testing.T) {
	idx, err := offenses.Validate([]string{"prisonterm", " county ", "extra", "charge_tokens", "off_date", "county"})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 4, 3, 0}, idx)
}

func TestValidateReportsEveryMissingColumn(t *testing.T) {
	_, err := offenses.Validate([]string{"county"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), "offense_inmate")
	assert.Contains(t, err.Error(), "off_date, charge_tokens, prisonterm")
}
