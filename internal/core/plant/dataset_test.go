package plant

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureCSV = `plant_name,optimal_temp_c,optimal_ph,optimal_humidity,optimal_nutrient_ppm
Tomato (Solanum lycopersicum),24,6.2,65,1400
  Lettuce  ,18,6.0,60,800
Basil,25,n/a,60,
,20,6.0,60,900
`

func TestLoadParsesRowsAndCountsRejects(t *testing.T) {
	ds, result, err := Load(strings.NewReader(fixtureCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, result.Total)
	assert.Equal(t, 3, result.Loaded)
	assert.Equal(t, 1, result.Rejected)
	assert.Equal(t, 1, result.Incomplete)
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, []string{"Tomato (Solanum lycopersicum)", "Lettuce", "Basil"}, ds.Names())

	basil := ds.entries[2].record
	require.NotNil(t, basil.TempC)
	assert.Equal(t, 25.0, *basil.TempC)
	assert.Nil(t, basil.PH)
	assert.Nil(t, basil.NutrientPPM)
}

func TestLoadHeaderInAnyOrderAndCase(t *testing.T) {
	csv := "Optimal_PH,PLANT_NAME,optimal_temp_c,optimal_nutrient_ppm,optimal_humidity\n6.5,Spinach,18,1000,55\n"
	ds, _, err := Load(strings.NewReader(csv))
	require.NoError(t, err)

	rec := ds.entries[0].record
	assert.Equal(t, "Spinach", rec.Name)
	assert.Equal(t, 6.5, *rec.PH)
	assert.Equal(t, 55.0, *rec.Humidity)
}

func TestLoadFailures(t *testing.T) {
	_, _, err := Load(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, _, err = Load(strings.NewReader("plant_name,optimal_ph\nTomato,6\n"))
	assert.ErrorContains(t, err, "missing required csv header")

	_, _, err = Load(strings.NewReader("plant_name,optimal_temp_c,optimal_ph,optimal_humidity,optimal_nutrient_ppm\n"))
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, _, err = LoadFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)
}

func TestNormalizationIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plants.csv")
	require.NoError(t, os.WriteFile(path, []byte(fixtureCSV), 0o644))

	first, _, err := LoadFile(path)
	require.NoError(t, err)
	second, _, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first.NormalizedNames(), second.NormalizedNames())
	assert.Equal(t, [2]string{"tomato (solanum lycopersicum)", "tomato"}, first.NormalizedNames()[0])
	assert.Equal(t, [2]string{"lettuce", "lettuce"}, first.NormalizedNames()[1])
}

func TestBundledDatasetLoads(t *testing.T) {
	ds, result, err := LoadFile(filepath.Join("..", "..", "..", "data", "plants.csv"))
	require.NoError(t, err)
	assert.Zero(t, result.Rejected)
	assert.Greater(t, ds.Len(), 10)
}
