package datasets

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	tests := []struct {
		name string
		base float64
	}{
		{name: "Housing Prices In Coastal Towns", base: 250000},
		{name: "searches for sourdough starter recipes", base: 50000000},
		{name: "Temperature Anomalies In Reykjavik", base: 15.0},
		{name: "bitcoin mentions in corporate filings", base: 30000},
		{name: "EV Charging Stations Installed", base: 50000},
		// Substring matching quirks: "revenue" hits the "ev" keyword.
		{name: "arcade revenue by state", base: 50000},
		{name: "margarine consumption per household", base: 100000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.base, profileFor(tt.name).base)
		})
	}
}

func TestGenerator_Series_Shape(t *testing.T) {
	gen := NewGenerator(42, 2010, 2024)
	entry := CatalogEntry{
		Name:       "housing prices in coastal towns",
		SourceName: "Federal Housing Finance Agency",
		SourceURL:  "https://www.fhfa.gov/data",
		SourceType: "Official government data",
	}

	series := gen.Series(entry)

	assert.Equal(t, "Housing Prices In Coastal Towns", series.Name)
	assert.Equal(t, "Federal Housing Finance Agency", series.Source.Name)
	assert.Equal(t, "Official government data", series.Source.Type)

	// Fifteen years of monthly data.
	require.Len(t, series.Points, 180)
	first := series.Points[0]
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), first.Timestamp)
	last := series.Points[len(series.Points)-1]
	assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), last.Timestamp)

	for _, p := range series.Points {
		assert.GreaterOrEqual(t, p.Value, 0.0)
		assert.Equal(t, 1, p.Timestamp.Day())
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	entry := catalog[0]

	a := NewGenerator(7, 2010, 2024).Series(entry)
	b := NewGenerator(7, 2010, 2024).Series(entry)
	assert.Equal(t, a.Points, b.Points)

	c := NewGenerator(8, 2010, 2024).Series(entry)
	assert.NotEqual(t, a.Points, c.Points)
}

func TestGenerator_TemperatureSeasonality(t *testing.T) {
	gen := NewGenerator(11, 2010, 2024)
	series := gen.Series(CatalogEntry{Name: "temperature anomalies in reykjavik"})

	var march, september float64
	var years int
	for _, p := range series.Points {
		switch p.Timestamp.Month() {
		case time.March:
			march += p.Value
			years++
		case time.September:
			september += p.Value
		}
	}

	require.Greater(t, years, 0)
	// The annual cycle peaks in spring and bottoms out in autumn.
	assert.Greater(t, march/float64(years), september/float64(years))
}

func TestGenerator_ChristmasSearchSpike(t *testing.T) {
	gen := NewGenerator(13, 2010, 2024)
	series := gen.Series(CatalogEntry{Name: "searches for christmas sweaters"})

	byMonth := make(map[time.Month][]float64)
	for _, p := range series.Points {
		byMonth[p.Timestamp.Month()] = append(byMonth[p.Timestamp.Month()], p.Value)
	}

	for i := range byMonth[time.December] {
		assert.Greater(t, byMonth[time.December][i], byMonth[time.November][i])
	}
}

func TestGenerator_Random_DrawsFromCatalog(t *testing.T) {
	gen := NewGenerator(3, 2010, 2024)

	names := make(map[string]bool)
	for _, entry := range catalog {
		names[gen.titler.String(entry.Name)] = true
	}

	for i := 0; i < 20; i++ {
		series := gen.Random()
		assert.True(t, names[series.Name], series.Name)
		assert.NotEmpty(t, series.Points)
		assert.NotEmpty(t, series.Source.Name)
	}
}

func TestFallbackSeries(t *testing.T) {
	series := FallbackSeries(rand.New(rand.NewSource(5)))
	require.Len(t, series, 1)

	births := series[0]
	assert.Equal(t, "Monthly Birth Statistics (France)", births.Name)
	assert.Equal(t, "National Institute of Statistics and Economic Studies", births.Source.Name)
	assert.Equal(t, "Official government data", births.Source.Type)

	// 2010 through June 2023.
	require.Len(t, births.Points, 162)
	assert.Equal(t, time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), births.Points[0].Timestamp)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), births.Points[len(births.Points)-1].Timestamp)

	for _, p := range births.Points {
		assert.GreaterOrEqual(t, p.Value, 57500.0)
		assert.LessOrEqual(t, p.Value, 67500.0)
	}
}

func TestCatalog_ReturnsCopy(t *testing.T) {
	first := Catalog()
	first[0].Name = "mutated"

	assert.NotEqual(t, "mutated", Catalog()[0].Name)
}
