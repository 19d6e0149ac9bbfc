package datasets

import (
	"math"
	"math/rand"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spuriolabs/spurio/internal/models"
)

// profile gives a dataset family its scale: a starting level and a monthly
// trend increment. Matching runs in order; the first keyword hit wins.
type profile struct {
	keywords []string
	base     float64
	trend    float64
}

var profiles = []profile{
	{keywords: []string{"housing", "house", "price"}, base: 250000, trend: 5000},
	{keywords: []string{"unemployment"}, base: 8.5, trend: 0.1},
	{keywords: []string{"temperature", "climate"}, base: 15.0, trend: 0.02},
	{keywords: []string{"population"}, base: 1000000, trend: 10000},
	{keywords: []string{"earthquake"}, base: 50, trend: 1},
	{keywords: []string{"google", "search"}, base: 50000000, trend: 1000000},
	{keywords: []string{"wikipedia", "pageviews"}, base: 1000000, trend: 50000},
	{keywords: []string{"bitcoin", "crypto", "btc"}, base: 30000, trend: 500},
	{keywords: []string{"stock"}, base: 150, trend: 2},
	{keywords: []string{"energy", "renewable"}, base: 500000, trend: 25000},
	{keywords: []string{"wellness", "health"}, base: 50, trend: 2},
	{keywords: []string{"ai", "artificial", "chatgpt"}, base: 1000, trend: 500},
	{keywords: []string{"electric", "ev", "tesla"}, base: 50000, trend: 15000},
}

var defaultProfile = profile{base: 100000, trend: 1000}

func profileFor(name string) profile {
	lower := strings.ToLower(name)
	for _, p := range profiles {
		for _, kw := range p.keywords {
			if strings.Contains(lower, kw) {
				return p
			}
		}
	}
	return defaultProfile
}

// CatalogEntry names a generatable dataset and the archive it is presented as
// coming from.
type CatalogEntry struct {
	Name       string `json:"name"`
	SourceName string `json:"source_name"`
	SourceURL  string `json:"source_url"`
	SourceType string `json:"source_type"`
}

var catalog = []CatalogEntry{
	{Name: "housing prices in coastal towns", SourceName: "Federal Housing Finance Agency", SourceURL: "https://www.fhfa.gov/data", SourceType: "Official government data"},
	{Name: "searches for sourdough starter recipes", SourceName: "Google Trends", SourceURL: "https://trends.google.com/trends", SourceType: "Search interest index"},
	{Name: "searches for christmas sweaters", SourceName: "Google Trends", SourceURL: "https://trends.google.com/trends", SourceType: "Search interest index"},
	{Name: "wikipedia pageviews for conspiracy theories", SourceName: "Wikimedia Statistics", SourceURL: "https://stats.wikimedia.org", SourceType: "Platform analytics"},
	{Name: "bitcoin mentions in corporate filings", SourceName: "Securities Archive Project", SourceURL: "https://www.sec.gov/edgar", SourceType: "Regulatory filings index"},
	{Name: "temperature anomalies in reykjavik", SourceName: "National Oceanic and Atmospheric Administration", SourceURL: "https://www.ncei.noaa.gov", SourceType: "Official climate data"},
	{Name: "unemployment among puppeteers", SourceName: "Bureau of Labor Statistics", SourceURL: "https://www.bls.gov/data", SourceType: "Official government data"},
	{Name: "population of urban raccoons", SourceName: "Urban Wildlife Information Network", SourceURL: "https://www.urbanwildlifeinfo.org", SourceType: "Research network data"},
	{Name: "earthquake detections near yellowstone", SourceName: "United States Geological Survey", SourceURL: "https://earthquake.usgs.gov", SourceType: "Official geophysical data"},
	{Name: "stock photos of handshakes licensed", SourceName: "Commercial Imagery Index", SourceURL: "https://data.example.org/imagery", SourceType: "Industry statistics"},
	{Name: "renewable energy patents filed", SourceName: "World Intellectual Property Organization", SourceURL: "https://www.wipo.int/ipstats", SourceType: "International statistics"},
	{Name: "wellness retreat bookings", SourceName: "Global Wellness Institute", SourceURL: "https://globalwellnessinstitute.org/industry-research", SourceType: "Industry statistics"},
	{Name: "ai startup incorporations", SourceName: "OECD Science and Technology Indicators", SourceURL: "https://stats.oecd.org", SourceType: "International statistics"},
	{Name: "electric scooter registrations", SourceName: "Department of Transportation Statistics", SourceURL: "https://www.bts.gov/data", SourceType: "Official government data"},
	{Name: "margarine consumption per household", SourceName: "Department of Agriculture Economic Research", SourceURL: "https://www.ers.usda.gov/data-products", SourceType: "Official government data"},
	{Name: "films nicolas cage appeared in", SourceName: "Motion Picture Almanac", SourceURL: "https://data.example.org/cinema", SourceType: "Entertainment archive"},
	{Name: "cheese consumption per capita", SourceName: "Department of Agriculture Economic Research", SourceURL: "https://www.ers.usda.gov/data-products", SourceType: "Official government data"},
	{Name: "pet costumes sold in october", SourceName: "National Retail Federation Surveys", SourceURL: "https://nrf.com/research", SourceType: "Industry statistics"},
	{Name: "arcade revenue by state", SourceName: "Census Bureau Economic Indicators", SourceURL: "https://www.census.gov/econ", SourceType: "Official government data"},
	{Name: "library card applications", SourceName: "Institute of Museum and Library Services", SourceURL: "https://www.imls.gov/research-tools", SourceType: "Official government data"},
	{Name: "kayak rentals on mountain lakes", SourceName: "Outdoor Industry Association", SourceURL: "https://outdoorindustry.org/research", SourceType: "Industry statistics"},
	{Name: "lawn flamingo imports", SourceName: "International Trade Commission Dataweb", SourceURL: "https://dataweb.usitc.gov", SourceType: "Official trade data"},
	{Name: "energy drink launches", SourceName: "Consumer Goods Registry", SourceURL: "https://data.example.org/cpg", SourceType: "Industry statistics"},
	{Name: "searches for how to tie a tie", SourceName: "Google Trends", SourceURL: "https://trends.google.com/trends", SourceType: "Search interest index"},
	{Name: "stock market index for novelty socks", SourceName: "Commercial Imagery Index", SourceURL: "https://data.example.org/socks", SourceType: "Industry statistics"},
	{Name: "houseplant price index", SourceName: "Horticultural Trade Association", SourceURL: "https://hta.org.uk/statistics", SourceType: "Industry statistics"},
	{Name: "crypto conference attendance", SourceName: "Event Industry Council", SourceURL: "https://insights.eventscouncil.org", SourceType: "Industry statistics"},
	{Name: "temperature of office thermostats disputed", SourceName: "Facilities Management Benchmark", SourceURL: "https://data.example.org/facilities", SourceType: "Industry statistics"},
	{Name: "pageviews for cat articles", SourceName: "Wikimedia Statistics", SourceURL: "https://stats.wikimedia.org", SourceType: "Platform analytics"},
	{Name: "ev charging stations installed", SourceName: "Alternative Fuels Data Center", SourceURL: "https://afdc.energy.gov/stations", SourceType: "Official government data"},
}

// Generator produces plausible-looking monthly series for catalog datasets.
// It is deliberately deterministic under a fixed seed.
type Generator struct {
	rng       *rand.Rand
	titler    cases.Caser
	startYear int
	endYear   int
}

// NewGenerator creates a generator covering [startYear, endYear]. A zero seed
// means time-seeded; non-positive years fall back to 2010 and 2024.
func NewGenerator(seed int64, startYear, endYear int) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if startYear <= 0 {
		startYear = 2010
	}
	if endYear < startYear {
		endYear = 2024
	}
	return &Generator{
		rng:       rand.New(rand.NewSource(seed)),
		titler:    cases.Title(language.English),
		startYear: startYear,
		endYear:   endYear,
	}
}

// Catalog returns the generatable dataset catalog.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

// Random generates a series for a randomly picked catalog entry.
func (g *Generator) Random() models.Series {
	entry := catalog[g.rng.Intn(len(catalog))]
	return g.Series(entry)
}

// Series generates the monthly series for one catalog entry: a linear trend
// on the profile scale, a seasonal term for the families that have one, and
// uniform noise at ten percent of the base level, floored at zero.
func (g *Generator) Series(entry CatalogEntry) models.Series {
	p := profileFor(entry.Name)
	lower := strings.ToLower(entry.Name)

	var points []models.SeriesPoint
	for year := g.startYear; year <= g.endYear; year++ {
		for month := 1; month <= 12; month++ {
			timeFactor := float64((year-g.startYear)*12 + month)
			value := p.base + p.trend*timeFactor

			switch {
			case strings.Contains(lower, "temperature") || strings.Contains(lower, "climate"):
				value += 5 * math.Sin(2*math.Pi*float64(month)/12)
			case strings.Contains(lower, "christmas") && (strings.Contains(lower, "search") || strings.Contains(lower, "google")):
				if month == 12 {
					value += p.base * 0.5
				}
			case strings.Contains(lower, "wellness") && year >= 2020:
				value += p.base * 0.2
			}

			value += (g.rng.Float64()*2 - 1) * 0.1 * p.base
			points = append(points, models.SeriesPoint{
				Timestamp: time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC),
				Value:     math.Max(value, 0),
			})
		}
	}

	return models.Series{
		Name:   g.titler.String(entry.Name),
		Points: points,
		Source: models.Provenance{
			Name: entry.SourceName,
			URL:  entry.SourceURL,
			Type: entry.SourceType,
		},
	}
}
