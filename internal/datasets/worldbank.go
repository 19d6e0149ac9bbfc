// Package datasets produces the named time series the discovery pipeline
// feeds on: real indicator data from the World Bank API, generated series
// with realistic shapes for everything the APIs cannot cover, and a small
// fallback set so the pool never comes up empty.
package datasets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/config"
	"github.com/spuriolabs/spurio/internal/models"
)

// indicatorNames maps World Bank indicator codes onto display labels.
var indicatorNames = map[string]string{
	"NY.GDP.MKTP.CD":    "Gross Domestic Product by Country",
	"SP.POP.TOTL":       "Total Population by Country",
	"SL.UEM.TOTL.ZS":    "International Unemployment Rates",
	"EN.ATM.CO2E.PC":    "CO2 Emissions per Person",
	"EN.POP.DNST":       "Population Density by Country",
	"IT.NET.USER.ZS":    "Internet Users by Country",
	"SH.DYN.MORT":       "Global Infant Mortality Rates",
	"SE.ADT.LITR.ZS":    "Adult Literacy Rates",
	"EG.USE.ELEC.KH.PC": "Electric Power Consumption per Person",
	"SP.URB.TOTL.IN.ZS": "Global Urban Population",
	"NE.TRD.GNFS.ZS":    "International Trade Share of GDP",
	"FP.CPI.TOTL.ZG":    "Global Inflation Rates",
	"NY.GDP.PCAP.CD":    "Global GDP per Person",
	"SP.DYN.LE00.IN":    "Global Life Expectancy",
	"AG.LND.FRST.ZS":    "Forest Area by Country",
	"EG.ELC.RNEW.ZS":    "Renewable Electricity Production",
}

// IndicatorName returns the display label for a World Bank indicator code.
func IndicatorName(code string) string {
	if name, ok := indicatorNames[code]; ok {
		return name
	}
	return fmt.Sprintf("Economic Indicator: %s", code)
}

// wbObservation is one row of a World Bank indicator response. The value is
// nullable: the API reports years without data as null rather than omitting
// them.
type wbObservation struct {
	Indicator struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"indicator"`
	Country struct {
		ID    string `json:"id"`
		Value string `json:"value"`
	} `json:"country"`
	CountryISO3 string   `json:"countryiso3code"`
	Date        string   `json:"date"`
	Value       *float64 `json:"value"`
}

type wbErrorMessage struct {
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

// WorldBankClient fetches indicator series over the World Bank open data API.
type WorldBankClient struct {
	HTTPClient *http.Client
	baseURL    string
	startYear  int
	endYear    int
	logger     *logrus.Logger
}

// NewWorldBankClient creates a client from the datasets config block.
func NewWorldBankClient(cfg config.WorldBankConfig, logger *logrus.Logger) *WorldBankClient {
	timeout := time.Duration(cfg.GetTimeout()) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &WorldBankClient{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:   strings.TrimSuffix(cfg.GetServiceURL(), "/"),
		startYear: cfg.StartYear,
		endYear:   cfg.EndYear,
		logger:    logger,
	}
}

// BaseURL returns the configured API root.
func (c *WorldBankClient) BaseURL() string {
	return c.baseURL
}

// FetchIndicator retrieves one indicator for one country as a yearly series
// ordered oldest first. Years the API reports as null become missing points
// so alignment still sees their timestamps.
func (c *WorldBankClient) FetchIndicator(ctx context.Context, country, indicator string) (models.Series, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("per_page", "1000")
	if c.startYear > 0 && c.endYear > 0 {
		query.Set("date", fmt.Sprintf("%d:%d", c.startYear, c.endYear))
	}
	path := fmt.Sprintf("/country/%s/indicator/%s?%s", url.PathEscape(country), url.PathEscape(indicator), query.Encode())

	var payload []json.RawMessage
	if err := c.makeRequest(ctx, http.MethodGet, path, &payload); err != nil {
		return models.Series{}, err
	}
	if len(payload) < 2 {
		return models.Series{}, fmt.Errorf("unexpected world bank response shape: %d elements", len(payload))
	}

	var observations []wbObservation
	if err := json.Unmarshal(payload[1], &observations); err != nil {
		return models.Series{}, fmt.Errorf("failed to unmarshal observations: %w", err)
	}

	points := make([]models.SeriesPoint, 0, len(observations))
	for _, obs := range observations {
		year, err := strconv.Atoi(obs.Date)
		if err != nil {
			// Monthly or quarterly period labels are out of scope here.
			continue
		}
		value := math.NaN()
		if obs.Value != nil {
			value = *obs.Value
		}
		points = append(points, models.SeriesPoint{
			Timestamp: time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC),
			Value:     value,
		})
	}
	// The API returns newest years first.
	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	c.logger.WithFields(logrus.Fields{
		"indicator": indicator,
		"country":   country,
		"points":    len(points),
	}).Debug("Fetched World Bank indicator")

	return models.Series{
		Name:   fmt.Sprintf("%s (%s)", IndicatorName(indicator), strings.ToUpper(country)),
		Points: points,
		Source: models.Provenance{
			Name: "World Bank Open Data",
			URL:  fmt.Sprintf("%s/country/%s/indicator/%s", c.baseURL, country, indicator),
			Type: "International statistics",
		},
	}, nil
}

// makeRequest is a helper method to make HTTP requests to the World Bank API
func (c *WorldBankClient) makeRequest(ctx context.Context, method, path string, result interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "spurio/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.WithError(err).Warn("Error closing response body")
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errorResp []wbErrorMessage
		if err := json.Unmarshal(respBody, &errorResp); err == nil && len(errorResp) > 0 && len(errorResp[0].Message) > 0 {
			return fmt.Errorf("world bank api error (%d): %s", resp.StatusCode, errorResp[0].Message[0].Value)
		}
		return fmt.Errorf("world bank api error (%d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}

	return nil
}
