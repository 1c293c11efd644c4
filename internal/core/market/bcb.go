package market

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"diagnosis-service/internal/domain"
)

// DefaultBCBBaseURL is the root of the Banco Central open data API.
const DefaultBCBBaseURL = "https://api.bcb.gov.br"

// sgsSeries is a BCB SGS time series with the value used when it cannot be fetched.
type sgsSeries struct {
	key      string
	code     int
	fallback float64
}

var (
	seriesSelic  = sgsSeries{key: KeySelic, code: 11, fallback: 10.5}
	seriesCDI    = sgsSeries{key: KeyCDI, code: 12, fallback: 10.15}
	seriesIPCA   = sgsSeries{key: KeyIPCA, code: 433, fallback: 4.2}
	seriesUSDBRL = sgsSeries{key: KeyUSDBRL, code: 1, fallback: 5.15}
)

type sgsPoint struct {
	Date  string `json:"data"`
	Value string `json:"valor"`
}

// BCBClient reads the latest point of SGS series.
type BCBClient struct {
	api *Client
}

// NewBCBClient creates a BCB client.
func NewBCBClient(api *Client) *BCBClient {
	return &BCBClient{api: api}
}

// Latest returns the most recent point of the series with the given SGS code.
func (b *BCBClient) Latest(ctx context.Context, code int) (domain.RateIndicator, error) {
	var points []sgsPoint
	path := fmt.Sprintf("/dados/serie/bcdata.sgs.%d/dados/ultimos/1", code)
	if err := b.api.get(ctx, path, url.Values{"formato": {"json"}}, &points); err != nil {
		return domain.RateIndicator{}, err
	}
	if len(points) == 0 {
		return domain.RateIndicator{}, errors.New("série SGS sem dados")
	}

	latest := points[len(points)-1]
	value, err := strconv.ParseFloat(strings.TrimSpace(latest.Value), 64)
	if err != nil {
		return domain.RateIndicator{}, fmt.Errorf("valor SGS inválido %q: %w", latest.Value, err)
	}
	return domain.RateIndicator{Value: value, Date: latest.Date, Source: domain.SourceLive}, nil
}
