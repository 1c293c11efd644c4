package market

import (
	"context"
	"errors"
	"net/url"

	"diagnosis-service/internal/domain"
)

// DefaultBrapiBaseURL is the root of the brapi quote API.
const DefaultBrapiBaseURL = "https://brapi.dev/api"

const (
	ibovTicker         = "^BVSP"
	ibovFallbackValue  = 128000
	ibovFallbackChange = 0.5
)

type brapiQuoteResponse struct {
	Results []struct {
		Symbol        string  `json:"symbol"`
		Price         float64 `json:"regularMarketPrice"`
		ChangePercent float64 `json:"regularMarketChangePercent"`
	} `json:"results"`
}

// BrapiClient reads equity quotes from brapi.
type BrapiClient struct {
	api   *Client
	token string
}

// NewBrapiClient creates a brapi client. The token is optional.
func NewBrapiClient(api *Client, token string) *BrapiClient {
	return &BrapiClient{api: api, token: token}
}

// Ibov returns the current Ibovespa level and daily change.
func (b *BrapiClient) Ibov(ctx context.Context) (domain.EquityIndex, error) {
	var params url.Values
	if b.token != "" {
		params = url.Values{"token": {b.token}}
	}

	var resp brapiQuoteResponse
	if err := b.api.get(ctx, "/quote/"+url.PathEscape(ibovTicker), params, &resp); err != nil {
		return domain.EquityIndex{}, err
	}
	if len(resp.Results) == 0 {
		return domain.EquityIndex{}, errors.New("cotação do IBOV ausente na resposta")
	}

	quote := resp.Results[0]
	if quote.Price == 0 {
		return domain.EquityIndex{}, errors.New("cotação do IBOV zerada")
	}
	return domain.EquityIndex{Value: quote.Price, ChangePercent: quote.ChangePercent, Source: domain.SourceLive}, nil
}
