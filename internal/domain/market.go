package domain

import (
	"encoding/json"
	"time"
)

// DataSource tells where a market value came from.
type DataSource string

const (
	SourceLive     DataSource = "live"
	SourceCache    DataSource = "cache"
	SourceFallback DataSource = "fallback"
)

// RateIndicator is the latest point of a BCB time series.
type RateIndicator struct {
	Value  float64    `json:"valor"`
	Date   string     `json:"data"`
	Source DataSource `json:"fonte"`
}

// EquityIndex is the current Ibovespa quote.
type EquityIndex struct {
	Value         float64    `json:"valor"`
	ChangePercent float64    `json:"variacao"`
	Source        DataSource `json:"fonte"`
}

// AnbimaIndices carries the raw ANBIMA index feeds. A feed that could not
// be fetched is an empty JSON object.
type AnbimaIndices struct {
	IMA       json.RawMessage `json:"ima"`
	IDA       json.RawMessage `json:"ida"`
	IHFA      json.RawMessage `json:"ihfa"`
	IDKA      json.RawMessage `json:"idka"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Source    DataSource      `json:"fonte"`
}

// MarketSnapshot is a point-in-time composite of independently cached indicators.
type MarketSnapshot struct {
	Selic     RateIndicator  `json:"selic"`
	CDI       RateIndicator  `json:"cdi"`
	IPCA      RateIndicator  `json:"ipca"`
	USDBRL    RateIndicator  `json:"usdBrl"`
	Ibov      EquityIndex    `json:"ibov"`
	Anbima    *AnbimaIndices `json:"anbima,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
