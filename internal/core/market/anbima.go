package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"diagnosis-service/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultAnbimaTokenURL = "https://api.anbima.com.br/oauth/authorize"
	DefaultAnbimaBaseURL  = "https://api.anbima.com.br"
)

const anbimaFeedPrefix = "/feed/precos-indices/v1/indices/resultados-"

var emptyFeed = json.RawMessage(`{}`)

// AnbimaConfig holds the OAuth2 client credentials of the ANBIMA API.
type AnbimaConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
}

// AnbimaClient fetches the ANBIMA index feeds with a client credentials token.
type AnbimaClient struct {
	tokens oauth2.TokenSource
	api    *Client
	logger *zap.Logger
}

// NewAnbimaClient creates an ANBIMA client. Tokens are requested with the
// credentials in the form body and reused until they expire.
func NewAnbimaClient(cfg AnbimaConfig, timeout time.Duration, logger *zap.Logger, opts ...ClientOption) *AnbimaClient {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultAnbimaTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultAnbimaBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	tokens := cc.TokenSource(tokenCtx)

	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &oauth2.Transport{Source: tokens},
	}
	opts = append([]ClientOption{WithHTTPClient(httpClient), WithClientLogger(logger)}, opts...)

	return &AnbimaClient{
		tokens: tokens,
		api:    NewClient(cfg.BaseURL, opts...),
		logger: logger,
	}
}

// Indices authenticates and fetches the four index feeds concurrently. A feed
// that fails becomes an empty object; only an authentication failure is an error.
func (a *AnbimaClient) Indices(ctx context.Context) (domain.AnbimaIndices, error) {
	indices := domain.AnbimaIndices{IMA: emptyFeed, IDA: emptyFeed, IHFA: emptyFeed, IDKA: emptyFeed}

	if _, err := a.tokens.Token(); err != nil {
		return indices, fmt.Errorf("falha na autenticação ANBIMA: %w", err)
	}

	feeds := []struct {
		name string
		dst  *json.RawMessage
	}{
		{"ima", &indices.IMA},
		{"ida-fechado", &indices.IDA},
		{"ihfa-fechado", &indices.IHFA},
		{"idka", &indices.IDKA},
	}

	var g errgroup.Group
	for _, feed := range feeds {
		g.Go(func() error {
			var raw json.RawMessage
			if err := a.api.get(ctx, anbimaFeedPrefix+feed.name, nil, &raw); err != nil {
				a.logger.Warn("Falha ao buscar índice ANBIMA", zap.String("feed", feed.name), zap.Error(err))
				return nil
			}
			*feed.dst = raw
			return nil
		})
	}
	_ = g.Wait()

	indices.Source = domain.SourceLive
	return indices, nil
}
