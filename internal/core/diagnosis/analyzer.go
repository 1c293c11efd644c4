// package diagnosis/analyzer.go
package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

var (
	ErrAINotConfigured = errors.New("serviço de IA não configurado")
	ErrAIUnauthorized  = errors.New("chave da API de IA inválida ou expirada")
	ErrAIRateLimited   = errors.New("limite de requisições da IA excedido, tente novamente em 1 minuto")
	ErrAITimeout       = errors.New("tempo limite da IA excedido")
	ErrAIEmptyResponse = errors.New("resposta da IA sem conteúdo")
	ErrAIInvalidJSON   = errors.New("resposta da IA não é um JSON válido")
)

const (
	DefaultClaudeModel     = "claude-3-5-sonnet-20241022"
	DefaultClaudeMaxTokens = 4096
	DefaultClaudeTimeout   = 120 * time.Second
)

// Analyzer sends a system instruction and a user message to an LLM and returns its text.
type Analyzer interface {
	Analyze(ctx context.Context, system, user string) (string, error)
}

// ClaudeConfig configures the Claude analyzer.
type ClaudeConfig struct {
	APIKey     string
	Model      string
	MaxTokens  int
	Timeout    time.Duration
	MaxRetries int
	BaseURL    string
}

type claudeAnalyzer struct {
	client    anthropic.Client
	model     string
	maxTokens int
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClaudeAnalyzer creates an Analyzer backed by the Anthropic Messages API.
func NewClaudeAnalyzer(cfg ClaudeConfig, logger *zap.Logger) (Analyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrAINotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultClaudeModel
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultClaudeMaxTokens
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultClaudeTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	logger.Debug("Analisador Claude inicializado",
		zap.String("model", cfg.Model),
		zap.Int("max_tokens", cfg.MaxTokens),
		zap.Duration("timeout", cfg.Timeout))

	return &claudeAnalyzer{
		client:    anthropic.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		timeout:   cfg.Timeout,
		logger:    logger,
	}, nil
}

func (a *claudeAnalyzer) Analyze(ctx context.Context, system, user string) (string, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(a.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}

	start := time.Now()
	a.logger.Info("Chamando Claude",
		zap.Int("message_chars", len(user)),
		zap.Int("approx_tokens", len(user)/4))

	resp, err := a.client.Messages.New(timeoutCtx, params)
	if err != nil {
		return "", a.mapError(timeoutCtx, err)
	}

	var out strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(out.String()) == "" {
		return "", ErrAIEmptyResponse
	}

	a.logger.Info("Resposta do Claude recebida",
		zap.Int("response_chars", out.Len()),
		zap.Duration("duration", time.Since(start)))
	return out.String(), nil
}

func (a *claudeAnalyzer) mapError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		a.logger.Error("Tempo limite do Claude excedido", zap.Duration("timeout", a.timeout))
		return ErrAITimeout
	}

	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		a.logger.Error("Erro na API do Claude", zap.Int("status", apiErr.StatusCode), zap.Error(err))
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return ErrAIUnauthorized
		case http.StatusTooManyRequests:
			return ErrAIRateLimited
		}
		return fmt.Errorf("API do Claude retornou %d: %w", apiErr.StatusCode, err)
	}

	a.logger.Error("Falha na chamada ao Claude", zap.Error(err))
	return fmt.Errorf("falha na chamada ao Claude: %w", err)
}
