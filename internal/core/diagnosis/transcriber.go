package diagnosis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	DefaultGeminiModel   = "gemini-2.5-flash"
	DefaultGeminiTimeout = 60 * time.Second
	defaultAudioMIME     = "audio/webm"
)

const (
	transcriberSystemPrompt = "Você é um transcritor de áudio especializado em português brasileiro. Transcreva o áudio fornecido com precisão. Retorne APENAS o texto transcrito, sem comentários adicionais, sem formatação markdown."
	transcriberUserPrompt   = "Transcreva este áudio em português brasileiro. Retorne apenas o texto transcrito."
)

// Transcriber turns recorded audio into Portuguese text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// GeminiConfig configures the Gemini transcriber.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	BaseURL string
}

type geminiTranscriber struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewGeminiTranscriber creates a Transcriber backed by the Gemini API.
func NewGeminiTranscriber(ctx context.Context, cfg GeminiConfig, logger *zap.Logger) (Transcriber, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrAINotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultGeminiTimeout
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("falha ao criar cliente Gemini: %w", err)
	}

	return &geminiTranscriber{
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

func (t *geminiTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("áudio vazio")
	}
	mimeType = normalizeAudioMIME(mimeType)

	timeoutCtx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			genai.NewPartFromBytes(audio, mimeType),
			genai.NewPartFromText(transcriberUserPrompt),
		},
	}}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(transcriberSystemPrompt, genai.RoleUser),
	}

	start := time.Now()
	t.logger.Info("Transcrevendo áudio", zap.Int("size", len(audio)), zap.String("mime", mimeType))

	resp, err := t.client.Models.GenerateContent(timeoutCtx, t.model, contents, config)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(timeoutCtx.Err(), context.DeadlineExceeded) {
			return "", ErrAITimeout
		}
		return "", fmt.Errorf("falha na transcrição: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrAIEmptyResponse
	}

	t.logger.Info("Áudio transcrito",
		zap.Int("chars", len(text)),
		zap.Duration("duration", time.Since(start)))
	return text, nil
}

// normalizeAudioMIME drops parameters such as ";codecs=opus" and defaults to audio/webm.
func normalizeAudioMIME(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" || base == "application/octet-stream" {
		return defaultAudioMIME
	}
	return base
}
