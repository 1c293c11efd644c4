// package diagnosis/service.go
package diagnosis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"diagnosis-service/internal/core/market"
	"diagnosis-service/internal/core/statement"
	"diagnosis-service/internal/domain"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request is one diagnosis submission.
type Request struct {
	Questionnaire domain.Questionnaire
	Narrative     string
	Audio         *domain.InputFile
	Files         []domain.InputFile
}

// Result carries the diagnosis and the inputs it was generated from.
type Result struct {
	ID              string                      `json:"id"`
	Diagnosis       *domain.Diagnosis           `json:"diagnostico"`
	Statements      []domain.ParsedStatement    `json:"extratos"`
	Holdings        domain.ConsolidatedHoldings `json:"consolidado"`
	Market          domain.MarketSnapshot       `json:"mercado"`
	Narrative       string                      `json:"relato,omitempty"`
	MissingSections []string                    `json:"secoesAusentes,omitempty"`
	GeneratedAt     time.Time                   `json:"geradoEm"`
}

// Service define a interface do serviço de diagnóstico patrimonial.
type Service interface {
	Generate(ctx context.Context, req Request) (*Result, error)
	Transcribe(ctx context.Context, audio domain.InputFile) (string, error)
}

type service struct {
	statements  statement.Service
	market      market.Service
	analyzer    Analyzer
	transcriber Transcriber
	logger      *zap.Logger
}

// NewService cria o orquestrador do diagnóstico. analyzer and transcriber may
// be nil when their API keys are not configured.
func NewService(statements statement.Service, market market.Service, analyzer Analyzer, transcriber Transcriber, logger *zap.Logger) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &service{
		statements:  statements,
		market:      market,
		analyzer:    analyzer,
		transcriber: transcriber,
		logger:      logger,
	}
}

// Generate runs transcription, statement aggregation, market data, prompt
// assembly and the AI call. Only AI failures are returned as errors.
func (s *service) Generate(ctx context.Context, req Request) (*Result, error) {
	if s.analyzer == nil {
		return nil, ErrAINotConfigured
	}
	id := uuid.NewString()
	logger := s.logger.With(zap.String("diagnosis_id", id))

	narrative := strings.TrimSpace(req.Narrative)
	if narrative == "" && req.Audio != nil && req.Audio.Size() > 0 {
		text, err := s.Transcribe(ctx, *req.Audio)
		if err != nil {
			logger.Warn("Falha na transcrição, seguindo sem relato", zap.Error(err))
		} else {
			narrative = text
		}
	}

	logger.Info("[1/3] Processando extratos", zap.Int("files", len(req.Files)))
	statements := s.statements.ProcessMultiple(ctx, req.Files)
	holdings := s.statements.Consolidate(statements)

	logger.Info("[2/3] Buscando dados de mercado")
	snapshot := s.market.GetSnapshot(ctx)

	user := BuildUserMessage(PromptInput{
		MarketContext:       market.FormatSnapshot(snapshot),
		Answers:             SelectAnswers(req.Questionnaire),
		HoldingsDescription: statement.Describe(statements, holdings),
		Narrative:           narrative,
	})

	logger.Info("[3/3] Gerando diagnóstico", zap.Int("message_chars", len(user)))
	raw, err := s.analyzer.Analyze(ctx, SystemPrompt(), user)
	if err != nil {
		return nil, fmt.Errorf("falha ao gerar diagnóstico: %w", err)
	}

	diagnosis, err := ParseDiagnosis(raw)
	if err != nil {
		logger.Error("Resposta da IA inválida", zap.Error(err))
		return nil, err
	}

	missing := diagnosis.MissingSections()
	if len(missing) > 0 {
		logger.Warn("Diagnóstico sem algumas seções", zap.Strings("missing", missing))
	}
	logger.Info("Diagnóstico gerado", zap.Int("statements", len(statements)))

	return &Result{
		ID:              id,
		Diagnosis:       diagnosis,
		Statements:      statements,
		Holdings:        holdings,
		Market:          snapshot,
		Narrative:       narrative,
		MissingSections: missing,
		GeneratedAt:     snapshot.Timestamp,
	}, nil
}

// Transcribe converts an uploaded recording into text.
func (s *service) Transcribe(ctx context.Context, audio domain.InputFile) (string, error) {
	if s.transcriber == nil {
		return "", ErrAINotConfigured
	}
	return s.transcriber.Transcribe(ctx, audio.Data, audio.ContentType)
}
