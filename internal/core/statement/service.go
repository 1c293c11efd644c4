// package statement/service.go
package statement

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"diagnosis-service/internal/core/money"
	"diagnosis-service/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrNoBalances is returned when a file was read but no balance could be extracted.
var ErrNoBalances = errors.New("nenhum saldo encontrado no extrato")

// Service define a interface para o processamento de extratos.
type Service interface {
	Process(ctx context.Context, file domain.InputFile) (domain.ParsedStatement, error)
	ProcessMultiple(ctx context.Context, files []domain.InputFile) []domain.ParsedStatement
	ProcessWithReport(ctx context.Context, files []domain.InputFile) ([]domain.ParsedStatement, []domain.FileReport)
	Consolidate(statements []domain.ParsedStatement) domain.ConsolidatedHoldings
}

type service struct {
	extractor Extractor
	logger    *zap.Logger
	now       func() time.Time
}

// Option customizes the statement service.
type Option func(*service)

// WithExtractor replaces the default text extractor.
func WithExtractor(e Extractor) Option {
	return func(s *service) { s.extractor = e }
}

// WithClock sets the clock used for the extraction date.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService cria uma nova instância do serviço de extratos.
func NewService(logger *zap.Logger, opts ...Option) Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &service{
		extractor: NewExtractor(),
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Process extracts, classifies and parses a single file.
func (s *service) Process(ctx context.Context, file domain.InputFile) (parsed domain.ParsedStatement, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("falha inesperada ao processar %s: %v", file.Name, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		return domain.ParsedStatement{}, err
	}

	text, err := s.extractor.Extract(file)
	if err != nil {
		return domain.ParsedStatement{}, fmt.Errorf("falha ao extrair texto de %s: %w", file.Name, err)
	}

	parsed = ParseText(text, s.now())
	parsed.SourceFile = file.Name
	if !parsed.HasBalances() {
		return parsed, ErrNoBalances
	}
	return parsed, nil
}

// ProcessMultiple processes files in order and keeps only statements with
// balances. A failing file is logged and skipped.
func (s *service) ProcessMultiple(ctx context.Context, files []domain.InputFile) []domain.ParsedStatement {
	statements, _ := s.ProcessWithReport(ctx, files)
	return statements
}

// ProcessWithReport works like ProcessMultiple and also reports the outcome of every file.
func (s *service) ProcessWithReport(ctx context.Context, files []domain.InputFile) ([]domain.ParsedStatement, []domain.FileReport) {
	statements := make([]domain.ParsedStatement, 0, len(files))
	reports := make([]domain.FileReport, 0, len(files))

	for _, file := range files {
		if ctx.Err() != nil {
			s.logger.Warn("Processamento de extratos interrompido", zap.Error(ctx.Err()))
			break
		}

		parsed, err := s.Process(ctx, file)
		report := domain.FileReport{FileName: file.Name, Category: parsed.Category}

		switch {
		case err == nil:
			report.Status = domain.FileParsed
			statements = append(statements, parsed)
		case errors.Is(err, ErrImageNotSupported), errors.Is(err, ErrUnsupportedFileType), errors.Is(err, ErrNoBalances):
			report.Status = domain.FileSkipped
			report.Reason = err.Error()
			s.logger.Warn("Extrato ignorado", zap.String("file", file.Name), zap.Error(err))
		default:
			report.Status = domain.FileFailed
			report.Reason = err.Error()
			s.logger.Error("Erro ao processar extrato", zap.String("file", file.Name), zap.Error(err))
		}
		reports = append(reports, report)
	}

	s.logger.Info("Extratos processados",
		zap.Int("files", len(files)),
		zap.Int("statements", len(statements)))
	return statements, reports
}

func (s *service) Consolidate(statements []domain.ParsedStatement) domain.ConsolidatedHoldings {
	return Consolidate(statements)
}

// Consolidate sums balances per label across statements. Equal labels from
// different statements are added, never merged by instrument.
func Consolidate(statements []domain.ParsedStatement) domain.ConsolidatedHoldings {
	holdings := domain.ConsolidatedHoldings{
		TotalsByClass: make(map[string]decimal.Decimal),
		GrandTotal:    decimal.Zero,
		ImpliedFees:   make(map[string]decimal.Decimal),
	}

	for _, st := range statements {
		for label, value := range st.Balances {
			holdings.TotalsByClass[label] = holdings.TotalsByClass[label].Add(value)
			holdings.GrandTotal = holdings.GrandTotal.Add(value)
		}
		for label, value := range st.Fees {
			holdings.ImpliedFees[label] = holdings.ImpliedFees[label].Add(value)
		}
	}
	return holdings
}

// Describe renders statements and their consolidation as prompt text. It
// returns an empty string when there are no statements.
func Describe(statements []domain.ParsedStatement, holdings domain.ConsolidatedHoldings) string {
	if len(statements) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Extratos processados: %d\n", len(statements))

	for _, st := range statements {
		sb.WriteString("\n")
		if st.SourceFile != "" {
			fmt.Fprintf(&sb, "### %s (%s, %s)\n", st.Category, st.SourceFile, st.ExtractionDate)
		} else {
			fmt.Fprintf(&sb, "### %s (%s)\n", st.Category, st.ExtractionDate)
		}
		writeAmounts(&sb, st.Balances, money.FormatBRL)
		if len(st.Fees) > 0 {
			sb.WriteString("Taxas:\n")
			writeAmounts(&sb, st.Fees, money.FormatPercent)
		}
	}

	sb.WriteString("\n**Totais por classe:**\n")
	writeAmounts(&sb, holdings.TotalsByClass, money.FormatBRL)
	fmt.Fprintf(&sb, "\n**Total geral:** %s\n", money.FormatBRL(holdings.GrandTotal))

	if len(holdings.ImpliedFees) > 0 {
		sb.WriteString("\n**Taxas implícitas:**\n")
		writeAmounts(&sb, holdings.ImpliedFees, money.FormatPercent)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeAmounts(sb *strings.Builder, values map[string]decimal.Decimal, format func(decimal.Decimal) string) {
	labels := make([]string, 0, len(values))
	for label := range values {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(sb, "- %s: %s\n", label, format(values[label]))
	}
}
