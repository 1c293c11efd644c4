// package domain/models.go
package domain

import (
	"github.com/shopspring/decimal"
)

// StatementCategory identifies the kind of institution a statement came from.
type StatementCategory string

// Constants for statement categories.
const (
	CategoryTreasury  StatementCategory = "Tesouro"
	CategoryBrokerage StatementCategory = "Corretora"
	CategoryBank      StatementCategory = "Banco"
	CategoryPension   StatementCategory = "Previdência"
	CategoryOther     StatementCategory = "Outro"
)

// Categories lists every category in classification precedence order.
var Categories = []StatementCategory{
	CategoryTreasury,
	CategoryBrokerage,
	CategoryBank,
	CategoryPension,
	CategoryOther,
}

// --- Modelos de Extratos ---

// InputFile is an uploaded statement or audio file held in memory.
type InputFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Size returns the payload length in bytes.
func (f InputFile) Size() int64 {
	return int64(len(f.Data))
}

// ParsedStatement is the normalized view of a single uploaded statement.
// Balances are amounts in BRL, fees and performance are percentages.
type ParsedStatement struct {
	Category       StatementCategory          `json:"tipo"`
	ExtractionDate string                     `json:"dataExtracao"`
	Balances       map[string]decimal.Decimal `json:"saldos"`
	Fees           map[string]decimal.Decimal `json:"taxas,omitempty"`
	Costs          map[string]decimal.Decimal `json:"custos,omitempty"`
	Performance    map[string]decimal.Decimal `json:"desempenho,omitempty"`
	SourceFile     string                     `json:"arquivo,omitempty"`
}

// HasBalances reports whether at least one balance was extracted.
func (p ParsedStatement) HasBalances() bool {
	return len(p.Balances) > 0
}

// ConsolidatedHoldings sums balances and fees across statements.
// GrandTotal always equals the sum of TotalsByClass.
type ConsolidatedHoldings struct {
	TotalsByClass map[string]decimal.Decimal `json:"totalPorClasse"`
	GrandTotal    decimal.Decimal            `json:"totalGeral"`
	ImpliedFees   map[string]decimal.Decimal `json:"taxasImplicitas"`
}

// FileStatus is the outcome of processing one uploaded file.
type FileStatus string

const (
	FileParsed  FileStatus = "processado"
	FileSkipped FileStatus = "ignorado"
	FileFailed  FileStatus = "erro"
)

// FileReport describes what happened to one uploaded file.
type FileReport struct {
	FileName string            `json:"arquivo"`
	Status   FileStatus        `json:"status"`
	Category StatementCategory `json:"tipo,omitempty"`
	Reason   string            `json:"motivo,omitempty"`
}

// Questionnaire holds the free-form answers of the intake wizard.
type Questionnaire map[string]any
