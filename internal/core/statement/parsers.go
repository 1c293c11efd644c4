// package statement/parsers.go
package statement

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"diagnosis-service/internal/core/money"
	"diagnosis-service/internal/domain"

	"github.com/shopspring/decimal"
)

// Parser maps the raw text of a classified statement to balances and fees.
// Implementations never fail: a pattern that does not match leaves its key unset.
type Parser interface {
	Category() domain.StatementCategory
	Parse(text string) domain.ParsedStatement
}

const extractionDateLayout = "2006-01-02"

// labelWindow is how many characters before a Treasury match are searched for the bond label.
const labelWindow = 50

var parsers = map[domain.StatementCategory]Parser{
	domain.CategoryTreasury:  treasuryParser{},
	domain.CategoryBrokerage: brokerageParser{},
	domain.CategoryBank:      bankParser{},
	domain.CategoryPension:   pensionParser{},
	domain.CategoryOther:     genericParser{},
}

// ParserFor returns the parser registered for a category. Unknown categories
// fall back to the generic parser.
func ParserFor(category domain.StatementCategory) Parser {
	if p, ok := parsers[category]; ok {
		return p
	}
	return genericParser{}
}

// ParseText classifies the text and runs the matching parser.
func ParseText(text string, now time.Time) domain.ParsedStatement {
	parsed := ParserFor(Classify(text)).Parse(text)
	parsed.ExtractionDate = now.Format(extractionDateLayout)
	return parsed
}

func newStatement(category domain.StatementCategory) domain.ParsedStatement {
	return domain.ParsedStatement{
		Category: category,
		Balances: make(map[string]decimal.Decimal),
	}
}

type labeledPattern struct {
	label string
	re    *regexp.Regexp
}

// sectionPattern builds "<label> ... [R$ ]<number>" where the number is the first one after the label.
func sectionPattern(label, expr string) labeledPattern {
	return labeledPattern{
		label: label,
		re:    regexp.MustCompile(`(?i)` + expr + `\s+[\s\S]*?(?:R\$\s+)?([0-9][0-9.,]*)`),
	}
}

// extractSections stores the first match of every pattern in dst. Malformed
// amounts are skipped.
func extractSections(text string, patterns []labeledPattern, dst map[string]decimal.Decimal) {
	for _, p := range patterns {
		m := p.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		value, err := money.Parse(m[1])
		if err != nil {
			continue
		}
		dst[p.label] = value
	}
}

// ---------------------- Tesouro Direto ----------------------

type treasuryPattern struct {
	title string
	re    *regexp.Regexp
}

var treasuryPatterns = []treasuryPattern{
	{"Tesouro IPCA", regexp.MustCompile(`Tesouro IPCA\+?\s+(\d{2}/\d{2}/\d{4})\s+.*?[\s$]+([0-9][0-9.,]*)`)},
	{"Tesouro Prefixado", regexp.MustCompile(`Tesouro Prefixado\s+(\d{2}/\d{2}/\d{4})\s+.*?[\s$]+([0-9][0-9.,]*)`)},
	{"Tesouro Selic", regexp.MustCompile(`Tesouro Selic\s+.*?[\s$]+([0-9][0-9.,]*)`)},
}

type treasuryParser struct{}

func (treasuryParser) Category() domain.StatementCategory { return domain.CategoryTreasury }

// Parse keys every bond by the line preceding it. When nothing precedes the
// bond on its line, the title and maturity are used instead.
func (treasuryParser) Parse(text string) domain.ParsedStatement {
	st := newStatement(domain.CategoryTreasury)

	for _, p := range treasuryPatterns {
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			last := len(loc) - 2
			value, err := money.Parse(text[loc[last]:loc[last+1]])
			if err != nil || !value.IsPositive() {
				continue
			}

			label := precedingLine(text, loc[0], labelWindow)
			if label == "" {
				label = p.title
				if len(loc) == 6 {
					label += " " + text[loc[2]:loc[3]]
				}
			}
			st.Balances[label] = value
		}
	}
	return st
}

// precedingLine returns the last line of the window characters before pos.
func precedingLine(text string, pos, window int) string {
	start := pos
	for i := 0; i < window && start > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:start])
		start -= size
	}
	chunk := text[start:pos]
	if idx := strings.LastIndex(chunk, "\n"); idx >= 0 {
		chunk = chunk[idx+1:]
	}
	return strings.TrimSpace(chunk)
}

// ---------------------- Corretora ----------------------

var (
	brokeragePatterns = []labeledPattern{
		sectionPattern("Renda Fixa", `Renda\s+Fixa`),
		sectionPattern("Renda Variável", `Renda\s+Vari[aá]vel`),
		sectionPattern("Fundos", `Fundos?`),
	}
	brokerageFeeRegex = regexp.MustCompile(`(?i)Taxa\s+(?:de\s+)?(?:administra[çc][ãa]o|corretagem)\s*:?\s*([0-9][0-9.,]*)\s*%`)
)

type brokerageParser struct{}

func (brokerageParser) Category() domain.StatementCategory { return domain.CategoryBrokerage }

func (brokerageParser) Parse(text string) domain.ParsedStatement {
	st := newStatement(domain.CategoryBrokerage)
	extractSections(text, brokeragePatterns, st.Balances)

	if m := brokerageFeeRegex.FindStringSubmatch(text); m != nil {
		if fee, err := money.ParsePercent(m[1]); err == nil {
			st.Fees = map[string]decimal.Decimal{"Taxa de Administração": fee}
		}
	}
	return st
}

// ---------------------- Banco ----------------------

var bankPatterns = []labeledPattern{
	sectionPattern("CDB", `CDB`),
	sectionPattern("LCI", `LCI`),
	sectionPattern("LCA", `LCA`),
	sectionPattern("Aplicações", `(?:Saldo|Aplica[çc][ãa]o|Poupan[çc]a)`),
}

type bankParser struct{}

func (bankParser) Category() domain.StatementCategory { return domain.CategoryBank }

func (bankParser) Parse(text string) domain.ParsedStatement {
	st := newStatement(domain.CategoryBank)
	extractSections(text, bankPatterns, st.Balances)
	return st
}

// ---------------------- Previdência ----------------------

const pensionTotalLabel = "Previdência Privada"

var pensionPatterns = []labeledPattern{
	sectionPattern(pensionTotalLabel, `(?:Saldo\s+)?Total`),
}

type pensionParser struct{}

func (pensionParser) Category() domain.StatementCategory { return domain.CategoryPension }

// Parse stores the plan total under both the generic key and the plan kind
// (PGBL, VGBL or Previdência). The plan kind is always set, with 0 when no
// total was found.
func (pensionParser) Parse(text string) domain.ParsedStatement {
	st := newStatement(domain.CategoryPension)
	extractSections(text, pensionPatterns, st.Balances)

	total, ok := st.Balances[pensionTotalLabel]
	if !ok {
		total = decimal.Zero
	}

	upper := strings.ToUpper(text)
	kind := "Previdência"
	switch {
	case strings.Contains(upper, "PGBL"):
		kind = "PGBL"
	case strings.Contains(upper, "VGBL"):
		kind = "VGBL"
	}
	st.Balances[kind] = total
	return st
}

// ---------------------- Genérico ----------------------

const genericBalanceLabel = "Aplicações"

var currencyAmountRegex = regexp.MustCompile(`R\$\s+([0-9][0-9.,]*)`)

type genericParser struct{}

func (genericParser) Category() domain.StatementCategory { return domain.CategoryOther }

// Parse sums every "R$ <amount>" in the text under a single balance.
func (genericParser) Parse(text string) domain.ParsedStatement {
	st := newStatement(domain.CategoryOther)

	found := false
	sum := decimal.Zero
	for _, m := range currencyAmountRegex.FindAllStringSubmatch(text, -1) {
		value, err := money.Parse(m[1])
		if err != nil {
			continue
		}
		sum = sum.Add(value)
		found = true
	}
	if found {
		st.Balances[genericBalanceLabel] = sum
	}
	return st
}
