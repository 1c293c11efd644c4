package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Text is a lenient string: it also accepts numbers, booleans and null,
// since the model does not always respect the requested types.
type Text string

func (t *Text) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*t = ""
		return nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}
	*t = Text(raw)
	return nil
}

// Percent accepts 25, "25", "25%" and "25,5". Anything else decodes as 0.
type Percent float64

func (p *Percent) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		*p = 0
		return nil
	}
	s := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
		s = strings.Replace(s, ",", ".", 1)
		if s == "" {
			*p = 0
			return nil
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// ranges such as "20-25%" decode as 0
		*p = 0
		return nil
	}
	*p = Percent(f)
	return nil
}

// --- Modelos do Diagnóstico ---

// IPS is the investment policy statement summary.
type IPS struct {
	Profile         Text `json:"perfil"`
	Horizon         Text `json:"horizonte"`
	Goal            Text `json:"objetivo"`
	FinancialAssets Text `json:"patrimonioFinanceiro"`
	ExpectedReturn  Text `json:"retornoEsperado"`
	MaxDrawdown     Text `json:"drawdownMaximo"`
	NextReview      Text `json:"proximaRevisao"`
	Benchmark       Text `json:"benchmark"`
}

// Behavioral is the behavioural profile derived from the personal narrative.
type Behavioral struct {
	EmotionalPattern Text `json:"padraoEmocional"`
	Biases           Text `json:"viesesIdentificados"`
	Inconsistencies  Text `json:"inconsistencias"`
	Guideline        Text `json:"diretriz"`
}

type CurrentHolding struct {
	Asset   Text    `json:"ativo"`
	Class   Text    `json:"classe"`
	Percent Percent `json:"pct"`
}

type CashFlow struct {
	SavingsCapacity Text `json:"capacidadeAporte"`
	Leaks           Text `json:"vazamentos"`
	SafetyMargin    Text `json:"margemSeguranca"`
}

type AllocationSlice struct {
	Name  Text    `json:"nome"`
	Value Percent `json:"value"`
}

type AllocationComparison struct {
	Class   Text    `json:"classe"`
	Current Percent `json:"atual"`
	Target  Percent `json:"alvo"`
}

type FinalHolding struct {
	Asset   Text    `json:"ativo"`
	Ticker  Text    `json:"ticker"`
	Class   Text    `json:"classe"`
	Percent Percent `json:"pct"`
	Amount  Text    `json:"valor"`
}

type Move struct {
	Position      Text `json:"posicao"`
	Amount        Text `json:"valor"`
	Action        Text `json:"acao"`
	Destination   Text `json:"destino"`
	Justification Text `json:"justificativa"`
	Timing        Text `json:"timing"`
}

type Parameters struct {
	NominalReturn      Text `json:"retornoNominal"`
	RealReturn         Text `json:"retornoReal"`
	MaxDrawdown        Text `json:"drawdownMaximo"`
	Rebalancing        Text `json:"rebalanceamento"`
	ContributionPolicy Text `json:"estrategiaAportes"`
}

type ProtectionShield struct {
	CoverageIndex   Text `json:"indiceCobertura"`
	Analysis        Text `json:"analise"`
	Recommendations Text `json:"recomendacoes"`
}

type RiskMitigant struct {
	Risk     Text `json:"risco"`
	Mitigant Text `json:"mitigante"`
}

// Diagnosis is the structured report returned by the model. Every section
// is optional; an absent section is simply not rendered.
type Diagnosis struct {
	IPS               *IPS                   `json:"ips,omitempty"`
	Behavioral        *Behavioral            `json:"comportamental,omitempty"`
	CurrentPortfolio  []CurrentHolding       `json:"carteiraAtual,omitempty"`
	CriticalAlerts    []Text                 `json:"alertasCriticos,omitempty"`
	CashFlow          *CashFlow              `json:"fluxoCaixa,omitempty"`
	TargetAllocation  []AllocationSlice      `json:"carteiraAlvo,omitempty"`
	Comparison        []AllocationComparison `json:"comparativo,omitempty"`
	FinalPortfolio    []FinalHolding         `json:"carteiraFinal,omitempty"`
	Moves             []Move                 `json:"movimentacoes,omitempty"`
	Parameters        *Parameters            `json:"parametros,omitempty"`
	TaxStrategy       []Text                 `json:"estrategiaTributaria,omitempty"`
	ProtectionShield  *ProtectionShield      `json:"escudoPatrimonial,omitempty"`
	RisksAndMitigants []RiskMitigant         `json:"riscosEMitigantes,omitempty"`
	FollowUp          []Text                 `json:"followUp,omitempty"`
}

// MissingSections lists the report sections the model did not return,
// in report order.
func (d *Diagnosis) MissingSections() []string {
	checks := []struct {
		name    string
		present bool
	}{
		{"ips", d.IPS != nil},
		{"comportamental", d.Behavioral != nil},
		{"carteiraAtual", len(d.CurrentPortfolio) > 0},
		{"alertasCriticos", len(d.CriticalAlerts) > 0},
		{"fluxoCaixa", d.CashFlow != nil},
		{"carteiraAlvo", len(d.TargetAllocation) > 0},
		{"comparativo", len(d.Comparison) > 0},
		{"carteiraFinal", len(d.FinalPortfolio) > 0},
		{"movimentacoes", len(d.Moves) > 0},
		{"parametros", d.Parameters != nil},
		{"estrategiaTributaria", len(d.TaxStrategy) > 0},
		{"escudoPatrimonial", d.ProtectionShield != nil},
		{"riscosEMitigantes", len(d.RisksAndMitigants) > 0},
		{"followUp", len(d.FollowUp) > 0},
	}

	var missing []string
	for _, c := range checks {
		if !c.present {
			missing = append(missing, c.name)
		}
	}
	return missing
}
