package statement

import (
	"testing"
	"time"

	"diagnosis-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmounts(t *testing.T, want map[string]string, got map[string]decimal.Decimal) {
	t.Helper()
	require.Len(t, got, len(want), "got %v", got)
	for label, value := range want {
		v, ok := got[label]
		require.True(t, ok, "missing label %q in %v", label, got)
		assert.True(t, dec(value).Equal(v), "%s: got %s, want %s", label, v, value)
	}
}

func TestTreasuryParser(t *testing.T) {
	text := "Extrato Tesouro Direto\n" +
		"Tesouro IPCA 15/05/2035 R$ 12.345,67\n" +
		"Minha reserva: Tesouro Selic 2029 R$ 5.000,00\n" +
		"Tesouro Prefixado 01/01/2027 R$ 0,00\n"

	got := ParserFor(domain.CategoryTreasury).Parse(text)

	assert.Equal(t, domain.CategoryTreasury, got.Category)
	assertAmounts(t, map[string]string{
		"Tesouro IPCA 15/05/2035": "12345.67",
		"Minha reserva:":          "5000",
	}, got.Balances)
}

func TestBrokerageParser(t *testing.T) {
	text := "XP Investimentos Corretora\n" +
		"Renda Fixa R$ 10.000,00\n" +
		"Renda Variável R$ 25.500,50\n" +
		"Fundos R$ 5.000,00\n" +
		"Taxa de administração: 0,50%\n"

	got := ParserFor(domain.CategoryBrokerage).Parse(text)

	assertAmounts(t, map[string]string{
		"Renda Fixa":     "10000",
		"Renda Variável": "25500.50",
		"Fundos":         "5000",
	}, got.Balances)
	assertAmounts(t, map[string]string{"Taxa de Administração": "0.5"}, got.Fees)
}

func TestBankParser(t *testing.T) {
	text := "Banco Exemplo S.A.\n" +
		"CDB Pós-fixado R$ 50.000,00\n" +
		"LCI R$ 20.000,00\n"

	got := ParserFor(domain.CategoryBank).Parse(text)

	assertAmounts(t, map[string]string{
		"CDB": "50000",
		"LCI": "20000",
	}, got.Balances)
	assert.Nil(t, got.Fees)
}

func TestPensionParser(t *testing.T) {
	tests := []struct {
		name string
		text string
		want map[string]string
	}{
		{
			name: "pgbl",
			text: "Plano PGBL\nSaldo Total R$ 80.000,00",
			want: map[string]string{"Previdência Privada": "80000", "PGBL": "80000"},
		},
		{
			name: "vgbl",
			text: "Plano VGBL\nTotal R$ 12.000,00",
			want: map[string]string{"Previdência Privada": "12000", "VGBL": "12000"},
		},
		{
			name: "generic plan",
			text: "Previdência complementar\nSaldo Total R$ 1.000,00",
			want: map[string]string{"Previdência Privada": "1000", "Previdência": "1000"},
		},
		{
			name: "no total keeps the plan at zero",
			text: "Plano PGBL sem posição",
			want: map[string]string{"PGBL": "0"},
		},
		{
			name: "plan kind is case-insensitive",
			text: "Plano vgbl\nSaldo Total R$ 500,00",
			want: map[string]string{"Previdência Privada": "500", "VGBL": "500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParserFor(domain.CategoryPension).Parse(tt.text)
			assertAmounts(t, tt.want, got.Balances)
		})
	}
}

func TestGenericParser(t *testing.T) {
	got := ParserFor(domain.CategoryOther).Parse("Relatório\nItem A R$ 1.000,00\nItem B R$ 2.500,50\n")
	assertAmounts(t, map[string]string{"Aplicações": "3500.50"}, got.Balances)

	empty := ParserFor(domain.CategoryOther).Parse("nada por aqui")
	assert.Empty(t, empty.Balances)
}

func TestParsers_NoMatchesNeverFail(t *testing.T) {
	for _, category := range domain.Categories {
		t.Run(string(category), func(t *testing.T) {
			got := ParserFor(category).Parse("")
			assert.Equal(t, category, got.Category)
			assert.NotNil(t, got.Balances)
			assert.Empty(t, got.Balances)
		})
	}
}

func TestParseText(t *testing.T) {
	now := time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC)

	got := ParseText("Banco Exemplo\nCDB R$ 50.000,00", now)

	assert.Equal(t, domain.CategoryBank, got.Category)
	assert.Equal(t, "2026-10-19", got.ExtractionDate)
	assertAmounts(t, map[string]string{"CDB": "50000"}, got.Balances)
}
