package diagnosis

import (
	"strings"
	"testing"

	"diagnosis-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

func TestBuildUserMessage_NoFilesNoNarrative(t *testing.T) {
	q := domain.Questionnaire{
		"rendaBruta":           "R$ 10.000,00",
		"patrimonioFinanceiro": "R$ 500.000,00",
	}

	got := BuildUserMessage(PromptInput{
		MarketContext: "## CONTEXTO DE MERCADO (x)",
		Answers:       SelectAnswers(q),
	})

	want := "## CONTEXTO DE MERCADO (x)\n\n" +
		"## DADOS DO CLIENTE\n\n" +
		"- rendaBruta: R$ 10.000,00\n" +
		"- patrimonioFinanceiro: R$ 500.000,00\n" +
		"\n## CARTEIRA ATUAL\nSem extratos enviados. Gere carteira do zero com alocação prudente.\n" +
		"\n## RELATO PESSOAL\nNão fornecido. Retorne comportamental: null.\n"
	assert.Equal(t, want, got)
}

func TestBuildUserMessage_WithHoldingsAndNarrative(t *testing.T) {
	got := BuildUserMessage(PromptInput{
		MarketContext:       "CTX",
		HoldingsDescription: "Extratos processados: 1",
		Narrative:           "Vendi tudo em 2020 quando a bolsa caiu.",
	})

	assert.Contains(t, got, "\n## CARTEIRA ATUAL\nExtratos processados: 1\n")
	assert.Contains(t, got, "\n## RELATO PESSOAL (COMPORTAMENTAL)\nVendi tudo em 2020 quando a bolsa caiu.\n")
	assert.NotContains(t, got, "Sem extratos enviados")
	assert.NotContains(t, got, "Não fornecido")
}

func TestBuildUserMessage_BlankNarrativeIsAbsent(t *testing.T) {
	got := BuildUserMessage(PromptInput{Narrative: "  \n "})
	assert.True(t, strings.HasSuffix(got, noNarrativeSection))
}

func TestSystemPrompt_ListsEverySection(t *testing.T) {
	for _, section := range []string{
		"ips", "comportamental", "carteiraAtual", "alertasCriticos", "fluxoCaixa",
		"carteiraAlvo", "comparativo", "carteiraFinal", "movimentacoes", "parametros",
		"estrategiaTributaria", "escudoPatrimonial", "riscosEMitigantes", "followUp",
	} {
		assert.Contains(t, SystemPrompt(), `"`+section+`"`)
	}
}
