package statement

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"diagnosis-service/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC) }

func textFile(name, content string) domain.InputFile {
	return domain.InputFile{Name: name, ContentType: "text/plain", Data: []byte(content)}
}

func TestService_ProcessMultiple_ContainsFailures(t *testing.T) {
	svc := NewService(zap.NewNop(), WithClock(fixedNow))

	files := []domain.InputFile{
		textFile("banco.txt", "Banco Exemplo\nCDB R$ 50.000,00"),
		{Name: "quebrado.pdf", ContentType: "application/pdf", Data: []byte("corrompido")},
		textFile("corretora.txt", "Corretora Clear\nRenda Fixa R$ 10.000,00"),
	}

	got := svc.ProcessMultiple(context.Background(), files)

	require.Len(t, got, 2)
	assert.Equal(t, domain.CategoryBank, got[0].Category)
	assert.Equal(t, "banco.txt", got[0].SourceFile)
	assert.Equal(t, "2026-10-19", got[0].ExtractionDate)
	assert.Equal(t, domain.CategoryBrokerage, got[1].Category)
}

func TestService_ProcessWithReport(t *testing.T) {
	svc := NewService(zap.NewNop(), WithClock(fixedNow))

	files := []domain.InputFile{
		textFile("banco.txt", "Banco Exemplo\nCDB R$ 50.000,00"),
		{Name: "foto.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8}},
		textFile("vazio.txt", "nenhum valor"),
		{Name: "quebrado.pdf", ContentType: "application/pdf", Data: []byte("corrompido")},
	}

	statements, reports := svc.ProcessWithReport(context.Background(), files)

	require.Len(t, statements, 1)
	require.Len(t, reports, 4)
	assert.Equal(t, domain.FileParsed, reports[0].Status)
	assert.Equal(t, domain.CategoryBank, reports[0].Category)
	assert.Equal(t, domain.FileSkipped, reports[1].Status)
	assert.Equal(t, domain.FileSkipped, reports[2].Status)
	assert.Equal(t, domain.FileFailed, reports[3].Status)
	assert.NotEmpty(t, reports[3].Reason)
}

type panickingExtractor struct{}

func (panickingExtractor) Extract(domain.InputFile) (string, error) {
	panic("boom")
}

func TestService_Process_RecoversFromPanics(t *testing.T) {
	svc := NewService(zap.NewNop(), WithExtractor(panickingExtractor{}))

	_, err := svc.Process(context.Background(), textFile("a.txt", "x"))
	require.Error(t, err)

	got := svc.ProcessMultiple(context.Background(), []domain.InputFile{textFile("a.txt", "x")})
	assert.Empty(t, got)
}

func TestService_Process_NoBalances(t *testing.T) {
	svc := NewService(zap.NewNop())
	_, err := svc.Process(context.Background(), textFile("a.txt", "sem valores"))
	assert.True(t, errors.Is(err, ErrNoBalances))
}

func TestService_ProcessMultiple_KeepsPensionWithoutTotal(t *testing.T) {
	svc := NewService(zap.NewNop(), WithClock(fixedNow))

	got := svc.ProcessMultiple(context.Background(), []domain.InputFile{textFile("prev.txt", "Plano PGBL sem posição")})

	require.Len(t, got, 1)
	assert.Equal(t, domain.CategoryPension, got[0].Category)
	assert.True(t, decimal.Zero.Equal(got[0].Balances["PGBL"]))
}

func TestService_ProcessMultiple_CancelledContext(t *testing.T) {
	svc := NewService(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := svc.ProcessMultiple(ctx, []domain.InputFile{textFile("banco.txt", "Banco\nCDB R$ 1,00")})
	assert.Empty(t, got)
}

func bankStatement(values map[string]string) domain.ParsedStatement {
	st := domain.ParsedStatement{Category: domain.CategoryBank, Balances: map[string]decimal.Decimal{}}
	for k, v := range values {
		st.Balances[k] = dec(v)
	}
	return st
}

func TestConsolidate_SumsEqualLabels(t *testing.T) {
	statements := []domain.ParsedStatement{
		bankStatement(map[string]string{"CDB": "50000"}),
		bankStatement(map[string]string{"CDB": "50000"}),
	}

	got := Consolidate(statements)

	assert.True(t, dec("100000").Equal(got.TotalsByClass["CDB"]))
	assert.True(t, dec("100000").Equal(got.GrandTotal))
}

func TestConsolidate_TotalsAndFees(t *testing.T) {
	brokerage := domain.ParsedStatement{
		Category: domain.CategoryBrokerage,
		Balances: map[string]decimal.Decimal{"Renda Fixa": dec("10000.10"), "Fundos": dec("5000")},
		Fees:     map[string]decimal.Decimal{"Taxa de Administração": dec("0.5")},
	}
	other := domain.ParsedStatement{
		Category: domain.CategoryBrokerage,
		Balances: map[string]decimal.Decimal{"Renda Fixa": dec("0.20")},
		Fees:     map[string]decimal.Decimal{"Taxa de Administração": dec("0.3")},
	}

	got := Consolidate([]domain.ParsedStatement{brokerage, other, bankStatement(map[string]string{"LCI": "20000"})})

	assert.True(t, dec("10000.30").Equal(got.TotalsByClass["Renda Fixa"]))
	assert.True(t, dec("5000").Equal(got.TotalsByClass["Fundos"]))
	assert.True(t, dec("20000").Equal(got.TotalsByClass["LCI"]))
	assert.True(t, dec("0.8").Equal(got.ImpliedFees["Taxa de Administração"]))

	sum := decimal.Zero
	for _, v := range got.TotalsByClass {
		sum = sum.Add(v)
	}
	assert.True(t, sum.Equal(got.GrandTotal))
}

func TestConsolidate_OrderIndependent(t *testing.T) {
	statements := []domain.ParsedStatement{
		bankStatement(map[string]string{"CDB": "0.1", "LCA": "1234.56"}),
		bankStatement(map[string]string{"CDB": "0.2"}),
		bankStatement(map[string]string{"Aplicações": "999.99", "LCA": "0.01"}),
		bankStatement(map[string]string{"CDB": "0.3"}),
	}
	want := Consolidate(statements)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]domain.ParsedStatement(nil), statements...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := Consolidate(shuffled)
		assert.True(t, want.GrandTotal.Equal(got.GrandTotal))
		require.Len(t, got.TotalsByClass, len(want.TotalsByClass))
		for label, v := range want.TotalsByClass {
			assert.True(t, v.Equal(got.TotalsByClass[label]), label)
		}
	}
}

func TestConsolidate_Empty(t *testing.T) {
	got := Consolidate(nil)
	assert.Empty(t, got.TotalsByClass)
	assert.True(t, got.GrandTotal.IsZero())
}

func TestDescribe(t *testing.T) {
	statements := []domain.ParsedStatement{
		{
			Category:       domain.CategoryBank,
			ExtractionDate: "2026-10-19",
			SourceFile:     "banco.pdf",
			Balances:       map[string]decimal.Decimal{"LCI": dec("20000"), "CDB": dec("50000")},
		},
	}

	got := Describe(statements, Consolidate(statements))

	assert.Equal(t, "Extratos processados: 1\n\n"+
		"### Banco (banco.pdf, 2026-10-19)\n"+
		"- CDB: R$ 50.000,00\n"+
		"- LCI: R$ 20.000,00\n\n"+
		"**Totais por classe:**\n"+
		"- CDB: R$ 50.000,00\n"+
		"- LCI: R$ 20.000,00\n\n"+
		"**Total geral:** R$ 70.000,00", got)

	assert.Empty(t, Describe(nil, Consolidate(nil)))
}
