package market

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"diagnosis-service/internal/domain"
)

const (
	timestampLayout  = "2006-01-02T15:04:05.000Z07:00"
	anbimaExcerptLen = 200
)

// FormatSnapshot renders the snapshot as the market context block of the prompt.
func FormatSnapshot(s domain.MarketSnapshot) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## CONTEXTO DE MERCADO (%s)\n\n", s.Timestamp.UTC().Format(timestampLayout))
	fmt.Fprintf(&sb, "**Taxa Selic:** %.2f%% a.a. (%s)\n", s.Selic.Value, s.Selic.Date)
	fmt.Fprintf(&sb, "**CDI:** %.2f%% a.a. (%s)\n", s.CDI.Value, s.CDI.Date)
	fmt.Fprintf(&sb, "**IPCA:** %.2f%% (%s)\n", s.IPCA.Value, s.IPCA.Date)
	fmt.Fprintf(&sb, "**USD/BRL (PTAX venda):** R$ %.4f (%s)\n", s.USDBRL.Value, s.USDBRL.Date)
	fmt.Fprintf(&sb, "**IBOV:** %.0f pts (variação: %s)\n\n", s.Ibov.Value, signedPercent(s.Ibov.ChangePercent))
	sb.WriteString("Use esses dados como benchmark, referência de taxa de desconto e expectativas de retorno.")

	if s.Anbima != nil {
		sb.WriteString("\n\n**Índices ANBIMA:**\n")
		fmt.Fprintf(&sb, "- IMA: %s...\n", excerpt(s.Anbima.IMA))
		fmt.Fprintf(&sb, "- IDA: %s...\n", excerpt(s.Anbima.IDA))
		fmt.Fprintf(&sb, "- IHFA: %s...\n", excerpt(s.Anbima.IHFA))
		fmt.Fprintf(&sb, "- IDkA: %s...", excerpt(s.Anbima.IDKA))
	}
	return sb.String()
}

func signedPercent(v float64) string {
	if v > 0 {
		return fmt.Sprintf("+%.2f%%", v)
	}
	return fmt.Sprintf("%.2f%%", v)
}

// excerpt compacts a raw feed and keeps its first characters.
func excerpt(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	text := string(raw)
	if err := json.Compact(&buf, raw); err == nil {
		text = buf.String()
	}
	runes := []rune(text)
	if len(runes) > anbimaExcerptLen {
		runes = runes[:anbimaExcerptLen]
	}
	return string(runes)
}
