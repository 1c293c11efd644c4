package statement

import (
	"testing"

	"diagnosis-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExtract_PlainText(t *testing.T) {
	text, err := NewExtractor().Extract(domain.InputFile{
		Name:        "extrato.txt",
		ContentType: "text/plain; charset=utf-8",
		Data:        []byte("Banco Exemplo\nCDB R$ 50.000,00"),
	})

	require.NoError(t, err)
	assert.Equal(t, "Banco Exemplo\nCDB R$ 50.000,00", text)
}

func TestExtract_Latin1Text(t *testing.T) {
	// "Previdência" encoded as ISO-8859-1
	data := []byte("Previd\xeancia Privada")

	text, err := NewExtractor().Extract(domain.InputFile{Name: "prev.txt", ContentType: "text/plain", Data: data})

	require.NoError(t, err)
	assert.Equal(t, "Previdência Privada", text)
}

func TestExtract_Image(t *testing.T) {
	_, err := NewExtractor().Extract(domain.InputFile{Name: "foto.png", ContentType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}})
	assert.ErrorIs(t, err, ErrImageNotSupported)
}

func TestExtract_Unsupported(t *testing.T) {
	_, err := NewExtractor().Extract(domain.InputFile{Name: "arquivo.bin", ContentType: "application/x-custom", Data: []byte{0x00, 0x01}})
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestExtract_EmptyText(t *testing.T) {
	_, err := NewExtractor().Extract(domain.InputFile{Name: "vazio.txt", ContentType: "text/plain", Data: []byte("   \n")})
	assert.ErrorIs(t, err, ErrEmptyText)
}

func TestExtract_CorruptPDF(t *testing.T) {
	_, err := NewExtractor().Extract(domain.InputFile{Name: "quebrado.pdf", ContentType: "application/pdf", Data: []byte("isto não é um pdf")})
	assert.Error(t, err)
}

func TestExtract_Spreadsheet(t *testing.T) {
	f := excelize.NewFile()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Banco Exemplo"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "CDB"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "R$ 50.000,00"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	text, err := NewExtractor().Extract(domain.InputFile{
		Name:        "posicao.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        buf.Bytes(),
	})

	require.NoError(t, err)
	assert.Equal(t, "Banco Exemplo\nCDB R$ 50.000,00\n", text)
}

func TestDetectKind(t *testing.T) {
	tests := []struct {
		name string
		file domain.InputFile
		want fileKind
	}{
		{"declared pdf", domain.InputFile{Name: "a", ContentType: "application/pdf"}, kindPDF},
		{"declared csv", domain.InputFile{Name: "a", ContentType: "text/csv"}, kindText},
		{"declared jpeg", domain.InputFile{Name: "a", ContentType: "image/jpeg"}, kindImage},
		{"sniffed pdf", domain.InputFile{Name: "a", ContentType: "application/octet-stream", Data: []byte("%PDF-1.4\n%...")}, kindPDF},
		{"extension fallback", domain.InputFile{Name: "planilha.XLS"}, kindSpreadsheet},
		{"unknown", domain.InputFile{Name: "a.bin"}, kindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectKind(tt.file))
		})
	}
}
