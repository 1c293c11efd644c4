// package statement/extractor.go
package statement

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"diagnosis-service/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

var (
	ErrUnsupportedFileType = errors.New("tipo de arquivo não suportado")
	ErrImageNotSupported   = errors.New("arquivo de imagem não suportado: OCR não implementado")
	ErrEmptyText           = errors.New("nenhum texto extraído do arquivo")
)

type fileKind int

const (
	kindUnknown fileKind = iota
	kindPDF
	kindText
	kindSpreadsheet
	kindImage
)

// Extractor turns an uploaded file into raw text.
type Extractor interface {
	Extract(file domain.InputFile) (string, error)
}

type extractor struct{}

// NewExtractor creates the default extractor (PDF, text, XLSX/XLS).
func NewExtractor() Extractor {
	return &extractor{}
}

func (e *extractor) Extract(file domain.InputFile) (string, error) {
	var (
		text string
		err  error
	)

	switch detectKind(file) {
	case kindPDF:
		text, err = extractPDF(file.Data)
	case kindText:
		text = decodeText(file.Data)
	case kindSpreadsheet:
		text, err = extractSpreadsheet(file.Data)
	case kindImage:
		return "", ErrImageNotSupported
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, file.ContentType)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	return text, nil
}

// ---------------------- detecção de tipo ----------------------

var spreadsheetTypes = map[string]bool{
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": true,
	"application/vnd.ms-excel":                                          true,
	"application/x-ole-storage":                                         true,
}

// detectKind trusts the declared content type unless it is missing or
// generic, in which case the payload is sniffed and then the extension is used.
func detectKind(file domain.InputFile) fileKind {
	if kind := kindFromMIME(file.ContentType); kind != kindUnknown {
		return kind
	}
	if len(file.Data) > 0 {
		if kind := kindFromMIME(mimetype.Detect(file.Data).String()); kind != kindUnknown {
			return kind
		}
	}
	return kindFromExtension(file.Name)
}

func kindFromMIME(contentType string) fileKind {
	ct, _, _ := strings.Cut(contentType, ";")
	ct = strings.ToLower(strings.TrimSpace(ct))

	switch {
	case ct == "" || ct == "application/octet-stream":
		return kindUnknown
	case ct == "application/pdf":
		return kindPDF
	case strings.HasPrefix(ct, "text/"):
		return kindText
	case strings.HasPrefix(ct, "image/"):
		return kindImage
	case spreadsheetTypes[ct]:
		return kindSpreadsheet
	}
	return kindUnknown
}

func kindFromExtension(name string) fileKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return kindPDF
	case ".txt", ".csv":
		return kindText
	case ".xlsx", ".xls":
		return kindSpreadsheet
	case ".png", ".jpg", ".jpeg", ".gif", ".webp", ".heic":
		return kindImage
	}
	return kindUnknown
}

// ---------------------- extratores ----------------------

// extractPDF joins the plain text of every page with a newline. Corrupt PDFs
// can make the reader panic, which is reported as an error.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("falha ao ler PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("falha ao abrir PDF: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// decodeText reads UTF-8 as is and anything else as ISO-8859-1, the usual
// encoding of statements exported by Brazilian banks.
func decodeText(data []byte) string {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(decoded)
}

// extractSpreadsheet renders every sheet row as a line of space-separated cells.
func extractSpreadsheet(data []byte) (string, error) {
	rows, err := loadWorkbookRows(data)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, row := range rows {
		var cells []string
		for _, cell := range row {
			if c := strings.TrimSpace(cell); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) == 0 {
			continue
		}
		sb.WriteString(strings.Join(cells, " "))
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func loadWorkbookRows(data []byte) ([][]string, error) {
	// tenta xlsx
	if f, err := excelize.OpenReader(bytes.NewReader(data)); err == nil {
		defer f.Close()
		var all [][]string
		for _, name := range f.GetSheetList() {
			rows, err := f.GetRows(name)
			if err != nil {
				continue
			}
			all = append(all, rows...)
		}
		return all, nil
	}

	// tenta xls
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("formato de planilha não suportado: %w", err)
	}
	var all [][]string
	for _, sheet := range workbook.GetSheets() {
		for _, row := range sheet.GetRows() {
			var cols []string
			for _, cell := range row.GetCols() {
				cols = append(cols, cell.GetString())
			}
			all = append(all, cols)
		}
	}
	return all, nil
}
