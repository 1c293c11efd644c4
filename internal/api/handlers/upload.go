// internal/api/handlers/upload.go
package handlers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"diagnosis-service/internal/domain"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
)

// DefaultMaxUploadBytes é o limite por arquivo quando nenhum é configurado.
const DefaultMaxUploadBytes int64 = 20 << 20

var errFileTooLarge = errors.New("arquivo excede o tamanho máximo permitido")

// readUpload loads a multipart file into memory, enforcing maxBytes.
func readUpload(header *multipart.FileHeader, maxBytes int64) (domain.InputFile, error) {
	if header.Size > maxBytes {
		return domain.InputFile{}, fmt.Errorf("%s: %w", header.Filename, errFileTooLarge)
	}

	f, err := header.Open()
	if err != nil {
		return domain.InputFile{}, fmt.Errorf("falha ao abrir %s: %w", header.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return domain.InputFile{}, fmt.Errorf("falha ao ler %s: %w", header.Filename, err)
	}
	if int64(len(data)) > maxBytes {
		return domain.InputFile{}, fmt.Errorf("%s: %w", header.Filename, errFileTooLarge)
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || strings.HasPrefix(contentType, "application/octet-stream") {
		contentType = mimetype.Detect(data).String()
	}

	return domain.InputFile{Name: header.Filename, ContentType: contentType, Data: data}, nil
}

// readUploads reads every file sent under the given form keys.
func readUploads(c *gin.Context, maxBytes int64, keys ...string) ([]domain.InputFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("formulário multipart inválido: %w", err)
	}

	var files []domain.InputFile
	for _, key := range keys {
		for _, header := range form.File[key] {
			file, err := readUpload(header, maxBytes)
			if err != nil {
				return nil, err
			}
			files = append(files, file)
		}
	}
	return files, nil
}
