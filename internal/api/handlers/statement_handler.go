// internal/api/handlers/statement_handler.go
package handlers

import (
	"errors"
	"net/http"

	"diagnosis-service/internal/api/responses"
	"diagnosis-service/internal/core/statement"
	"diagnosis-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// StatementHandler lida com o envio de extratos para leitura.
type StatementHandler struct {
	service        statement.Service
	maxUploadBytes int64
}

func NewStatementHandler(service statement.Service, maxUploadBytes int64) *StatementHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &StatementHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// StatementsResponse is the payload of a statement parse request.
type StatementsResponse struct {
	Reports    []domain.FileReport         `json:"arquivos"`
	Statements []domain.ParsedStatement    `json:"extratos"`
	Holdings   domain.ConsolidatedHoldings `json:"consolidado"`
}

// HandleParse lê os arquivos enviados em files[] e devolve o relatório por arquivo
// junto com a carteira consolidada.
func (h *StatementHandler) HandleParse(c *gin.Context) {
	files, err := readUploads(c, h.maxUploadBytes, "files[]", "files")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, uploadErrorMessage(err), err.Error())
		return
	}
	if len(files) == 0 {
		responses.Error(c, http.StatusBadRequest, "Nenhum extrato foi enviado")
		return
	}

	statements, reports := h.service.ProcessWithReport(c.Request.Context(), files)

	responses.Success(c, StatementsResponse{
		Reports:    reports,
		Statements: statements,
		Holdings:   h.service.Consolidate(statements),
	}, "Extratos processados")
}

func uploadErrorMessage(err error) string {
	if errors.Is(err, errFileTooLarge) {
		return "Arquivo excede o tamanho máximo permitido"
	}
	return "Arquivos inválidos"
}
