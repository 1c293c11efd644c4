// internal/api/handlers/diagnosis_handler.go
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"diagnosis-service/internal/api/responses"
	"diagnosis-service/internal/core/diagnosis"
	"diagnosis-service/internal/domain"

	"github.com/gin-gonic/gin"
)

// DiagnosisHandler lida com a geração do diagnóstico e a transcrição de áudio.
type DiagnosisHandler struct {
	service        diagnosis.Service
	maxUploadBytes int64
}

func NewDiagnosisHandler(service diagnosis.Service, maxUploadBytes int64) *DiagnosisHandler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &DiagnosisHandler{service: service, maxUploadBytes: maxUploadBytes}
}

// HandleGenerate recebe o questionário (JSON), o relato, o áudio opcional e os
// extratos, e devolve o diagnóstico completo.
func (h *DiagnosisHandler) HandleGenerate(c *gin.Context) {
	var questionnaire domain.Questionnaire
	if raw := strings.TrimSpace(c.PostForm("questionnaire")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &questionnaire); err != nil {
			responses.Error(c, http.StatusBadRequest, "Questionário inválido", err.Error())
			return
		}
	}

	files, err := readUploads(c, h.maxUploadBytes, "files[]", "files")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, uploadErrorMessage(err), err.Error())
		return
	}

	req := diagnosis.Request{
		Questionnaire: questionnaire,
		Narrative:     c.PostForm("narrative"),
		Files:         files,
	}

	if header, err := c.FormFile("audio"); err == nil {
		audio, err := readUpload(header, h.maxUploadBytes)
		if err != nil {
			responses.Error(c, http.StatusBadRequest, uploadErrorMessage(err), err.Error())
			return
		}
		req.Audio = &audio
	}

	result, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		status, message := aiErrorStatus(err)
		responses.Error(c, status, message, err.Error())
		return
	}

	responses.Success(c, result, "Diagnóstico gerado com sucesso")
}

// HandleTranscribe transcreve o áudio enviado no campo audio.
func (h *DiagnosisHandler) HandleTranscribe(c *gin.Context) {
	header, err := c.FormFile("audio")
	if err != nil {
		responses.Error(c, http.StatusBadRequest, "Arquivo de áudio não encontrado ou inválido")
		return
	}
	audio, err := readUpload(header, h.maxUploadBytes)
	if err != nil {
		responses.Error(c, http.StatusBadRequest, uploadErrorMessage(err), err.Error())
		return
	}
	if audio.Size() == 0 {
		responses.Error(c, http.StatusBadRequest, "Arquivo de áudio vazio")
		return
	}

	text, err := h.service.Transcribe(c.Request.Context(), audio)
	if err != nil {
		status, message := aiErrorStatus(err)
		responses.Error(c, status, message, err.Error())
		return
	}

	responses.Success(c, gin.H{"transcription": text}, "Áudio transcrito com sucesso")
}

func aiErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, diagnosis.ErrAINotConfigured):
		return http.StatusServiceUnavailable, "Serviço de IA não configurado"
	case errors.Is(err, diagnosis.ErrAIUnauthorized):
		return http.StatusBadGateway, "Credenciais do serviço de IA inválidas"
	case errors.Is(err, diagnosis.ErrAIRateLimited):
		return http.StatusTooManyRequests, "Limite de requisições do serviço de IA atingido, tente novamente em instantes"
	case errors.Is(err, diagnosis.ErrAITimeout):
		return http.StatusGatewayTimeout, "O serviço de IA demorou demais para responder"
	case errors.Is(err, diagnosis.ErrAIEmptyResponse), errors.Is(err, diagnosis.ErrAIInvalidJSON):
		return http.StatusBadGateway, "Resposta inválida do serviço de IA"
	default:
		return http.StatusInternalServerError, "Erro ao gerar o diagnóstico"
	}
}
