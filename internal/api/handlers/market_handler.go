// internal/api/handlers/market_handler.go
package handlers

import (
	"errors"
	"net/http"

	"diagnosis-service/internal/api/responses"
	"diagnosis-service/internal/core/market"
	"diagnosis-service/internal/domain"

	"github.com/gin-gonic/gin"
)

type MarketHandler struct {
	service market.Service
}

func NewMarketHandler(service market.Service) *MarketHandler {
	return &MarketHandler{service: service}
}

// SnapshotResponse carries the snapshot and the text block sent to the model.
type SnapshotResponse struct {
	Snapshot domain.MarketSnapshot `json:"snapshot"`
	Context  string                `json:"contexto"`
}

func (h *MarketHandler) HandleSnapshot(c *gin.Context) {
	snapshot := h.service.GetSnapshot(c.Request.Context())
	responses.Success(c, SnapshotResponse{
		Snapshot: snapshot,
		Context:  market.FormatSnapshot(snapshot),
	}, "")
}

func (h *MarketHandler) HandleAnbima(c *gin.Context) {
	indices, err := h.service.FetchAnbima(c.Request.Context())
	if errors.Is(err, market.ErrAnbimaNotConfigured) {
		responses.Error(c, http.StatusNotFound, "Integração ANBIMA não configurada")
		return
	}
	if err != nil {
		responses.Error(c, http.StatusBadGateway, "Erro ao consultar a ANBIMA", err.Error())
		return
	}
	responses.Success(c, indices, "")
}
