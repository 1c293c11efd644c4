// internal/api/handlers/auth_handler.go
package handlers

import (
	"errors"
	"net/http"

	"diagnosis-service/internal/api/responses"
	"diagnosis-service/internal/core/auth"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service auth.Service
}

func NewAuthHandler(service auth.Service) *AuthHandler {
	return &AuthHandler{service: service}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.Error(c, http.StatusBadRequest, "Requisição inválida", err.Error())
		return
	}

	token, err := h.service.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			responses.Error(c, http.StatusUnauthorized, err.Error())
			return
		}
		responses.Error(c, http.StatusInternalServerError, "Erro ao autenticar", err.Error())
		return
	}

	responses.Success(c, gin.H{"token": token}, "Login realizado com sucesso")
}
