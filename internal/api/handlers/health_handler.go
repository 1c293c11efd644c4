// internal/api/handlers/health_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const serviceName = "diagnosis-service"

func HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "UP", "service": serviceName})
}
