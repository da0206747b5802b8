package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/serega19851/task-manager/internal/dto"
)

func ok(c *gin.Context, status int, message string, data any) {
	c.JSON(status, dto.APIResponse{Success: true, Message: message, Data: data})
}

func fail(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.ErrorResponse{Success: false, Error: code, Message: message})
}
