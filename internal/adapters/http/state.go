package http

import (
	"net/http"

	"github.com/dkeye/Telecall/internal/app"
	"github.com/gin-gonic/gin"
)

type stateHandler struct {
	coord *app.Coordinator
}

// GET /api/presence
func (h stateHandler) presence(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"users": h.coord.Presence()})
}

// GET /api/calls
func (h stateHandler) calls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"calls": h.coord.Calls()})
}
