package http

import (
	"net/http"

	"github.com/dkeye/Telecall/internal/adapters/signal"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type tokenRequest struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

type tokenHandler struct {
	dir UserDirectory
}

// POST /generateToken
func (h tokenHandler) generate(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.UserID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}
	if req.Name == "" {
		req.Name = req.UserID
	}

	if err := h.dir.UpsertUser(c.Request.Context(), req.UserID, req.Name, req.Role); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", req.UserID).Msg("upsert user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	token, err := h.dir.UserToken(req.UserID)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", req.UserID).Msg("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s := sessions.Default(c)
	s.Set(signal.SessionUserID, req.UserID)
	s.Set(signal.SessionDisplayName, req.Name)
	if err := s.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("session save")
	}

	log.Info().Str("module", "adapters.http").Str("user", req.UserID).Str("role", req.Role).Msg("token issued")
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// DELETE /generateToken/remove/:id
func (h tokenHandler) remove(c *gin.Context) {
	id := c.Param("id")
	if err := h.dir.DeleteUser(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", id).Msg("delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "message": "User deleted successfully"})
}

// PUT /generateToken/restore/:id
func (h tokenHandler) restore(c *gin.Context) {
	id := c.Param("id")
	if err := h.dir.RestoreUser(c.Request.Context(), id); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("user", id).Msg("restore user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": http.StatusOK, "message": "User restored successfully"})
}
