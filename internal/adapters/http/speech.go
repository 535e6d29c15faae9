package http

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type speechRequest struct {
	Message string `json:"message"`
}

type speechHandler struct {
	synth     Synthesizer
	audioPath string
}

// POST /agent
func (h speechHandler) agent(c *gin.Context) {
	var req speechRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "message is required"})
		return
	}

	audio, err := h.synth.Synthesize(c.Request.Context(), req.Message)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("synthesize")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	name := uuid.NewString() + ".mp3"
	if err := h.store(name, audio); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Str("file", name).Msg("store audio")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"audioUrl": fmt.Sprintf("%s://%s/audio/%s", scheme(c.Request), c.Request.Host, name),
		"message":  "Audio generated successfully",
	})
}

func (h speechHandler) store(name string, audio []byte) error {
	if err := os.MkdirAll(h.audioPath, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}
	return os.WriteFile(filepath.Join(h.audioPath, name), audio, 0o644)
}

func scheme(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p != "" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
