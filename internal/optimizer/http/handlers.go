package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/dockopt/dockopt-backend/internal/logging"
	"github.com/dockopt/dockopt-backend/internal/optimizer/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Upload stores a multipart Dockerfile and opens a session for it
func (h *Handler) Upload(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := file.Open()
	if err != nil {
		h.internalError(c, "open upload", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.internalError(c, "read upload", err)
		return
	}

	res, err := h.svc.Upload(c.Request.Context(), file.Filename, content)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEncoding) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, "upload", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Lint returns lint results for a session
func (h *Handler) Lint(c *gin.Context) {
	var q sessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionID is required"})
		return
	}

	results, err := h.svc.Lint(c.Request.Context(), q.SessionID)
	if err != nil {
		h.internalError(c, "lint", err)
		return
	}

	c.JSON(http.StatusOK, lintResponse{LintResults: results})
}

// Layers returns the layer report for a session
func (h *Handler) Layers(c *gin.Context) {
	var q sessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionID is required"})
		return
	}

	report, err := h.svc.Layers(c.Request.Context(), q.SessionID)
	if err != nil {
		h.internalError(c, "layers", err)
		return
	}

	c.JSON(http.StatusOK, layersResponse{LayerReport: report})
}

// Suggestions returns AI suggestions for a session, one entry per line
func (h *Handler) Suggestions(c *gin.Context) {
	var q sessionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionID is required"})
		return
	}

	lines, err := h.svc.Suggestions(c.Request.Context(), q.SessionID)
	if err != nil {
		h.internalError(c, "suggestions", err)
		return
	}

	c.JSON(http.StatusOK, suggestionsResponse{Suggestions: lines})
}

// Optimize stores the posted Dockerfile and returns its optimized form
func (h *Handler) Optimize(c *gin.Context) {
	var body optimizeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: dockerfile is required"})
		return
	}

	res, err := h.svc.Optimize(c.Request.Context(), body.SessionID, *body.Dockerfile)
	if err != nil {
		h.internalError(c, "optimize", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// Chat answers a question about a session's Dockerfile. An unknown session
// is reported in the body with status 200.
func (h *Handler) Chat(c *gin.Context) {
	var body chatRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.Chat(c.Request.Context(), body.SessionID, body.History, *body.Question)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": invalidSessionMessage})
			return
		}
		h.internalError(c, "chat", err)
		return
	}

	c.JSON(http.StatusOK, res)
}

func (h *Handler) internalError(c *gin.Context, operation string, err error) {
	logging.FromContext(c.Request.Context(), h.logger).Error("request failed",
		zap.String("operation", operation),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
