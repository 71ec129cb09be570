package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dockopt/dockopt-backend/internal/optimizer/llm"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/gin-gonic/gin"
)

type HealthResponse struct {
	Status    string               `json:"status"`
	Timestamp time.Time            `json:"timestamp"`
	Service   string               `json:"service"`
	Version   string               `json:"version"`
	Store     string               `json:"store"`
	Sessions  int                  `json:"sessions"`
	AI        *llm.MetricsSnapshot `json:"ai,omitempty"`
}

// MetricsSource reports completion API call counters
type MetricsSource interface {
	Metrics() llm.MetricsSnapshot
}

type HealthHandler struct {
	serviceName string
	version     string
	store       repository.SessionStore
	ai          MetricsSource
}

func NewHealthHandler(serviceName, version string, store repository.SessionStore, ai MetricsSource) *HealthHandler {
	return &HealthHandler{
		serviceName: serviceName,
		version:     version,
		store:       store,
		ai:          ai,
	}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	storeStatus := "disabled"
	sessions := 0
	if h.store != nil {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 1*time.Second)
		defer cancel()

		if err := h.store.Ping(pingCtx); err != nil {
			storeStatus = "down"
		} else {
			storeStatus = "up"
			sessions, _ = h.store.Count(pingCtx)
		}
	}

	resp := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Service:   h.serviceName,
		Version:   h.version,
		Store:     storeStatus,
		Sessions:  sessions,
	}
	if h.ai != nil {
		m := h.ai.Metrics()
		resp.AI = &m
	}

	c.JSON(http.StatusOK, resp)
}

func (h *HealthHandler) RegisterRoutes(r gin.IRouter) {
	r.GET("/health", h.HealthCheck)
	r.GET("/healthz", h.HealthCheck)
}
