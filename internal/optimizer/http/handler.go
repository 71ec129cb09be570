package http

import (
	"github.com/dockopt/dockopt-backend/internal/optimizer/service"
	"go.uber.org/zap"
)

// Handler serves the Dockerfile optimizer endpoints
type Handler struct {
	svc    *service.OptimizerService
	logger *zap.Logger
}

// New creates a Handler
func New(svc *service.OptimizerService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}
