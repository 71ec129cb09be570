package http

import "github.com/dockopt/dockopt-backend/internal/optimizer/domain"

const invalidSessionMessage = "Invalid sessionID"

type sessionQuery struct {
	SessionID string `form:"sessionID" binding:"required"`
}

type optimizeRequest struct {
	SessionID  string  `json:"sessionID"`
	Dockerfile *string `json:"dockerfile" binding:"required"`
}

type chatRequest struct {
	SessionID string            `json:"sessionID"`
	History   []domain.ChatTurn `json:"history" binding:"dive"`
	Question  *string           `json:"question" binding:"required"`
}

type lintResponse struct {
	LintResults []domain.LintResult `json:"lintResults"`
}

type layersResponse struct {
	LayerReport []domain.LayerEntry `json:"layerReport"`
}

type suggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
