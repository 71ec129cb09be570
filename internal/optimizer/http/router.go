package http

import "github.com/gin-gonic/gin"

// Register registers the optimizer routes
func (h *Handler) Register(r gin.IRouter) {
	r.POST("/upload", h.Upload)
	r.GET("/lint", h.Lint)
	r.GET("/layers", h.Layers)
	r.GET("/suggestions", h.Suggestions)
	r.POST("/optimize", h.Optimize)
	r.POST("/chat", h.Chat)
}
