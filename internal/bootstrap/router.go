package bootstrap

import (
	"time"

	httpapi "github.com/dockopt/dockopt-backend/internal/api/http"
	"github.com/dockopt/dockopt-backend/internal/api/http/middleware"
	opthttp "github.com/dockopt/dockopt-backend/internal/optimizer/http"
	"github.com/dockopt/dockopt-backend/internal/optimizer/repository"
	"github.com/dockopt/dockopt-backend/internal/optimizer/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	ServiceName string
	Version     string
	Store       repository.SessionStore
	Optimizer   *service.OptimizerService
	AIMetrics   httpapi.MetricsSource
	Logger      *zap.Logger
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.New(corsConfig()))
	r.Use(middleware.RequestIDMiddleware(dep.Logger))

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.Store, dep.AIMetrics)
	healthHandler.RegisterRoutes(r)

	optimizerHandler := opthttp.New(dep.Optimizer, dep.Logger)
	optimizerHandler.Register(r)

	return r
}

// corsConfig allows every origin, method and header.
func corsConfig() cors.Config {
	return cors.Config{
		AllowAllOrigins: true,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders:  []string{"*"},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
}
