package handler

import (
	"context"
	"time"

	"sentiment-desk/internal/dashboard"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

// ArtifactSource reads pipeline output for the API.
type ArtifactSource interface {
	dashboard.ArtifactReader
	ModTimes(ticker string) (prices, sentiment time.Time)
}

type ViewCache interface {
	Get(ctx context.Context, key string) (*dashboard.View, bool)
	Set(ctx context.Context, key string, v *dashboard.View)
}

type Handler struct {
	tracer    trace.Tracer
	artifacts ArtifactSource
	cache     ViewCache
}

// New builds the API handler. cache may be nil.
func New(tracer trace.Tracer, artifacts ArtifactSource, cache ViewCache) *Handler {
	return &Handler{
		tracer:    tracer,
		artifacts: artifacts,
		cache:     cache,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine, apiKey string) {
	r.GET("/health", h.Health)

	api := r.Group("/api", APIKeyAuth(apiKey))
	api.GET("/tickers/:ticker/dashboard", h.GetDashboard)
	api.GET("/tickers/:ticker/prices", h.GetPrices)
	api.GET("/tickers/:ticker/headlines", h.GetHeadlines)
}
