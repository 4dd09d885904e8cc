package http

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iamasit07/4-in-a-row/client/internal/transport/http/middleware"
)

type RouterOptions struct {
	AllowedOrigins []string
	// Token, when set, is required as a bearer token on /api routes.
	Token string
	// Gatherer backs /metrics; the route is left out when nil.
	Gatherer prometheus.Gatherer
}

// NewRouter wires the local control API.
func NewRouter(h *GameHandler, opts RouterOptions) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(), gin.Recovery())
	router.Use(middleware.SecurityHeadersMiddleware())
	router.Use(middleware.CORSMiddleware(opts.AllowedOrigins))

	router.GET("/healthz", h.Health)
	if opts.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware(opts.Token))
	{
		api.GET("/state", h.GetState)
		api.GET("/leaderboard", h.Leaderboard)
		api.POST("/join", h.Join)
		api.POST("/move", h.Move)
		api.POST("/new-game", h.NewGame)
	}

	return router
}
