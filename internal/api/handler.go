package api

import (
	"net/http"
	"time"

	"risk-core/internal/account"
	"risk-core/internal/events"
	"risk-core/internal/monitor"
	"risk-core/pkg/db"

	"github.com/gin-gonic/gin"
)

// Server wires HTTP endpoints around the risk engine and the event bus.
type Server struct {
	Router         *gin.Engine
	Bus            *events.Bus
	DB             *db.Database
	Accounts       *account.MultiUserManager
	Metrics        *monitor.SystemMetrics
	JWTSecret      string
	DefaultCapital float64
	Version        string
}

// Config carries the deployment knobs the HTTP layer needs.
type Config struct {
	JWTSecret      string
	DefaultCapital float64
	Version        string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewServer(bus *events.Bus, database *db.Database, accounts *account.MultiUserManager, metrics *monitor.SystemMetrics, cfg Config) *Server {
	r := gin.New()

	// Middleware stack (order matters!)
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(RequestLogger(metrics))
	r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	r.Use(TimeoutMiddleware(30 * time.Second))
	r.Use(CORSMiddleware())

	s := &Server{
		Router:         r,
		Bus:            bus,
		DB:             database,
		Accounts:       accounts,
		Metrics:        metrics,
		JWTSecret:      cfg.JWTSecret,
		DefaultCapital: cfg.DefaultCapital,
		Version:        cfg.Version,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.Router.GET("/health", s.health)
	s.Router.GET("/ws", s.websocket)

	api := s.Router.Group("/api")
	{
		api.GET("/metrics", s.getMetrics)

		// Auth endpoints (no auth required)
		auth := api.Group("/auth")
		{
			auth.POST("/register", s.registerUser)
			auth.POST("/login", s.loginUser)
		}

		// Sizing is a pure calculation; no account context needed.
		api.POST("/size", s.calculateSize)

		// Protected API
		protected := api.Group("")
		protected.Use(AuthMiddleware(s.JWTSecret))
		{
			protected.GET("/risk/snapshot", s.getRiskSnapshot)
			protected.POST("/risk/enforce", s.enforceTrade)
			protected.GET("/risk/settings", s.getRiskSettings)
			protected.PUT("/risk/settings", s.updateRiskSettings)
			protected.GET("/risk/profiles", s.listRiskProfiles)
			protected.POST("/risk/profiles/:name", s.applyRiskProfile)

			protected.GET("/account", s.getAccount)
			protected.GET("/trades", s.listTrades)
			protected.POST("/trades", s.recordTrade)
		}
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": s.Version})
}

func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}
