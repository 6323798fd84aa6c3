package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/himap/directory/internal/audit/domain"
	"github.com/himap/directory/internal/authorization"
	"github.com/himap/directory/internal/config"
	directorydomain "github.com/himap/directory/internal/directory/domain"
	"github.com/himap/directory/internal/identity/local"
	memberdomain "github.com/himap/directory/internal/member/domain"
	"github.com/himap/directory/internal/observability"
	obslogger "github.com/himap/directory/internal/observability/logger"
	obsmetrics "github.com/himap/directory/internal/observability/metrics"
	obstracing "github.com/himap/directory/internal/observability/tracing"
	"github.com/himap/directory/internal/ratelimit"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterRoutes()
	}),
	fx.Invoke(RunHTTP),
)

type EngineParams struct {
	fx.In

	Log         *zap.Logger
	ObsCfg      observability.Config
	HTTPMetrics *obsmetrics.HTTPMetrics `optional:"true"`
}

func NewEngine(p EngineParams) *gin.Engine {
	r := gin.New()
	r.Use(Recovery(p.Log))
	r.Use(CORS())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           p.ObsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	if p.HTTPMetrics != nil {
		r.Use(obsmetrics.GinMiddleware(p.HTTPMetrics))
	}
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	log          *zap.Logger
	directorySvc directorydomain.Service
	memberSvc    memberdomain.Service
	auditSvc     auditdomain.Service
	localAuth    *local.Provider
	limiter      ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	DirectorySvc directorydomain.Service
	MemberSvc    memberdomain.Service
	AuditSvc     auditdomain.Service
	LocalAuth    *local.Provider   `optional:"true"`
	Limiter      ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		directorySvc: p.DirectorySvc,
		memberSvc:    p.MemberSvc,
		auditSvc:     p.AuditSvc,
		localAuth:    p.LocalAuth,
		limiter:      p.Limiter,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	s.engine.GET("/config.json", s.RuntimeConfig)

	api := s.engine.Group("/api")
	{
		api.GET("/companies", s.ListCompanies)
		api.GET("/companies/search", s.SearchCompanies)
		api.GET("/companies/by-service", s.FilterCompaniesByService)
		api.GET("/companies/:id", s.GetCompany)
		api.GET("/service-categories", s.ListServiceCategories)

		api.GET("/members/me", s.Me)
		api.GET("/companies/:id/members", s.ListCompanyMembers)
		api.PUT("/companies/:id/logo", s.authorize(authorization.ObjectMedia, authorization.ActionMediaManage), s.SetCompanyLogo)
		api.GET("/audit-logs", s.authorize(authorization.ObjectAuditLog, authorization.ActionAuditLogView), s.ListAuditLogs)
	}

	functions := s.engine.Group("/functions/v1")
	{
		functions.OPTIONS("/create-member", s.Preflight)
		functions.POST("/create-member", RateLimit(s.limiter), s.CreateMember)
	}

	s.engine.POST("/auth/v1/token", s.IssueToken)

	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}

// authorize resolves the bearer token to a caller allowed to perform the
// action. The caller's identity is attached to the request context.
func (s *Server) authorize(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, err := s.memberSvc.RequirePermission(c.Request.Context(), bearerToken(c), object, action)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(contextCallerKey, caller)
		c.Request = c.Request.WithContext(withCaller(c.Request.Context(), caller))
		c.Next()
	}
}

func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, r *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}
