package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/clock"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/config"
	ledgerdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/ledger/domain"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/logger"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/metrics"
	"github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/observability/tracing"
	paymentdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/payment/domain"
	rentbillingdomain "github.com/MariaTejaswi/PROPERTY-HUB-sub000/internal/rentbilling/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {
		s.RegisterAPIRoutes()
	}),
	fx.Invoke(RunHTTP),
)

type EngineParams struct {
	fx.In

	Cfg         config.Config
	HTTPMetrics *metrics.HTTPMetrics `optional:"true"`
}

// NewEngine builds the gin engine with request logging, tracing and
// HTTP metrics installed ahead of every route.
func NewEngine(p EngineParams) *gin.Engine {
	if p.Cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(logger.GinMiddleware(logger.MiddlewareConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	engine.Use(tracing.GinMiddleware())
	engine.Use(metrics.GinMiddleware(p.HTTPMetrics))
	return engine
}

type ServerParams struct {
	fx.In

	Engine     *gin.Engine
	DB         *gorm.DB
	Cfg        config.Config
	Log        *zap.Logger
	Clock      clock.Clock
	PaymentSvc paymentdomain.Service
	BillingSvc rentbillingdomain.Service
	LedgerSvc  ledgerdomain.Service
}

type Server struct {
	engine *gin.Engine
	db     *gorm.DB
	cfg    config.Config
	log    *zap.Logger

	paymentSvc paymentdomain.Service
	billingSvc rentbillingdomain.Service
	ledgerSvc  ledgerdomain.Service

	submitLimiter *rateLimiter
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Engine,
		db:            p.DB,
		cfg:           p.Cfg,
		log:           p.Log.Named("http.server"),
		paymentSvc:    p.PaymentSvc,
		billingSvc:    p.BillingSvc,
		ledgerSvc:     p.LedgerSvc,
		submitLimiter: newRateLimiter(p.Cfg.HTTP.SubmitRateLimit, p.Cfg.HTTP.SubmitRateWindow, p.Clock),
	}
}

// RegisterAPIRoutes mounts the billing API under /api plus the health and
// metrics endpoints.
func (s *Server) RegisterAPIRoutes() {
	s.engine.GET("/healthz", s.Healthz)
	s.engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := s.engine.Group("/api", s.ActorRequired())
	{
		api.POST("/billing/generate", s.GenerateRent)

		api.POST("/payments", s.CreatePayment)
		api.GET("/payments", s.ListPayments)
		api.GET("/payments/summary", s.PaymentSummary)
		api.GET("/payments/:id", s.GetPayment)
		api.DELETE("/payments/:id", s.DeletePayment)
		api.POST("/payments/:id/submit", s.SubmitRateLimit(), s.SubmitPayment)
	}
}

func (s *Server) Healthz(c *gin.Context) {
	sqlDB, err := s.db.DB()
	if err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// RunHTTP binds the listener on start and drains in-flight requests on stop.
func RunHTTP(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, engine *gin.Engine) {
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	log = log.Named("http.server")

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", ln.Addr().String()))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("http server shutting down")
			return srv.Shutdown(ctx)
		},
	})
}
