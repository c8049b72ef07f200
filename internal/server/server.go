package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/invoicer/internal/config"
	invoicingdomain "github.com/smallbiznis/invoicer/internal/invoicing/domain"
	"github.com/smallbiznis/invoicer/internal/pdfgen"
	"github.com/smallbiznis/invoicer/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
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
	invoicingSvc invoicingdomain.Service
	pipeline     *pdfgen.Pipeline
	seeder       *seed.Seeder
}

type Params struct {
	fx.In

	Engine       *gin.Engine
	Cfg          config.Config
	Log          *zap.Logger
	InvoicingSvc invoicingdomain.Service
	Pipeline     *pdfgen.Pipeline
	Seeder       *seed.Seeder
}

func NewServer(p Params) *Server {
	s := &Server{
		engine:       p.Engine,
		cfg:          p.Cfg,
		log:          p.Log.Named("http.server"),
		invoicingSvc: p.InvoicingSvc,
		pipeline:     p.Pipeline,
		seeder:       p.Seeder,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	api.POST("/customers", s.createCustomer)
	api.GET("/customers", s.listCustomers)

	api.POST("/invoices", s.createInvoice)
	api.GET("/invoices", s.listInvoices)
	api.GET("/invoices/:invoiceNumber", s.getInvoice)
	api.PUT("/invoices/:invoiceNumber", s.updateInvoice)
	api.DELETE("/invoices/:invoiceNumber", s.deleteInvoice)

	api.GET("/invoices/:invoiceNumber/items", s.listInvoiceItems)
	api.POST("/invoices/:invoiceNumber/items", s.addInvoiceItem)
	api.DELETE("/invoices/:invoiceNumber/items/:itemId", s.deleteInvoiceItem)

	api.POST("/invoices/:invoiceNumber/pdf", s.enqueueRender)

	api.GET("/pdfs", s.listPdfs)
	api.GET("/pdfs/:fileName/view", s.viewPdf)
	api.GET("/pdfs/:fileName/download", s.downloadPdf)

	api.POST("/seed", s.seedData)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			_ = ctx
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

var Module = fx.Module("http.server",
	fx.Provide(NewEngine),
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) {}),
	fx.Invoke(run),
)
