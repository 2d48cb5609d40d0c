// Package server exposes the gateway over HTTP: the tool contract, the
// dispatch endpoint, health and Prometheus metrics.
package server

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"railway-gateway/internal/common/config"
	toolerr "railway-gateway/internal/common/errors"
	"railway-gateway/internal/common/logger"
	"railway-gateway/internal/gateway"
)

type Server struct {
	engine     *gin.Engine
	dispatcher *gateway.Dispatcher
	logger     logger.Logger
	http       *http.Server
}

func New(cfg config.ServerConfig, d *gateway.Dispatcher, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine:     engine,
		dispatcher: d,
		logger:     log.With(map[string]interface{}{"component": "server"}),
		http: &http.Server{
			Addr:    cfg.Address,
			Handler: engine,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.engine.Group("/v1")
	v1.GET("/tools", s.handleListTools)
	v1.POST("/tools/:name", s.handleDispatch)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"address": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleListTools(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tools": gateway.Definitions()})
}

// handleDispatch runs one tool call. The body is the raw argument object;
// the operation name rides on the path.
func (s *Server) handleDispatch(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		s.writeError(c, toolerr.NewValidationError("read body: "+err.Error()))
		return
	}
	if len(body) == 0 {
		body = []byte("{}")
	}

	req, err := gateway.ParseRequest(c.Param("name"), body)
	if err != nil {
		s.writeError(c, err)
		return
	}

	res, err := s.dispatcher.Dispatch(c.Request.Context(), req)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// writeError maps the error taxonomy onto HTTP statuses. The typed error is
// the response body so orchestrators can branch on the code.
func (s *Server) writeError(c *gin.Context, err error) {
	te, ok := toolerr.AsToolError(err)
	if !ok {
		te = toolerr.NewUpstreamError(err.Error(), 0, false)
	}

	status := http.StatusBadGateway
	switch te.Code {
	case toolerr.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case toolerr.ErrCodeStationResolutionFailed:
		status = http.StatusUnprocessableEntity
	case toolerr.ErrCodeRateLimited:
		status = http.StatusTooManyRequests
	case toolerr.ErrCodeUpstreamDataInvalid:
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": te})
}
