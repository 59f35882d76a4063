package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"newsdiet/internal/config"
	"newsdiet/internal/logging"
	"newsdiet/internal/services"
)

const requestIDHeader = "X-Request-ID"

type apiServer struct {
	bind   string
	logger *slog.Logger
	router *gin.Engine

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) *apiServer {
	logger = logging.NewComponentLogger(logger, "api")
	if gin.Mode() == gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	return &apiServer{
		bind:   strings.TrimSpace(cfg.Paths.APIBind),
		logger: logger,
		router: newRouter(d, cfg.Paths.APIToken, logger),
	}
}

// newRouter registers every admin route. Reads are open; anything that
// changes state sits behind the bearer token when one is configured.
func newRouter(d *Daemon, token string, logger *slog.Logger) *gin.Engine {
	h := &handlers{daemon: d, logger: logger}
	r := gin.New()
	r.Use(gin.Recovery(), requestContext(logger))

	r.GET("/health", h.health)

	read := r.Group("/api")
	read.GET("/status", h.status)
	read.GET("/articles", h.listArticles)
	read.GET("/articles/:id", h.getArticle)
	read.GET("/feeds", h.listFeeds)
	read.GET("/preferences", h.getPreferences)

	write := r.Group("/api", bearerAuth(token))
	write.POST("/refresh", h.refresh)
	write.POST("/prune", h.prune)
	write.POST("/articles/reprocess", h.reprocess)
	write.PATCH("/articles/:id/read", h.markRead)
	write.PATCH("/articles/:id/star", h.setStarred)
	write.DELETE("/articles", h.clearArticles)
	write.POST("/feeds", h.addFeed)
	write.POST("/feeds/import", h.importFeeds)
	write.PATCH("/feeds/:id", h.updateFeed)
	write.DELETE("/feeds/:id", h.removeFeed)
	write.PUT("/preferences", h.setPreferences)
	write.POST("/notifications/test", h.testNotification)
	return r
}

// requestContext tags each request with an id, echoes it back, and logs
// the outcome at debug level.
func requestContext(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		started := time.Now()
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(requestIDHeader, id)
		c.Request = c.Request.WithContext(services.WithRequestID(c.Request.Context(), id))
		c.Next()

		logging.WithContext(c.Request.Context(), logger).Debug("api request",
			logging.String("method", c.Request.Method),
			logging.String("path", c.FullPath()),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("latency", time.Since(started)),
		)
	}
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_server_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "admin API unavailable until restart"),
			)
		}
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s.server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.server = nil
	s.listener = nil
}

func (s *apiServer) address() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.bind
}
