package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"music-round/internal/config"
	"music-round/internal/logging"
	"music-round/internal/trivia"
)

type Server struct {
	engine *trivia.Engine
	cfg    config.Config
	ws     *wsHub
	log    *zap.SugaredLogger
}

func New(engine *trivia.Engine, cfg config.Config) *Server {
	if engine == nil {
		engine = trivia.NewEngine(trivia.Options{})
	}
	s := &Server{
		engine: engine,
		cfg:    cfg,
		ws:     newWSHub(),
		log:    logging.DefaultLogger().Named("server"),
	}
	engine.SetOnChange(s.broadcastGameUpdate)
	return s
}

// WithLogger replaces the request logger.
func (s *Server) WithLogger(logger *zap.SugaredLogger) *Server {
	s.log = logger
	return s
}

func (s *Server) Handler() http.Handler {
	registerValidators()
	if !s.cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), s.requestLogger())

	router.GET("/", s.handleHome)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	api.POST("/games", s.handleCreateGame)
	api.GET("/games/:id", s.handleGetGame)
	api.GET("/games/:id/qr.png", s.handleJoinQRCode)
	api.POST("/games/:id/join", s.handleJoinGame)
	api.POST("/games/:id/ready", s.handleReady)
	api.POST("/games/:id/start", s.handleStartGame)
	api.POST("/rounds/:id/answers", s.handleSubmitAnswer)
	api.POST("/rounds/:id/hints", s.handleUseHint)

	router.GET("/ws/games/:id", s.handleWebsocket)
	router.Static("/static", "static")
	return router
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		logger := s.log.With("method", c.Request.Method, "path", c.Request.URL.Path)
		c.Request = c.Request.WithContext(logging.WithLogger(c.Request.Context(), logger))
		c.Next()
		logger.Debugw("request handled",
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) broadcastGameUpdate(gameID string) {
	if s.ws == nil || !s.ws.Has(gameID) {
		return
	}
	snap, err := s.engine.Snapshot(context.Background(), gameID)
	if err != nil {
		s.log.Warnw("snapshot for broadcast failed", "game_id", gameID, "error", err)
		return
	}
	s.ws.Broadcast(gameID, snapshotMessage(snap))
}
