// Package server exposes the agent swarm over HTTP.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/EikiYamashiro/agent-swarm/logger"
	"github.com/EikiYamashiro/agent-swarm/sdk/swarm"
	"github.com/EikiYamashiro/agent-swarm/sdk/tools"
	"github.com/EikiYamashiro/agent-swarm/storage"
)

// SwarmRequest is the inbound chat payload.
type SwarmRequest struct {
	Message string `json:"message" binding:"required"`
	UserID  string `json:"user_id" binding:"required"`
}

// SwarmResponse is the chat answer returned to the client.
type SwarmResponse struct {
	Answer        string   `json:"answer"`
	Sources       []string `json:"sources"`
	UsedRetrieval bool     `json:"used_retrieval"`
	UserID        string   `json:"user_id"`
	ToolsUsed     []string `json:"tools_used"`
}

// InvokeRequest asks for one tool execution.
type InvokeRequest struct {
	ToolID     string         `json:"tool_id" binding:"required"`
	Parameters map[string]any `json:"parameters"`
}

// Server wires the orchestration loop and the tool registry into a gin engine.
type Server struct {
	router   *swarm.Router
	registry *tools.Registry
	store    storage.Store
	log      *logger.Logger
	engine   *gin.Engine
}

// New builds the HTTP server. mode follows gin's debug/release/test modes.
func New(router *swarm.Router, registry *tools.Registry, store storage.Store, log *logger.Logger, mode string) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		router:   router,
		registry: registry,
		store:    store,
		log:      log.With("component", "server"),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), s.requestLogger())
	engine.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
	}))

	engine.GET("/healthz", s.handleHealth)
	engine.POST("/swarm", s.handleSwarm)
	engine.POST("/mcp/invoke", s.handleInvoke)

	s.engine = engine
	return s
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

// Run serves HTTP on addr until the listener fails.
func (s *Server) Run(addr string) error {
	s.log.Info("http server listening", "addr", addr)
	return s.engine.Run(addr)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleSwarm(c *gin.Context) {
	var req SwarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	s.saveMessage(c, req.UserID, storage.RoleUser, req.Message)

	resp, err := s.router.RouteAndRespond(c.Request.Context(), req.Message, req.UserID)
	if err != nil {
		s.log.Error("swarm request failed", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	s.saveMessage(c, req.UserID, storage.RoleAssistant, resp.Answer)

	c.JSON(http.StatusOK, SwarmResponse{
		Answer:        resp.Answer,
		Sources:       resp.Sources,
		UsedRetrieval: resp.UsedRetrieval,
		UserID:        req.UserID,
		ToolsUsed:     resp.ToolsUsed,
	})
}

// saveMessage persists one side of the conversation. History is best-effort;
// a storage fault must not fail the chat request.
func (s *Server) saveMessage(c *gin.Context, userID, role, text string) {
	m := &storage.Message{Role: role, Text: text}
	if err := s.store.AppendMessage(c.Request.Context(), userID, m); err != nil {
		s.log.Warn("message persistence failed", "user_id", userID, "role", role, "error", err)
	}
}

func (s *Server) handleInvoke(c *gin.Context) {
	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}

	result, err := s.registry.Invoke(c.Request.Context(), req.ToolID, req.Parameters)
	if err != nil {
		if errors.Is(err, tools.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": fmt.Sprintf("Ferramenta '%s' não reconhecida.", req.ToolID)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tool_id": req.ToolID, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tool_id": req.ToolID, "result": result})
}
