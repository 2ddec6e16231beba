// Package http provides the HTTP server infrastructure.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/himanshuarya/portfolio-rag/internal/domain/entities"
	"github.com/himanshuarya/portfolio-rag/internal/domain/ports"
	"github.com/himanshuarya/portfolio-rag/internal/domain/usecases"
	"github.com/himanshuarya/portfolio-rag/internal/metrics"
)

// Client-facing messages. Internal detail only goes to the log.
const (
	msgAIError        = "AI error"
	msgInvalidBody    = "invalid request body"
	msgMissingMessage = "message is required"
)

// DefaultBodyLimit caps request bodies.
const DefaultBodyLimit = "2M"

// ChatService answers chat requests. Implemented by usecases.ChatUseCase.
type ChatService interface {
	Chat(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error)
	ChatStream(ctx context.Context, req *entities.ChatRequest) (<-chan ports.StreamToken, error)
}

// Config configures the HTTP server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	BodyLimit      string

	// Metrics, when set, records chat requests and serves GET /metrics.
	Metrics *metrics.PrometheusExporter
}

// Server is the HTTP gateway for the chat API.
type Server struct {
	echo    *echo.Echo
	chat    ChatService
	metrics *metrics.PrometheusExporter
	addr    string
	now     func() time.Time
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(chat ChatService, cfg Config) *Server {
	if cfg.BodyLimit == "" {
		cfg.BodyLimit = DefaultBodyLimit
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{
		echo:    e,
		chat:    chat,
		metrics: cfg.Metrics,
		addr:    cfg.Addr,
		now:     time.Now,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				level = slog.LevelWarn
				attrs = append(attrs, slog.String("error", v.Error.Error()))
			}
			slog.LogAttrs(c.Request().Context(), level, "HTTP request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderContentType, echo.HeaderAccept},
		AllowCredentials: true,
	}))
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	api := e.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/chat/stream", s.handleChatStream) // SSE streaming
	api.GET("/health", s.handleHealth)

	if s.metrics != nil {
		e.GET("/metrics", echo.WrapHandler(s.metrics.Handler()))
	}

	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (s *Server) Start(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.echo,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      300 * time.Second, // Longer for streaming
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown failed", "error", err)
		}
	}()

	slog.Info("HTTP server starting", "addr", s.addr)
	if err := s.echo.StartServer(server); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type chatRequest struct {
	Message string                 `json:"message"`
	History []entities.ChatMessage `json:"history"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	OK   bool   `json:"ok"`
	Time string `json:"time"`
}

// streamEvent is one SSE data frame of /api/chat/stream.
type streamEvent struct {
	Content string `json:"content,omitempty"`
	Done    bool   `json:"done,omitempty"`
	Reply   string `json:"reply,omitempty"`
	Error   string `json:"error,omitempty"`
}

func bindChat(c echo.Context) (*entities.ChatRequest, error) {
	var req chatRequest
	if err := (&echo.DefaultBinder{}).BindBody(c, &req); err != nil {
		return nil, errors.New(msgInvalidBody)
	}
	if strings.TrimSpace(req.Message) == "" {
		return nil, errors.New(msgMissingMessage)
	}
	return &entities.ChatRequest{Message: req.Message, History: req.History}, nil
}

// handleChat answers one message with a complete reply.
func (s *Server) handleChat(c echo.Context) error {
	start := s.now()

	req, err := bindChat(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	resp, err := s.chat.Chat(c.Request().Context(), req)
	s.record(metrics.ModeSync, start, err == nil)
	if err != nil {
		s.logChatError(c, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgAIError})
	}

	return c.JSON(http.StatusOK, chatResponse{Reply: resp.Reply})
}

// handleChatStream answers one message as a stream of SSE frames.
// Failures before the first frame use the same JSON error as handleChat.
func (s *Server) handleChatStream(c echo.Context) error {
	start := s.now()

	req, err := bindChat(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	tokens, err := s.chat.ChatStream(c.Request().Context(), req)
	if err != nil {
		s.record(metrics.ModeStream, start, false)
		s.logChatError(c, err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Error: msgAIError})
	}

	// Set SSE headers
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	var (
		reply     strings.Builder
		completed bool
	)
	for token := range tokens {
		if token.Error != nil {
			s.logChatError(c, token.Error)
			_ = sendSSE(res, streamEvent{Done: true, Error: msgAIError})
			break
		}
		if token.Content != "" {
			reply.WriteString(token.Content)
			if err := sendSSE(res, streamEvent{Content: token.Content}); err != nil {
				break
			}
		}
		if token.Done {
			completed = sendSSE(res, streamEvent{Done: true, Reply: reply.String()}) == nil
			break
		}
	}

	s.record(metrics.ModeStream, start, completed)
	return nil
}

// handleHealth returns server health status.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, healthResponse{
		OK:   true,
		Time: s.now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	})
}

func (s *Server) record(mode string, start time.Time, success bool) {
	if s.metrics != nil {
		s.metrics.RecordChatRequest(mode, s.now().Sub(start), success)
	}
}

func (s *Server) logChatError(c echo.Context, err error) {
	stage := "unknown"
	switch {
	case errors.Is(err, usecases.ErrRetrievalFailed):
		stage = "retrieval"
	case errors.Is(err, usecases.ErrCompletionFailed):
		stage = "completion"
	}
	slog.Error("Chat failed",
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"stage", stage,
		"error", err)
}

func sendSSE(res *echo.Response, event streamEvent) error {
	jsonData, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	res.Flush()
	return nil
}

// errorHandler renders every echo error as {"error": "..."}.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			msg = m
		} else {
			msg = http.StatusText(code)
		}
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorResponse{Error: msg})
	}
	if err != nil {
		slog.Error("Failed to write error response", "error", err)
	}
}
