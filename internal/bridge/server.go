package bridge

import (
	"context"
	"embed"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/teemow/inboxagent/internal/instrumentation"
	"github.com/teemow/inboxagent/internal/logging"
	"github.com/teemow/inboxagent/internal/server"
)

//go:embed static
var staticFS embed.FS

// SendRequest is the body of POST /send/:clientId.
type SendRequest struct {
	MimeType string `json:"mime_type" validate:"required"`
	Data     string `json:"data"`
}

// Config configures the bridge server.
type Config struct {
	Runner        Runner
	Metrics       *instrumentation.Metrics
	Logger        *slog.Logger
	HealthChecker *server.HealthChecker
}

// Server relays live sessions to browsers over server-sent events.
type Server struct {
	echo     *echo.Echo
	runner   Runner
	sessions *Sessions
	validate *validator.Validate
	metrics  *instrumentation.Metrics
	logger   *slog.Logger
}

// NewServer builds the bridge and its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("bridge runner is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:     e,
		runner:   cfg.Runner,
		sessions: NewSessions(cfg.Metrics),
		validate: validator.New(),
		metrics:  cfg.Metrics,
		logger:   logger,
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger())
	e.Use(s.requestMetrics)

	e.GET("/", s.handleIndex)
	e.StaticFS("/static", echo.MustSubFS(staticFS, "static"))
	e.GET("/events/:clientId", s.handleEvents)
	e.POST("/send/:clientId", s.handleSend)

	if cfg.HealthChecker != nil {
		cfg.HealthChecker.SetSessionCounter(s.sessions.Len)
		e.GET("/healthz", echo.WrapHandler(cfg.HealthChecker.LivenessHandler()))
		e.GET("/readyz", echo.WrapHandler(cfg.HealthChecker.ReadinessHandler()))
	} else {
		e.GET("/healthz", func(c echo.Context) error {
			return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
		})
	}

	return s, nil
}

// Handler returns the HTTP handler of the bridge.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Sessions returns the live session registry.
func (s *Server) Sessions() *Sessions {
	return s.sessions
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.echo.Listener = ln
	err := s.echo.Start("")
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Start listens on addr and serves until Shutdown.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	s.logger.Info("bridge listening", slog.String("addr", ln.Addr().String()))
	return s.Serve(ln)
}

// Shutdown closes all sessions and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.sessions.CloseAll(ctx)
	return s.echo.Shutdown(ctx)
}

func (s *Server) handleIndex(c echo.Context) error {
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, page)
}

func (s *Server) handleEvents(c echo.Context) error {
	clientID := c.Param("clientId")
	if err := s.validate.Var(clientID, "required,printascii,max=128"); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid client id"})
	}
	audio := c.QueryParam("is_audio") == "true"
	ctx := c.Request().Context()
	logger := logging.WithClientID(s.logger, clientID)

	sess, err := s.runner.Start(ctx, clientID, audio)
	if err != nil {
		logger.ErrorContext(ctx, "failed to start session", logging.Err(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to start session"})
	}
	s.sessions.Put(ctx, clientID, sess)
	logger.InfoContext(ctx, "client connected", slog.Bool("audio", audio), slog.String("session_id", sess.ID()))

	defer func() {
		_ = sess.Close()
		s.sessions.Remove(context.WithoutCancel(ctx), clientID, sess)
		logger.InfoContext(ctx, "client disconnected", slog.String("session_id", sess.ID()))
	}()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set(echo.HeaderConnection, "keep-alive")
	w.WriteHeader(http.StatusOK)
	w.Flush()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-sess.Events():
			if !ok {
				return nil
			}
			msg, forward := encodeEvent(ev)
			if !forward {
				continue
			}
			body, err := json.Marshal(msg)
			if err != nil {
				logger.WarnContext(ctx, "failed to encode event", logging.Err(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", body); err != nil {
				logger.WarnContext(ctx, "event stream write failed", logging.Err(err))
				return nil
			}
			w.Flush()
		}
	}
}

func (s *Server) handleSend(c echo.Context) error {
	clientID := c.Param("clientId")
	ctx := c.Request().Context()

	sess, err := s.sessions.Get(clientID)
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request payload"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("Invalid request: %v", err)})
	}

	logger := logging.WithClientID(s.logger, clientID)
	switch req.MimeType {
	case instrumentation.MimeTextPlain:
		if err := sess.SendText(ctx, req.Data); err != nil {
			return s.sendFailed(c, logger, err)
		}
		logger.DebugContext(ctx, "client message", logging.Query(req.Data))
	case instrumentation.MimeAudioPCM:
		data, err := base64.StdEncoding.DecodeString(req.Data)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid base64 audio data"})
		}
		if err := sess.SendRealtime(ctx, req.MimeType, data); err != nil {
			return s.sendFailed(c, logger, err)
		}
		logger.DebugContext(ctx, "client audio", slog.Int("bytes", len(data)))
	default:
		return c.JSON(http.StatusOK, map[string]string{"error": "Mime type not supported: " + req.MimeType})
	}

	s.metrics.RecordBridgeMessage(ctx, req.MimeType)
	return c.JSON(http.StatusOK, map[string]string{"status": "sent"})
}

func (s *Server) sendFailed(c echo.Context, logger *slog.Logger, err error) error {
	if errors.Is(err, ErrSessionClosed) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Session not found"})
	}
	logger.WarnContext(c.Request().Context(), "failed to deliver message", logging.Err(err))
	return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to deliver message"})
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			level := slog.LevelDebug
			if v.Status >= http.StatusInternalServerError {
				level = slog.LevelWarn
			}
			s.logger.LogAttrs(c.Request().Context(), level, "http request",
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("request_id", v.RequestID),
				logging.Err(v.Error),
			)
			return nil
		},
	})
}

func (s *Server) requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}
		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		s.metrics.RecordHTTPRequest(c.Request().Context(), c.Request().Method, path, status, time.Since(start))
		return err
	}
}
