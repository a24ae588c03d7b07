package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	logging "github.com/ipfs/go-log/v2"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"github.com/flowgate/flowgate/internal/api"
	"github.com/flowgate/flowgate/internal/config"
	"github.com/flowgate/flowgate/internal/relay"
)

var log = logging.Logger("server")

// Server represents the HTTP server instance
type Server struct {
	echo   *echo.Echo
	config *config.Config
}

// NewServer creates a new server instance with the provided configuration
func NewServer(cfg *config.Config, service *relay.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())

	cookieStore := sessions.NewCookieStore([]byte(cfg.Server.SessionKey))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 1 week
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	e.Use(session.Middleware(cookieStore))

	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.ReadHeaderTimeout = cfg.Server.ReadTimeout
	e.Server.IdleTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	api.RegisterRoutes(e, service)

	return &Server{
		echo:   e,
		config: cfg,
	}, nil
}

// Start hooks the server into the fx application lifecycle.
func Start(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := s.config.Server.Address()
			log.Infow("starting HTTP server", "addr", addr)

			go func() {
				if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
					log.Errorw("server start failed", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server")
			return s.echo.Shutdown(ctx)
		},
	})
}

// Echo returns the underlying Echo instance for advanced configuration
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
