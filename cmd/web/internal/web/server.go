package web

import (
	"context"
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"thirdcoast.systems/h5video/cmd/web/handlers/api/fileserver"
	"thirdcoast.systems/h5video/cmd/web/handlers/api/files_api"
	"thirdcoast.systems/h5video/cmd/web/handlers/api/render_api"
	"thirdcoast.systems/h5video/cmd/web/handlers/content"
	"thirdcoast.systems/h5video/cmd/web/internal/telemetry"
	"thirdcoast.systems/h5video/internal/application"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/internal/messages"
	"thirdcoast.systems/h5video/internal/render"
)

// Options are the collaborators of the web server.
type Options struct {
	Files   *application.Files
	Catalog *messages.Catalog
	// DB is nil when no database is configured.
	DB db.TxBeginner
	// PersistLinks stores link metadata of rendered pages; it requires DB.
	PersistLinks bool
	// Registry defaults to a fresh prometheus registry.
	Registry *prometheus.Registry
}

type Webserver struct {
	*echo.Echo
	opts       Options
	service    *render.Service
	metrics    *telemetry.Metrics
	fileServer *fileserver.FileServer
}

func NewWebserver(ctx context.Context, opts Options) (*Webserver, error) {
	e := echo.New()

	if opts.Registry == nil {
		opts.Registry = prometheus.NewRegistry()
	}
	metrics := telemetry.NewMetrics(opts.Registry)

	var files *application.Files
	if opts.Files != nil {
		files = opts.Files
	} else {
		files = &application.Files{}
	}
	opts.Files = files

	webserver := &Webserver{
		Echo:    e,
		opts:    opts,
		metrics: metrics,
		service: render.NewService(files.FileRepository, opts.Catalog,
			render.WithObserver(metrics.ObserveTag),
		),
	}
	if files.Local != nil {
		webserver.fileServer = fileserver.NewFileServer(files.Local.Fs())
	}

	if err := webserver.registerRoutes(); err != nil {
		return nil, err
	}

	if err := webserver.setupMiddleware(); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "webserver configured",
		"local_media", webserver.fileServer != nil,
		"database", opts.DB != nil,
		"persist_links", opts.PersistLinks && opts.DB != nil,
	)
	return webserver, nil
}

func (s *Webserver) setupMiddleware() error {
	s.HideBanner = true
	s.HidePort = true
	s.Use(middleware.BodyLimit("2M"))
	s.Use(middleware.Recover())
	s.Use(middleware.RequestID())
	s.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level: 5,
		Skipper: func(c echo.Context) bool {
			// Range requests on media need the uncompressed body.
			return c.Path() == "/media/*"
		},
	}))
	s.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			switch c.Path() {
			case "/healthz", "/metrics":
				return true
			default:
				return false
			}
		},
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  false,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				"remote_ip", v.RemoteIP,
				"request_id", v.RequestID,
			}
			if v.Error != nil {
				fields = append(fields, "error", v.Error)
			}
			slog.Info("request", fields...)
			return nil
		},
	}))

	return nil
}

func (s *Webserver) registerRoutes() error {
	var store db.TxBeginner
	if s.opts.PersistLinks {
		store = s.opts.DB
	}

	apiGroup := s.Group("/api")
	apiGroup.POST("/render", render_api.HandleRender(s.service, store, s.metrics))
	apiGroup.GET("/files", files_api.HandleList(s.opts.Files.Lister))
	apiGroup.POST("/files", files_api.HandleRegister(s.opts.Files.Registrar))
	if s.opts.DB != nil {
		apiGroup.GET("/pages/:title/links", render_api.HandlePageLinks(s.opts.DB))
		apiGroup.GET("/files/:title/usage", files_api.HandleUsage(s.opts.DB))
	}

	if s.fileServer != nil {
		s.GET("/media/*", s.fileServer.HandleMedia("public, max-age=3600"))
	}

	s.GET("/preview", content.HandlePreview(s.service, s.metrics))

	s.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.opts.Registry, promhttp.HandlerOpts{})))

	// Health check
	s.GET("/healthz", func(c echo.Context) error {
		return c.String(200, "ok")
	})

	return nil
}
