// Package render renders wikitext pages with the video tag installed.
package render

import (
	"context"
	"log/slog"

	"golang.org/x/text/language"
	"thirdcoast.systems/h5video/internal/messages"
	"thirdcoast.systems/h5video/internal/wikitext"
	"thirdcoast.systems/h5video/pkg/videotag"
)

type Service struct {
	files    videotag.FileRepository
	catalog  *messages.Catalog
	observer videotag.Observer
	logger   *slog.Logger
}

type Option func(*Service)

func WithObserver(o videotag.Observer) Option {
	return func(s *Service) { s.observer = o }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func NewService(files videotag.FileRepository, catalog *messages.Catalog, opts ...Option) *Service {
	s := &Service{
		files:   files,
		catalog: catalog,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.catalog == nil {
		s.catalog = messages.NewCatalog(nil)
	}
	return s
}

// Render parses text with args as template arguments. Error messages of the
// video tag are shown in lang.
func (s *Service) Render(ctx context.Context, lang language.Tag, text string, args map[string]string) *wikitext.Result {
	parser := wikitext.NewParser()
	videotag.NewRenderer(s.files, s.catalog.For(lang),
		videotag.WithLogger(s.logger),
		videotag.WithObserver(s.observer),
	).Register(parser)

	return parser.Parse(ctx, text, args)
}

// Catalog returns the message catalog used for localization.
func (s *Service) Catalog() *messages.Catalog {
	return s.catalog
}
