// Package videotag renders the <video> wikitext tag into an HTML5 video element.
package videotag

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/mo"
)

// TagName is the extension tag handled by Renderer.
const TagName = "video"

// Observer is called once per render with the source kind and whether a
// playable URL was found.
type Observer func(kind SourceKind, resolved bool)

// Renderer turns <video> tag occurrences into HTML. It holds no per-call
// state and is safe for concurrent use.
type Renderer struct {
	files    FileRepository
	messages MessageProvider
	logger   *slog.Logger
	observer Observer
}

type Option func(*Renderer)

func WithLogger(l *slog.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.observer = o }
}

// NewRenderer builds a Renderer. files may be nil, in which case every file:
// reference is unresolvable.
func NewRenderer(files FileRepository, messages MessageProvider, opts ...Option) *Renderer {
	r := &Renderer{
		files:    files,
		messages: messages,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register installs the renderer as the handler of the video tag.
func (r *Renderer) Register(reg TagRegistry) {
	reg.Register(TagName, r.Render)
}

// Render produces the HTML for one tag occurrence. It always returns a
// fragment; sources that cannot be resolved produce error markup.
func (r *Renderer) Render(ctx context.Context, content string, attrs TagAttributes, frame Frame) string {
	if frame == nil {
		frame = nopFrame{}
	}

	opts := BuildOptionSet(attrs)
	src, url := r.ResolveURL(ctx, content, frame)
	if r.observer != nil {
		r.observer(src.Kind, url.IsPresent())
	}

	if u, ok := url.Get(); ok {
		html, err := renderString(ctx, videoElement(opts, u))
		if err == nil {
			return html
		}
		r.logger.Error("render video element", "error", err)
	}

	html, err := renderString(ctx, errorParagraph(r.message(MessageInvalidSource)))
	if err != nil {
		r.logger.Error("render error paragraph", "error", err)
		return ""
	}
	return html
}

// ResolveURL classifies content and resolves it to a playable URL, recording
// external links and file usages on the frame output.
func (r *Renderer) ResolveURL(ctx context.Context, content string, frame Frame) (Source, mo.Option[string]) {
	if frame == nil {
		frame = nopFrame{}
	}

	src := Classify(content, frame.Expand)
	switch src.Kind {
	case ExternalURL:
		frame.Output().AddExternalLink(src.Value)
		return src, mo.Some(src.Value)
	case FileReference:
		file, ok := r.findFile(ctx, src.Value)
		if !ok {
			return src, mo.None[string]()
		}
		frame.Output().AddImageUsage(file.Identifier())
		return src, mo.Some(file.FullURL())
	default:
		return src, mo.None[string]()
	}
}

func (r *Renderer) findFile(ctx context.Context, name string) (File, bool) {
	if r.files == nil {
		return nil, false
	}

	file, err := r.files.FindFile(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrFileNotFound) {
			r.logger.Warn("file lookup failed", "file", name, "error", err)
		}
		return nil, false
	}
	if file == nil {
		return nil, false
	}
	return file, true
}

func (r *Renderer) message(key string) string {
	if r.messages == nil {
		return key
	}
	return r.messages.Message(key)
}
