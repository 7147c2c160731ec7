package videotag

import (
	"context"
	"errors"
)

// ErrFileNotFound is returned by a FileRepository when no file has the given name.
var ErrFileNotFound = errors.New("file not found")

// MessageInvalidSource is the message key shown when a tag source cannot be resolved.
const MessageInvalidSource = "h5video-invalid-source"

// TagAttributes are the key/value pairs written inside an opening tag.
// Keys and values are untrusted.
type TagAttributes map[string]string

// TagHandler renders one occurrence of an extension tag into HTML.
type TagHandler func(ctx context.Context, content string, attrs TagAttributes, frame Frame) string

// TagRegistry accepts extension tag handlers.
type TagRegistry interface {
	Register(tagName string, handler TagHandler)
}

// Frame is the parser state a tag handler runs in.
type Frame interface {
	// Expand recursively resolves template and parameter syntax in text.
	Expand(text string) string
	// Output is the metadata sink of the page being rendered.
	Output() OutputSink
}

// OutputSink collects per-page link metadata.
type OutputSink interface {
	AddExternalLink(url string)
	AddImageUsage(identifier string)
}

// File is a media file known to a FileRepository.
type File interface {
	FullURL() string
	Identifier() string
}

// FileRepository looks up uploaded media by name.
//
// FindFile returns ErrFileNotFound (possibly wrapped) when the file does not
// exist. Any other error is treated by the renderer as not found as well.
type FileRepository interface {
	FindFile(ctx context.Context, name string) (File, error)
}

// MessageProvider returns localized plain-text interface messages.
type MessageProvider interface {
	Message(key string) string
}

type nopFrame struct{}

func (nopFrame) Expand(text string) string { return text }
func (nopFrame) Output() OutputSink       { return nopSink{} }

type nopSink struct{}

func (nopSink) AddExternalLink(string) {}
func (nopSink) AddImageUsage(string)   {}
