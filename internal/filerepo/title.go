// Package filerepo provides the file repositories the video tag resolves
// file: references against.
package filerepo

import (
	"fmt"
	"mime"
	"net/url"
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"thirdcoast.systems/h5video/pkg/videotag"
)

// ErrNotFound is returned when a file does not exist.
var ErrNotFound = videotag.ErrFileNotFound

// ErrInvalidTitle is returned for names that can never refer to a file.
// It matches ErrNotFound with errors.Is.
var ErrInvalidTitle = fmt.Errorf("invalid file title: %w", ErrNotFound)

var namespacePrefixes = []string{"file:", "media:"}

// NormalizeTitle converts a user-written file name into its storage key:
// "my clip.mp4" and "File:My_clip.mp4" both become "My_clip.mp4".
func NormalizeTitle(name string) (string, error) {
	title := strings.TrimSpace(name)
	lower := strings.ToLower(title)
	for _, p := range namespacePrefixes {
		if strings.HasPrefix(lower, p) {
			title = strings.TrimSpace(title[len(p):])
			break
		}
	}

	title = strings.Join(strings.FieldsFunc(title, func(r rune) bool {
		return r == ' ' || r == '_'
	}), "_")
	if title == "" || strings.Contains(title, "..") {
		return "", ErrInvalidTitle
	}
	for _, r := range title {
		if unicode.IsControl(r) || strings.ContainsRune(`/\#<>[]|{}`, r) || r == utf8.RuneError {
			return "", ErrInvalidTitle
		}
	}

	first, size := utf8.DecodeRuneInString(title)
	return string(unicode.ToUpper(first)) + title[size:], nil
}

// MediaFile is a resolved file.
type MediaFile struct {
	Title    string
	URL      string
	MIMEType string
	Size     int64
}

func (f *MediaFile) FullURL() string    { return f.URL }
func (f *MediaFile) Identifier() string { return f.Title }

func mediaURL(publicBaseURL, key string) string {
	return strings.TrimRight(publicBaseURL, "/") + "/media/" + escapePath(key)
}

func escapePath(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return strings.Join(segments, "/")
}

// mimeType guesses the type from the extension. Unknown extensions are
// served as the only type the video tag emits.
func mimeType(name string) string {
	if t := mime.TypeByExtension(path.Ext(name)); t != "" {
		return t
	}
	return videotag.VideoMIMEType
}
