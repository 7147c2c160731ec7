package videotag

import (
	"regexp"
	"strings"
)

// SourceKind tells how the content of a tag was interpreted.
type SourceKind int

const (
	Unrecognized SourceKind = iota
	ExternalURL
	FileReference
)

func (k SourceKind) String() string {
	switch k {
	case ExternalURL:
		return "external_url"
	case FileReference:
		return "file"
	default:
		return "unrecognized"
	}
}

// Source is a classified tag content. Value is the URL for ExternalURL, the
// file name for FileReference and the expanded text for Unrecognized.
type Source struct {
	Kind  SourceKind
	Value string
}

var (
	externalURLPattern   = regexp.MustCompile(`(?i)^https?://.*$`)
	fileReferencePattern = regexp.MustCompile(`(?i)^file:(.*)$`)
)

// Classify interprets raw tag content.
//
// External URLs are returned before expansion so they are never reinterpreted
// as wiki syntax. Everything else is expanded first and then checked for a
// file: prefix. A nil expand leaves the text unchanged.
func Classify(content string, expand func(string) string) Source {
	text := strings.TrimSpace(content)
	if externalURLPattern.MatchString(text) {
		return Source{Kind: ExternalURL, Value: text}
	}

	if expand != nil {
		text = strings.TrimSpace(expand(text))
	}
	if m := fileReferencePattern.FindStringSubmatch(text); m != nil {
		return Source{Kind: FileReference, Value: m[1]}
	}

	return Source{Kind: Unrecognized, Value: text}
}
