// Package messages holds the localized interface messages shown by the video tag.
package messages

import (
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/language"
	"thirdcoast.systems/h5video/pkg/videotag"
)

var builtin = map[language.Tag]map[string]string{
	language.English: {
		videotag.MessageInvalidSource: "Invalid video source. Use an http(s):// URL or File:Name of an uploaded file.",
	},
	language.German: {
		videotag.MessageInvalidSource: "Ungültige Videoquelle. Erlaubt sind http(s)://-Adressen oder File:Name einer hochgeladenen Datei.",
	},
	language.French: {
		videotag.MessageInvalidSource: "Source vidéo invalide. Utilisez une adresse http(s):// ou File:Nom d’un fichier téléversé.",
	},
}

// Catalog is an immutable set of messages per language. English is the
// fallback for every language.
type Catalog struct {
	messages map[language.Tag]map[string]string
	matcher  language.Matcher
	tags     []language.Tag
}

// NewCatalog returns the built-in catalog with overrides applied on top of
// the English messages. Overrides are sanitized because messages are emitted
// into pages without escaping.
func NewCatalog(overrides map[string]string) *Catalog {
	policy := bluemonday.UGCPolicy()

	messages := make(map[language.Tag]map[string]string, len(builtin))
	for tag, m := range builtin {
		copied := make(map[string]string, len(m))
		for k, v := range m {
			copied[k] = v
		}
		messages[tag] = copied
	}
	for k, v := range overrides {
		messages[language.English][k] = policy.Sanitize(v)
	}

	// English first: it is the matcher's fallback.
	tags := []language.Tag{language.English}
	for tag := range messages {
		if tag != language.English {
			tags = append(tags, tag)
		}
	}

	return &Catalog{
		messages: messages,
		matcher:  language.NewMatcher(tags),
		tags:     tags,
	}
}

// Match returns the best supported language for an Accept-Language header
// or a plain language code.
func (c *Catalog) Match(accept string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(prefs) == 0 {
		return language.English
	}
	_, idx, _ := c.matcher.Match(prefs...)
	return c.tags[idx]
}

// For returns a provider for lang, falling back to English.
func (c *Catalog) For(lang language.Tag) Provider {
	return Provider{catalog: c, lang: lang}
}

// Provider implements videotag.MessageProvider for a single language.
type Provider struct {
	catalog *Catalog
	lang    language.Tag
}

func (p Provider) Message(key string) string {
	if m, ok := p.catalog.messages[p.lang][key]; ok {
		return m
	}
	if m, ok := p.catalog.messages[language.English][key]; ok {
		return m
	}
	return "⧼" + key + "⧽"
}

// ParseOverrides reads "key=value;key=value" pairs.
func ParseOverrides(raw string) (map[string]string, error) {
	out := map[string]string{}
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		k, v, ok := strings.Cut(part, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid message override %q", part)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
