package wikitext

import (
	"regexp"
	"sort"
	"strings"
	"sync"

	"thirdcoast.systems/h5video/pkg/videotag"
)

type registeredTag struct {
	handler videotag.TagHandler
	closing *regexp.Regexp
}

// Registry maps extension tag names to handlers. Names are case-insensitive.
type Registry struct {
	mu   sync.RWMutex
	tags map[string]registeredTag
}

func NewRegistry() *Registry {
	return &Registry{tags: map[string]registeredTag{}}
}

// Register installs handler for tagName, replacing any previous handler.
func (r *Registry) Register(tagName string, handler videotag.TagHandler) {
	name := strings.ToLower(strings.TrimSpace(tagName))
	if name == "" || handler == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags[name] = registeredTag{
		handler: handler,
		closing: regexp.MustCompile(`(?i)</` + regexp.QuoteMeta(name) + `\s*>`),
	}
}

// Tags returns the registered tag names, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tags))
	for name := range r.tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) lookup(name string) (registeredTag, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tags[strings.ToLower(name)]
	return t, ok
}
