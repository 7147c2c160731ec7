package wikitext

// ParserOutput collects the link metadata of a single parse. Entries keep
// first-seen order and are de-duplicated. It is not safe for concurrent use.
type ParserOutput struct {
	ExternalLinks []string `json:"external_links"`
	ImageUsages   []string `json:"image_usages"`

	seenLinks  map[string]struct{}
	seenImages map[string]struct{}
}

func NewParserOutput() *ParserOutput {
	return &ParserOutput{
		ExternalLinks: []string{},
		ImageUsages:   []string{},
		seenLinks:     map[string]struct{}{},
		seenImages:    map[string]struct{}{},
	}
}

func (o *ParserOutput) AddExternalLink(url string) {
	if _, ok := o.seenLinks[url]; ok {
		return
	}
	o.seenLinks[url] = struct{}{}
	o.ExternalLinks = append(o.ExternalLinks, url)
}

func (o *ParserOutput) AddImageUsage(identifier string) {
	if _, ok := o.seenImages[identifier]; ok {
		return
	}
	o.seenImages[identifier] = struct{}{}
	o.ImageUsages = append(o.ImageUsages, identifier)
}
