package ner

import (
	"log/slog"
	"sync"
)

// Registry hands out per-language taggers, building each at most once and
// holding it for process lifetime. Safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	taggers map[string]*Tagger
	logger  *slog.Logger
}

// NewRegistry creates an empty tagger registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		taggers: make(map[string]*Tagger),
		logger:  logger.With("component", "ner"),
	}
}

// Get returns the tagger for a language, building it on first use.
// Unsupported languages fall back to English.
func (r *Registry) Get(lang string) (*Tagger, error) {
	if _, ok := languages[lang]; !ok {
		r.logger.Debug("Unsupported language, falling back to en", "language", lang)
		lang = "en"
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.taggers[lang]; ok {
		return t, nil
	}

	t, err := newTagger(lang)
	if err != nil {
		return nil, err
	}
	r.taggers[lang] = t
	r.logger.Info("Loaded tagger", "language", lang)
	return t, nil
}

// Loaded returns the languages with built taggers, for health reporting.
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	langs := make([]string, 0, len(r.taggers))
	for l := range r.taggers {
		langs = append(langs, l)
	}
	return langs
}
