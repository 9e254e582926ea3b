package domain

import "context"

// Engine is one external reverse-image-search provider integration.
// Engines are stateless across calls and safe for concurrent use.
type Engine interface {
	Name() string
	ProviderURL() string
	Description() string
	// Recommendation lists what the engine is recommended for (help text).
	Recommendation() []string
	// Types lists the content kinds the engine indexes (help text).
	Types() []string

	// SearchButton produces a clickable search action for the hosted image.
	// It is pure URL templating with no network I/O, and may return nil when
	// the engine declines the image. An empty label uses the engine name.
	SearchButton(imageURL, label string) *Button
}

// PreWorkEngine is an engine that must perform a network round trip before a
// usable search action exists.
type PreWorkEngine interface {
	Engine

	// PlaceholderButton is the immediate "waiting" button shown while
	// ResolveButton runs. Nil means no placeholder for this engine.
	PlaceholderButton() *Button

	// ResolveButton performs the round trip and returns the final action.
	// Ordinary failures (timeout, no matches) return nil, not an error.
	// Safe to call from a worker goroutine.
	ResolveButton(ctx context.Context, imageURL string) *Button
}

// ResultField is one display field of a best-match result. Values beginning
// with "#" are tag-like and render as tag text rather than code.
type ResultField struct {
	Key   string
	Value string
}

// ResultFields is an ordered field list; order is preserved when rendering.
type ResultFields []ResultField

// Set appends a field, replacing the value in place when the key exists.
func (f ResultFields) Set(key, value string) ResultFields {
	for i := range f {
		if f[i].Key == key {
			f[i].Value = value
			return f
		}
	}
	return append(f, ResultField{Key: key, Value: value})
}

// ResultMeta describes one best-match lookup result.
type ResultMeta struct {
	Provider    string
	ProviderURL string

	// Secondary attribution ("with <via>").
	Via    string
	ViaURL string

	// Similarity in percent, 0-100. Nil when the provider reports none.
	Similarity *int

	// Thumbnail is a URL rendered as a hidden link so the chat client shows
	// a preview above the reply.
	Thumbnail string

	// Extra action buttons supplied by the engine.
	Buttons []Button

	// Identifier and ThumbnailIdentifier key cross-engine de-duplication.
	Identifier          string
	ThumbnailIdentifier string

	// Errors are appended verbatim to the rendered reply.
	Errors []string
}

// BestMatchEngine is an engine capable of deep lookups returning an actual
// matched image with metadata. A nil meta with nil error means the engine
// found nothing.
type BestMatchEngine interface {
	Engine
	BestMatch(ctx context.Context, imageURL string) (ResultFields, *ResultMeta, error)
}
