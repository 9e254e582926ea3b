package engine

import (
	"fmt"
	"net/url"

	"imagehound/internal/domain"
)

// Descriptor holds the static identity of one engine. Engine names must be
// unique within a registry: buttons and callback payloads are keyed by name.
type Descriptor struct {
	Name           string
	ProviderURL    string
	Description    string
	Recommendation []string
	Types          []string
	// URLTemplate contains one %s verb receiving the query-escaped image URL.
	// Empty means the engine produces no synchronous search link.
	URLTemplate string
}

// Base implements the descriptor half of domain.Engine. Concrete engines
// embed it and add their lookup behavior.
type Base struct {
	d Descriptor
}

// NewBase creates a Base from a Descriptor.
func NewBase(d Descriptor) Base { return Base{d: d} }

func (b Base) Name() string             { return b.d.Name }
func (b Base) ProviderURL() string      { return b.d.ProviderURL }
func (b Base) Description() string      { return b.d.Description }
func (b Base) Recommendation() []string { return b.d.Recommendation }
func (b Base) Types() []string          { return b.d.Types }

// SearchButton templates the provider search URL. Pure string work.
func (b Base) SearchButton(imageURL, label string) *domain.Button {
	if b.d.URLTemplate == "" || imageURL == "" {
		return nil
	}
	if label == "" {
		label = b.d.Name
	}
	return &domain.Button{
		Text: label,
		URL:  fmt.Sprintf(b.d.URLTemplate, url.QueryEscape(imageURL)),
	}
}

// waitingButton is the shared placeholder shape for pre-work engines.
func waitingButton(name string) *domain.Button {
	return &domain.Button{
		Text:         "⌛ " + name,
		CallbackData: "wait_for " + name,
	}
}
