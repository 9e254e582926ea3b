package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"imagehound/internal/domain"
)

// Ascii2D searches Japanese artwork by color and feature matching. A search
// is created with a POST whose redirect target is the shareable result page,
// so a round trip is needed before a button exists.
type Ascii2D struct {
	Base
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewAscii2D creates the Ascii2D engine.
func NewAscii2D(logger *slog.Logger) *Ascii2D {
	client := &http.Client{
		Timeout: 15 * time.Second,
		// The redirect target IS the result; don't follow it.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &Ascii2D{
		Base: NewBase(Descriptor{
			Name:        "Ascii2D",
			ProviderURL: "https://ascii2d.net",
			Description: "Japanese artwork search by color and feature matching.",
			Recommendation: []string{
				"Japanese artwork",
				"Images cropped from larger works",
			},
			Types: []string{"Anime", "Artwork"},
		}),
		client:  client,
		baseURL: "https://ascii2d.net",
		logger:  logger,
	}
}

// PlaceholderButton implements domain.PreWorkEngine.
func (e *Ascii2D) PlaceholderButton() *domain.Button {
	return waitingButton(e.Name())
}

// ResolveButton creates the search and returns a button for the redirect
// target, or nil when Ascii2D refuses the image.
func (e *Ascii2D) ResolveButton(ctx context.Context, imageURL string) *domain.Button {
	form := url.Values{"uri": {imageURL}}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		e.baseURL+"/search/uri", strings.NewReader(form.Encode()))
	if err != nil {
		return nil
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("ascii2d request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode >= 400 {
		e.logger.Debug("ascii2d did not redirect", "status", resp.StatusCode)
		return nil
	}

	location := resp.Header.Get("Location")
	if location == "" {
		return nil
	}
	if strings.HasPrefix(location, "/") {
		location = e.baseURL + location
	}
	return &domain.Button{Text: e.Name(), URL: location}
}
