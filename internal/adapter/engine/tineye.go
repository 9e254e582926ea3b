package engine

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"imagehound/internal/domain"
)

var tineyeResultsRe = regexp.MustCompile(`([\d,]+)\s+results?`)

// TinEye finds exact and modified copies of photos. The free site gives no
// API, so the engine pre-fetches the result page and only offers a button
// when TinEye actually has matches.
type TinEye struct {
	Base
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewTinEye creates the TinEye engine.
func NewTinEye(logger *slog.Logger) *TinEye {
	return &TinEye{
		Base: NewBase(Descriptor{
			Name:        "TinEye",
			ProviderURL: "https://tineye.com",
			Description: "Exact-copy search, good at finding where a photo has been republished.",
			Recommendation: []string{
				"Photos",
				"Finding the original source of an image",
			},
			Types: []string{"General", "Photos"},
		}),
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://tineye.com",
		logger:  logger,
	}
}

// PlaceholderButton implements domain.PreWorkEngine.
func (e *TinEye) PlaceholderButton() *domain.Button {
	return waitingButton(e.Name())
}

// ResolveButton fetches the result page and declines when TinEye reports
// zero results.
func (e *TinEye) ResolveButton(ctx context.Context, imageURL string) *domain.Button {
	searchURL := e.baseURL + "/search?url=" + url.QueryEscape(imageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil
	}

	resp, err := e.client.Do(req)
	if err != nil {
		e.logger.Debug("tineye request failed", "error", err)
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		e.logger.Debug("tineye returned non-ok status", "status", resp.StatusCode)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil
	}

	if countResults(doc) == 0 {
		return nil
	}
	return &domain.Button{Text: e.Name(), URL: searchURL}
}

// countResults extracts the match count from the result page heading.
func countResults(doc *goquery.Document) int {
	text := doc.Find("h2, .matches").Text()
	m := tineyeResultsRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0
	}
	return n
}
