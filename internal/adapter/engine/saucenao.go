package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"imagehound/internal/domain"
)

const (
	saucenaoMinSimilarity = 55.0
	saucenaoMaxBody       = 1 * 1024 * 1024
)

// saucenaoResponse models the relevant portion of the SauceNAO JSON API.
type saucenaoResponse struct {
	Header struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"header"`
	Results []struct {
		Header struct {
			Similarity string `json:"similarity"`
			Thumbnail  string `json:"thumbnail"`
			IndexName  string `json:"index_name"`
		} `json:"header"`
		Data struct {
			ExtURLs    []string `json:"ext_urls"`
			Title      string   `json:"title"`
			MemberName string   `json:"member_name"`
			Creator    any      `json:"creator"`
			Source     string   `json:"source"`
			Part       string   `json:"part"`
		} `json:"data"`
	} `json:"results"`
}

// SauceNAO is the workhorse for anime, manga and fan art. The search link
// needs no pre-work; deep lookups go through the JSON API.
type SauceNAO struct {
	Base
	client  *http.Client
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewSauceNAO creates the SauceNAO engine. The API key is optional but
// strongly rate-limited without one.
func NewSauceNAO(apiKey string, logger *slog.Logger) *SauceNAO {
	return &SauceNAO{
		Base: NewBase(Descriptor{
			Name:        "SauceNAO",
			ProviderURL: "https://saucenao.com",
			Description: "Index of Pixiv, Danbooru, anime screencaps, doujin and more.",
			Recommendation: []string{
				"Anime artwork",
				"Finding the artist of an illustration",
			},
			Types:       []string{"Anime", "Artwork", "Manga"},
			URLTemplate: "https://saucenao.com/search.php?url=%s",
		}),
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://saucenao.com",
		apiKey:  apiKey,
		logger:  logger,
	}
}

// BestMatch queries the JSON API for the single closest match.
func (e *SauceNAO) BestMatch(ctx context.Context, imageURL string) (domain.ResultFields, *domain.ResultMeta, error) {
	q := url.Values{
		"output_type": {"2"},
		"numres":      {"1"},
		"url":         {imageURL},
	}
	if e.apiKey != "" {
		q.Set("api_key", e.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.baseURL+"/search.php?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("saucenao request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, saucenaoMaxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("saucenao returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed saucenaoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("parse saucenao response: %w", err)
	}
	if parsed.Header.Status != 0 {
		return nil, nil, fmt.Errorf("saucenao api status %d: %s", parsed.Header.Status, parsed.Header.Message)
	}
	if len(parsed.Results) == 0 {
		return nil, nil, nil
	}

	best := parsed.Results[0]
	similarity, _ := strconv.ParseFloat(best.Header.Similarity, 64)
	if similarity < saucenaoMinSimilarity {
		e.logger.Debug("saucenao match below threshold", "similarity", similarity)
		return nil, nil, nil
	}

	var fields domain.ResultFields
	if best.Data.Title != "" {
		fields = fields.Set("Title", best.Data.Title)
	}
	if best.Data.MemberName != "" {
		fields = fields.Set("Artist", best.Data.MemberName)
	}
	if best.Data.Part != "" {
		fields = fields.Set("Part", best.Data.Part)
	}
	if best.Data.Source != "" {
		fields = fields.Set("Source", best.Data.Source)
	}

	identifier := ""
	var buttons []domain.Button
	for _, ext := range best.Data.ExtURLs {
		if identifier == "" {
			identifier = ext
		}
		buttons = append(buttons, domain.Button{Text: hostLabel(ext), URL: ext})
	}

	rounded := int(math.Round(similarity))
	meta := &domain.ResultMeta{
		Provider:            e.Name(),
		ProviderURL:         e.ProviderURL(),
		Via:                 best.Header.IndexName,
		Similarity:          &rounded,
		Thumbnail:           best.Header.Thumbnail,
		Identifier:          identifier,
		ThumbnailIdentifier: best.Header.Thumbnail,
		Buttons:             buttons,
	}
	return fields, meta, nil
}
