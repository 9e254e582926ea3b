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
	"time"

	"imagehound/internal/domain"
)

const (
	tracemoeMinSimilarity = 0.80
	tracemoeMaxBody       = 2 * 1024 * 1024
)

// tracemoeResponse models the relevant portion of the trace.moe JSON API.
type tracemoeResponse struct {
	Error  string `json:"error"`
	Result []struct {
		Anilist struct {
			ID    int64 `json:"id"`
			Title struct {
				Romaji  string `json:"romaji"`
				English string `json:"english"`
				Native  string `json:"native"`
			} `json:"title"`
			IsAdult bool `json:"isAdult"`
		} `json:"anilist"`
		Filename   string  `json:"filename"`
		Episode    any     `json:"episode"`
		From       float64 `json:"from"`
		Similarity float64 `json:"similarity"`
		Video      string  `json:"video"`
		Image      string  `json:"image"`
	} `json:"result"`
}

// TraceMoe locates the exact anime scene a screenshot came from.
type TraceMoe struct {
	Base
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewTraceMoe creates the trace.moe engine.
func NewTraceMoe(logger *slog.Logger) *TraceMoe {
	return &TraceMoe{
		Base: NewBase(Descriptor{
			Name:        "Trace",
			ProviderURL: "https://trace.moe",
			Description: "Anime scene search: tells you the show, episode and timestamp of a screenshot.",
			Recommendation: []string{
				"Anime screenshots",
				"Stickers cut from anime scenes",
			},
			Types:       []string{"Anime"},
			URLTemplate: "https://trace.moe/?auto&url=%s",
		}),
		client:  &http.Client{Timeout: 20 * time.Second},
		baseURL: "https://api.trace.moe",
		logger:  logger,
	}
}

// BestMatch queries the trace.moe API for the closest scene.
func (e *TraceMoe) BestMatch(ctx context.Context, imageURL string) (domain.ResultFields, *domain.ResultMeta, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		e.baseURL+"/search?anilistInfo&url="+url.QueryEscape(imageURL), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("trace.moe request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, tracemoeMaxBody))
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("trace.moe returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed tracemoeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, nil, fmt.Errorf("parse trace.moe response: %w", err)
	}
	if parsed.Error != "" {
		return nil, nil, fmt.Errorf("trace.moe api error: %s", parsed.Error)
	}
	if len(parsed.Result) == 0 {
		return nil, nil, nil
	}

	best := parsed.Result[0]
	if best.Similarity < tracemoeMinSimilarity {
		e.logger.Debug("trace.moe match below threshold", "similarity", best.Similarity)
		return nil, nil, nil
	}

	title := best.Anilist.Title.Romaji
	if title == "" {
		title = best.Anilist.Title.English
	}
	if title == "" {
		title = best.Anilist.Title.Native
	}

	var fields domain.ResultFields
	if title != "" {
		fields = fields.Set("Title", title)
	}
	if ep := episodeString(best.Episode); ep != "" {
		fields = fields.Set("Episode", ep)
	}
	fields = fields.Set("Timestamp", timestamp(best.From))

	similarity := int(math.Round(best.Similarity * 100))
	meta := &domain.ResultMeta{
		Provider:            e.Name(),
		ProviderURL:         e.ProviderURL(),
		Similarity:          &similarity,
		Thumbnail:           best.Image,
		Identifier:          fmt.Sprintf("anilist:%d", best.Anilist.ID),
		ThumbnailIdentifier: best.Image,
	}
	if best.Anilist.ID != 0 {
		meta.Buttons = append(meta.Buttons, domain.Button{
			Text: "AniList",
			URL:  fmt.Sprintf("https://anilist.co/anime/%d", best.Anilist.ID),
		})
	}
	if best.Video != "" {
		meta.Buttons = append(meta.Buttons, domain.Button{Text: "Scene", URL: best.Video})
	}
	return fields, meta, nil
}

// episodeString renders the episode field, which the API returns as a
// number, a string or null.
func episodeString(v any) string {
	switch ep := v.(type) {
	case float64:
		return fmt.Sprintf("%d", int64(ep))
	case string:
		return ep
	default:
		return ""
	}
}

// timestamp formats seconds into mm:ss.
func timestamp(seconds float64) string {
	total := int(seconds)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
