package engine

import (
	"context"
	"fmt"
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

const iqdbMinSimilarity = 70

var (
	iqdbSimilarityRe = regexp.MustCompile(`(\d+)% similarity`)
	iqdbSizeRe       = regexp.MustCompile(`(\d+)[×x](\d+)`)
)

// IQDB searches the major booru sites. The result page is plain HTML, so the
// deep lookup scrapes the best-match table.
type IQDB struct {
	Base
	client  *http.Client
	baseURL string
	logger  *slog.Logger
}

// NewIQDB creates the IQDB engine.
func NewIQDB(logger *slog.Logger) *IQDB {
	return &IQDB{
		Base: NewBase(Descriptor{
			Name:        "IQDB",
			ProviderURL: "https://iqdb.org",
			Description: "Multi-service anime and artwork search over Danbooru, Gelbooru, Zerochan and friends.",
			Recommendation: []string{
				"Anime artwork",
				"Manga panels",
			},
			Types:       []string{"Anime", "Artwork"},
			URLTemplate: "https://iqdb.org/?url=%s",
		}),
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://iqdb.org",
		logger:  logger,
	}
}

// BestMatch fetches the IQDB result page and extracts the best-match entry.
func (e *IQDB) BestMatch(ctx context.Context, imageURL string) (domain.ResultFields, *domain.ResultMeta, error) {
	reqURL := e.baseURL + "/?url=" + url.QueryEscape(imageURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("iqdb request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("iqdb returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("parse iqdb response: %w", err)
	}

	var (
		fields domain.ResultFields
		meta   *domain.ResultMeta
	)

	doc.Find("#pages table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if strings.TrimSpace(table.Find("th").First().Text()) != "Best match" {
			return true
		}

		link, ok := table.Find("td.image a").Attr("href")
		if !ok {
			return true
		}
		matchURL := absoluteURL(link)

		similarity := 0
		if m := iqdbSimilarityRe.FindStringSubmatch(table.Text()); m != nil {
			similarity, _ = strconv.Atoi(m[1])
		}
		if similarity < iqdbMinSimilarity {
			e.logger.Debug("iqdb match below threshold", "similarity", similarity)
			return false
		}

		img := table.Find("td.image img")
		thumb := ""
		if src, ok := img.Attr("src"); ok {
			thumb = e.baseURL + src
		}

		fields = fields.Set("Source", hostLabel(matchURL))
		if m := iqdbSizeRe.FindStringSubmatch(table.Text()); m != nil {
			fields = fields.Set("Size", m[1]+"×"+m[2])
		}
		if alt, ok := img.Attr("alt"); ok {
			if tags := iqdbTags(alt); tags != "" {
				fields = fields.Set("Tags", tags)
			}
		}

		meta = &domain.ResultMeta{
			Provider:            e.Name(),
			ProviderURL:         e.ProviderURL(),
			Similarity:          &similarity,
			Thumbnail:           thumb,
			Identifier:          matchURL,
			ThumbnailIdentifier: thumb,
			Buttons:             []domain.Button{{Text: hostLabel(matchURL), URL: matchURL}},
		}
		return false
	})

	return fields, meta, nil
}

// iqdbTags converts the thumbnail alt text ("Rating: s Score: 30 Tags: a b c")
// into a hashtag line. At most ten tags to keep replies short.
func iqdbTags(alt string) string {
	_, raw, ok := strings.Cut(alt, "Tags:")
	if !ok {
		return ""
	}
	words := strings.Fields(raw)
	if len(words) > 10 {
		words = words[:10]
	}
	var sb strings.Builder
	for _, w := range words {
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('#')
		sb.WriteString(sanitizeTag(w))
	}
	return sb.String()
}

func sanitizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// absoluteURL fixes protocol-relative links the booru sites hand back.
func absoluteURL(link string) string {
	if strings.HasPrefix(link, "//") {
		return "https:" + link
	}
	return link
}

// hostLabel derives a short display name from a URL host
// ("danbooru.donmai.us" -> "Donmai").
func hostLabel(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "Link"
	}
	name := u.Host
	if parts := strings.Split(u.Host, "."); len(parts) >= 2 {
		name = parts[len(parts)-2]
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
