package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagehound/internal/domain"
	"imagehound/internal/infra/config"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRegistryOrderAndFilters(t *testing.T) {
	logger := testLogger()
	r := NewRegistry(
		NewGoogle(),
		nil,
		NewTinEye(logger),
		NewSauceNAO("", logger),
	)

	require.Equal(t, 3, r.Len())
	all := r.All()
	assert.Equal(t, "Google", all[0].Name())
	assert.Equal(t, "TinEye", all[1].Name())
	assert.Equal(t, "SauceNAO", all[2].Name())

	pre := r.PreWork()
	require.Len(t, pre, 1)
	assert.Equal(t, "TinEye", pre[0].Name())

	bm := r.BestMatch()
	require.Len(t, bm, 1)
	assert.Equal(t, "SauceNAO", bm[0].Name())

	assert.NotNil(t, r.Get("Google"))
	assert.Nil(t, r.Get("AltaVista"))
}

func TestBuildRegistryDefaults(t *testing.T) {
	r := BuildRegistry(config.EnginesConfig{}, testLogger())

	require.Equal(t, 8, r.Len())
	names := make([]string, 0, r.Len())
	for _, e := range r.All() {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{"Google", "Bing", "Yandex", "IQDB", "TinEye", "Ascii2D", "SauceNAO", "Trace"}, names)

	// Deep-lookup engines come wrapped with the breaker.
	_, ok := r.Get("SauceNAO").(*BreakerEngine)
	assert.True(t, ok)
}

func TestBuildRegistryDisabledList(t *testing.T) {
	r := BuildRegistry(config.EnginesConfig{Disabled: []string{"Bing", "Trace"}}, testLogger())

	assert.Equal(t, 6, r.Len())
	assert.Nil(t, r.Get("Bing"))
	assert.Nil(t, r.Get("Trace"))
	assert.NotNil(t, r.Get("Google"))
}

func TestSearchButtonEscapesImageURL(t *testing.T) {
	g := NewGoogle()
	b := g.SearchButton("https://img.example/a b.jpg?x=1&y=2", "")
	require.NotNil(t, b)
	assert.Equal(t, "Google", b.Text)
	assert.Contains(t, b.URL, "https%3A%2F%2Fimg.example%2Fa+b.jpg%3Fx%3D1%26y%3D2")
	assert.NotContains(t, b.URL[len("https://"):], " ")

	labeled := g.SearchButton("https://img.example/a.jpg", "More")
	require.NotNil(t, labeled)
	assert.Equal(t, "More", labeled.Text)

	assert.Nil(t, g.SearchButton("", ""), "no image URL means no button")
}

func TestHostLabel(t *testing.T) {
	assert.Equal(t, "Donmai", hostLabel("https://danbooru.donmai.us/posts/123"))
	assert.Equal(t, "Pixiv", hostLabel("https://www.pixiv.net/en/artworks/9"))
	assert.Equal(t, "Link", hostLabel("not a url"))
}

var _ domain.PreWorkEngine = (*TinEye)(nil)
var _ domain.PreWorkEngine = (*Ascii2D)(nil)
var _ domain.BestMatchEngine = (*IQDB)(nil)
var _ domain.BestMatchEngine = (*SauceNAO)(nil)
var _ domain.BestMatchEngine = (*TraceMoe)(nil)
var _ domain.BestMatchEngine = (*BreakerEngine)(nil)
