package engine

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func saucenaoJSON(similarity string) string {
	return fmt.Sprintf(`{
	  "header": {"status": 0},
	  "results": [{
	    "header": {
	      "similarity": %q,
	      "thumbnail": "https://img3.saucenao.com/booru/thumb.jpg",
	      "index_name": "Index #5: Pixiv Images"
	    },
	    "data": {
	      "ext_urls": ["https://www.pixiv.net/artworks/111", "https://danbooru.donmai.us/posts/222"],
	      "title": "Moonlit Garden",
	      "member_name": "somename",
	      "part": "ch. 3"
	    }
	  }]
	}`, similarity)
}

func newSauceNAOServer(t *testing.T, body string) (*SauceNAO, *http.Request) {
	t.Helper()
	captured := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = *r
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	e := NewSauceNAO("secret-key", testLogger())
	e.baseURL = srv.URL
	return e, captured
}

func TestSauceNAOBestMatch(t *testing.T) {
	e, req := newSauceNAOServer(t, saucenaoJSON("93.4"))

	fields, meta, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	require.NotNil(t, meta)

	q := req.URL.Query()
	assert.Equal(t, "2", q.Get("output_type"))
	assert.Equal(t, "1", q.Get("numres"))
	assert.Equal(t, "secret-key", q.Get("api_key"))
	assert.Equal(t, "https://img.example/a.jpg", q.Get("url"))

	assert.Equal(t, "SauceNAO", meta.Provider)
	assert.Equal(t, "Index #5: Pixiv Images", meta.Via)
	require.NotNil(t, meta.Similarity)
	assert.Equal(t, 93, *meta.Similarity)
	assert.Equal(t, "https://www.pixiv.net/artworks/111", meta.Identifier)
	assert.Equal(t, "https://img3.saucenao.com/booru/thumb.jpg", meta.ThumbnailIdentifier)

	require.Len(t, meta.Buttons, 2)
	assert.Equal(t, "Pixiv", meta.Buttons[0].Text)
	assert.Equal(t, "Donmai", meta.Buttons[1].Text)

	var title, artist, part string
	for _, f := range fields {
		switch f.Key {
		case "Title":
			title = f.Value
		case "Artist":
			artist = f.Value
		case "Part":
			part = f.Value
		}
	}
	assert.Equal(t, "Moonlit Garden", title)
	assert.Equal(t, "somename", artist)
	assert.Equal(t, "ch. 3", part)
}

func TestSauceNAOBelowThreshold(t *testing.T) {
	e, _ := newSauceNAOServer(t, saucenaoJSON("42.0"))

	fields, meta, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Empty(t, fields)
}

func TestSauceNAONoResults(t *testing.T) {
	e, _ := newSauceNAOServer(t, `{"header": {"status": 0}, "results": []}`)

	_, meta, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestSauceNAOAPIError(t *testing.T) {
	e, _ := newSauceNAOServer(t, `{"header": {"status": -2, "message": "Search Rate Too High."}}`)

	_, _, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Search Rate Too High")
}

func TestSauceNAOOmitsAPIKeyWhenUnset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("api_key"))
		w.Write([]byte(`{"header": {"status": 0}, "results": []}`))
	}))
	defer srv.Close()

	e := NewSauceNAO("", testLogger())
	e.baseURL = srv.URL

	_, _, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
}
