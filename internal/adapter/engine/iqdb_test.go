package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iqdbBestMatchPage = `<html><body><div id="pages">
<div class="pages">
<table><tr><th>Your image</th></tr><tr><td class="image"><img src="/your.jpg"></td></tr></table>
<table>
  <tr><th>Best match</th></tr>
  <tr><td class="image"><a href="//danbooru.donmai.us/posts/12345"><img src="/thu/thu_abc.jpg" alt="Rating: s Score: 30 Tags: blue_sky 1girl scenery"></a></td></tr>
  <tr><td>800×600 [Safe]</td></tr>
  <tr><td>92% similarity</td></tr>
</table>
<table>
  <tr><th>Additional match</th></tr>
  <tr><td class="image"><a href="//gelbooru.com/posts/9"><img src="/thu/thu_def.jpg"></a></td></tr>
  <tr><td>54% similarity</td></tr>
</table>
</div></div></body></html>`

const iqdbNoMatchPage = `<html><body><div id="pages">
<table>
  <tr><th>Best match</th></tr>
  <tr><td class="image"><a href="//gelbooru.com/posts/9"><img src="/thu/thu_def.jpg"></a></td></tr>
  <tr><td>41% similarity</td></tr>
</table>
</div></body></html>`

func newIQDBServer(t *testing.T, page string) *IQDB {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.URL.Query().Get("url"))
		w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)

	e := NewIQDB(testLogger())
	e.baseURL = srv.URL
	return e
}

func TestIQDBBestMatch(t *testing.T) {
	e := newIQDBServer(t, iqdbBestMatchPage)

	fields, meta, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "IQDB", meta.Provider)
	require.NotNil(t, meta.Similarity)
	assert.Equal(t, 92, *meta.Similarity)
	assert.Equal(t, "https://danbooru.donmai.us/posts/12345", meta.Identifier)
	assert.Equal(t, e.baseURL+"/thu/thu_abc.jpg", meta.Thumbnail)
	assert.Equal(t, meta.Thumbnail, meta.ThumbnailIdentifier)

	require.Len(t, meta.Buttons, 1)
	assert.Equal(t, "Donmai", meta.Buttons[0].Text)

	var source, size, tags string
	for _, f := range fields {
		switch f.Key {
		case "Source":
			source = f.Value
		case "Size":
			size = f.Value
		case "Tags":
			tags = f.Value
		}
	}
	assert.Equal(t, "Donmai", source)
	assert.Equal(t, "800×600", size)
	assert.Equal(t, "#blue_sky #1girl #scenery", tags)
}

func TestIQDBBelowThreshold(t *testing.T) {
	e := newIQDBServer(t, iqdbNoMatchPage)

	fields, meta, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.NoError(t, err)
	assert.Nil(t, meta)
	assert.Empty(t, fields)
}

func TestIQDBServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	e := NewIQDB(testLogger())
	e.baseURL = srv.URL

	_, _, err := e.BestMatch(context.Background(), "https://img.example/a.jpg")
	require.Error(t, err)
}

func TestIQDBTags(t *testing.T) {
	assert.Equal(t, "#a #b_c", iqdbTags("Rating: s Tags: a b-c"))
	assert.Equal(t, "", iqdbTags("no tags here"))

	long := iqdbTags("Tags: t1 t2 t3 t4 t5 t6 t7 t8 t9 t10 t11 t12")
	assert.Equal(t, "#t1 #t2 #t3 #t4 #t5 #t6 #t7 #t8 #t9 #t10", long)
}
