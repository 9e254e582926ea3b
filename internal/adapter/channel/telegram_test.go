package channel

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagehound/internal/domain"
)

func testLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

type apiCall struct {
	method  string
	payload map[string]any
}

// botAPIServer fakes the Bot API, recording every method call.
type botAPIServer struct {
	mu    sync.Mutex
	calls []apiCall
	srv   *httptest.Server
}

func newBotAPIServer(t *testing.T) *botAPIServer {
	t.Helper()
	s := &botAPIServer{}
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(r.URL.Path, "/")
		method := parts[len(parts)-1]

		var payload map[string]any
		if body, _ := io.ReadAll(r.Body); len(body) > 0 {
			json.Unmarshal(body, &payload)
		}
		s.mu.Lock()
		s.calls = append(s.calls, apiCall{method: method, payload: payload})
		s.mu.Unlock()

		switch method {
		case "sendMessage":
			w.Write([]byte(`{"ok": true, "result": {"message_id": 100, "chat": {"id": 7}}}`))
		case "getFile":
			w.Write([]byte(`{"ok": true, "result": {"file_id": "f1", "file_path": "photos/file_1.jpg"}}`))
		default:
			w.Write([]byte(`{"ok": true, "result": true}`))
		}
	}))
	t.Cleanup(s.srv.Close)
	return s
}

func (s *botAPIServer) find(method string) *apiCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.calls {
		if s.calls[i].method == method {
			return &s.calls[i]
		}
	}
	return nil
}

func newTestChannel(t *testing.T, api *botAPIServer) *TelegramChannel {
	ch := NewTelegramChannel("TEST-TOKEN", testLogger())
	ch.baseURL = api.srv.URL
	ch.fileBaseURL = api.srv.URL
	return ch
}

func TestSendMessageWithKeyboard(t *testing.T) {
	api := newBotAPIServer(t)
	ch := newTestChannel(t, api)

	ref, err := ch.SendMessage(context.Background(), 7, "hello", &domain.SendOptions{
		ParseMode: domain.ParseModeHTML,
		ReplyTo:   42,
		Buttons: [][]domain.Button{
			{{Text: "Best Match", CallbackData: "best_match https://x"}},
			{{Text: "Google", URL: "https://google.com"}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageRef{ChatID: 7, MessageID: 100}, ref)

	call := api.find("sendMessage")
	require.NotNil(t, call)
	assert.Equal(t, "hello", call.payload["text"])
	assert.Equal(t, "HTML", call.payload["parse_mode"])
	assert.Equal(t, float64(42), call.payload["reply_to_message_id"])

	markup := call.payload["reply_markup"].(map[string]any)
	rows := markup["inline_keyboard"].([]any)
	require.Len(t, rows, 2)
	first := rows[0].([]any)[0].(map[string]any)
	assert.Equal(t, "best_match https://x", first["callback_data"])
	assert.NotContains(t, first, "url", "callback buttons must not carry an empty url field")
}

func TestEditMessageButtons(t *testing.T) {
	api := newBotAPIServer(t)
	ch := newTestChannel(t, api)

	err := ch.EditMessageButtons(context.Background(), domain.MessageRef{ChatID: 7, MessageID: 100},
		[][]domain.Button{{{Text: "TinEye", URL: "https://tineye.com/r/1"}}})
	require.NoError(t, err)

	call := api.find("editMessageReplyMarkup")
	require.NotNil(t, call)
	assert.Equal(t, float64(100), call.payload["message_id"])
}

func TestAPIErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"ok": false, "description": "Bad Request: message to edit not found"}`))
	}))
	defer srv.Close()

	ch := NewTelegramChannel("TEST-TOKEN", testLogger())
	ch.baseURL = srv.URL

	err := ch.DeleteMessage(context.Background(), domain.MessageRef{ChatID: 7, MessageID: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "message to edit not found")
}

func TestDownloadFileByID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "getFile") {
			w.Write([]byte(`{"ok": true, "result": {"file_id": "f1", "file_path": "photos/file_1.jpg"}}`))
			return
		}
		gotPath = r.URL.Path
		w.Write([]byte("jpegbytes"))
	}))
	defer srv.Close()

	ch := NewTelegramChannel("TEST-TOKEN", testLogger())
	ch.baseURL = srv.URL
	ch.fileBaseURL = srv.URL

	data, err := ch.DownloadFileByID(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, []byte("jpegbytes"), data)
	assert.Equal(t, "/file/botTEST-TOKEN/photos/file_1.jpg", gotPath)
}

// recordingHandler captures dispatched work.
type recordingHandler struct {
	mu        sync.Mutex
	images    []domain.Attachment
	callbacks []domain.CallbackQuery
}

func (h *recordingHandler) HandleImage(_ context.Context, _, _ int64, att domain.Attachment) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.images = append(h.images, att)
	return nil
}

func (h *recordingHandler) HandleCallback(_ context.Context, cb domain.CallbackQuery) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.callbacks = append(h.callbacks, cb)
	return nil
}

func (h *recordingHandler) EnginesText(bool) string { return "engines overview" }

func TestDispatchPhotoMessage(t *testing.T) {
	api := newBotAPIServer(t)
	ch := newTestChannel(t, api)
	handler := &recordingHandler{}
	ch.handler = handler

	var msg telegramMessage
	require.NoError(t, json.Unmarshal([]byte(`{
		"message_id": 5,
		"chat": {"id": 7},
		"photo": [
			{"file_id": "small", "file_unique_id": "u1", "width": 90, "height": 90},
			{"file_id": "big", "file_unique_id": "u1", "width": 800, "height": 800, "file_size": 6000}
		]
	}`), &msg))

	ch.dispatch(context.Background(), telegramUpdate{UpdateID: 1, Message: &msg})

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.images) == 1
	}, time.Second, 5*time.Millisecond)

	att := handler.images[0]
	assert.Equal(t, domain.AttachmentPhoto, att.Kind)
	assert.Equal(t, "big", att.FileID, "largest photo size wins")
	assert.Equal(t, "small", att.ThumbFileID, "smallest size kept as oversize fallback")
	assert.Equal(t, int64(6000), att.FileSize)
}

func TestDispatchCallbackQuery(t *testing.T) {
	api := newBotAPIServer(t)
	ch := newTestChannel(t, api)
	handler := &recordingHandler{}
	ch.handler = handler

	ch.dispatch(context.Background(), telegramUpdate{
		UpdateID: 2,
		CallbackQuery: &telegramCallbackQuery{
			ID:      "cb9",
			Data:    "wait_for TinEye",
			Message: &telegramMessage{MessageID: 12, Chat: telegramChat{ID: 7}},
		},
	})

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return len(handler.callbacks) == 1
	}, time.Second, 5*time.Millisecond)

	cb := handler.callbacks[0]
	assert.Equal(t, "cb9", cb.ID)
	assert.Equal(t, int64(7), cb.ChatID)
	assert.Equal(t, int64(12), cb.MessageID)
	assert.Equal(t, "wait_for TinEye", cb.Data)
}

func TestDispatchCommands(t *testing.T) {
	api := newBotAPIServer(t)
	ch := newTestChannel(t, api)
	ch.handler = &recordingHandler{}

	ch.dispatch(context.Background(), telegramUpdate{
		UpdateID: 3,
		Message:  &telegramMessage{MessageID: 1, Chat: telegramChat{ID: 7}, Text: "/engines@imagehound_bot"},
	})

	call := api.find("sendMessage")
	require.NotNil(t, call)
	assert.Equal(t, "engines overview", call.payload["text"])
}

func TestExtractAttachmentVariants(t *testing.T) {
	sticker := &telegramMessage{Sticker: &telegramSticker{FileID: "s1", FileUniqueID: "su1", IsVideo: true}}
	att, ok := extractAttachment(sticker)
	require.True(t, ok)
	assert.Equal(t, domain.AttachmentSticker, att.Kind)
	assert.True(t, att.IsAnimated, "video stickers count as animated")

	video := &telegramMessage{Video: &telegramVideo{
		FileID: "v1", FileUniqueID: "vu1", MIMEType: "video/mp4",
		Thumbnail: &telegramPhotoSize{FileID: "t1", FileUniqueID: "tu1"},
	}}
	att, ok = extractAttachment(video)
	require.True(t, ok)
	assert.Equal(t, domain.AttachmentVideo, att.Kind)
	assert.Equal(t, "t1", att.ThumbFileID)

	doc := &telegramMessage{Document: &telegramDocument{FileID: "d1", FileUniqueID: "du1", MIMEType: "video/webm"}}
	att, ok = extractAttachment(doc)
	require.True(t, ok)
	assert.Equal(t, domain.AttachmentDocumentVideo, att.Kind)
	assert.Equal(t, "video/webm", att.MIMEType)

	pdf := &telegramMessage{Document: &telegramDocument{FileID: "d2", MIMEType: "application/pdf"}}
	_, ok = extractAttachment(pdf)
	assert.False(t, ok, "non-video documents are ignored")

	text := &telegramMessage{Text: "hello"}
	_, ok = extractAttachment(text)
	assert.False(t, ok)
}
