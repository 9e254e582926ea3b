package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"imagehound/internal/domain"
)

const (
	maxResponseBody = 10 * 1024 * 1024
	// MaxDownloadSize is the Bot API download cap for bots.
	MaxDownloadSize = 20 * 1024 * 1024
)

// TelegramOption configures the Telegram channel.
type TelegramOption func(*TelegramChannel)

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(seconds int) TelegramOption {
	return func(t *TelegramChannel) { t.pollTimeout = seconds }
}

// TelegramChannel talks to the Telegram Bot API via long-polling. It is both
// the inbound update source and the outbound domain.ChatSink.
type TelegramChannel struct {
	token       string
	handler     domain.SearchHandler
	logger      *slog.Logger
	client      *http.Client
	baseURL     string
	fileBaseURL string
	offset      int64
	pollTimeout int
	done        chan struct{}
}

// compile-time check
var _ domain.ChatSink = (*TelegramChannel)(nil)

// NewTelegramChannel creates a Telegram bot channel.
func NewTelegramChannel(token string, logger *slog.Logger, opts ...TelegramOption) *TelegramChannel {
	t := &TelegramChannel{
		token:       token,
		logger:      logger,
		baseURL:     "https://api.telegram.org",
		fileBaseURL: "https://api.telegram.org",
		pollTimeout: 30,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
		done: make(chan struct{}),
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Name identifies the channel.
func (t *TelegramChannel) Name() string { return "telegram" }

// Start begins long-polling for updates. Non-blocking (starts in goroutine).
func (t *TelegramChannel) Start(ctx context.Context, handler domain.SearchHandler) error {
	t.handler = handler
	go t.pollLoop(ctx)
	t.logger.Info("telegram channel started")
	return nil
}

// Stop signals the polling loop to stop.
func (t *TelegramChannel) Stop(_ context.Context) error {
	select {
	case <-t.done:
	default:
		close(t.done)
	}
	return nil
}

func (t *TelegramChannel) pollLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.done:
			return
		default:
			updates, err := t.getUpdates(ctx)
			if err != nil {
				t.logger.Warn("telegram getUpdates failed", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}

			for _, u := range updates {
				if u.UpdateID >= t.offset {
					t.offset = u.UpdateID + 1
				}
				t.dispatch(ctx, u)
			}
		}
	}
}

// dispatch routes one update: commands are answered inline, image searches
// and callbacks run in their own goroutine so polling never stalls behind a
// slow search pass.
func (t *TelegramChannel) dispatch(ctx context.Context, u telegramUpdate) {
	if cb := u.CallbackQuery; cb != nil {
		query := domain.CallbackQuery{
			ID:   cb.ID,
			Data: cb.Data,
		}
		if cb.Message != nil {
			query.ChatID = cb.Message.Chat.ID
			query.MessageID = cb.Message.MessageID
		}
		go func() {
			if err := t.handler.HandleCallback(ctx, query); err != nil {
				t.logger.Error("callback handler error", "error", err, "data", cb.Data)
			}
		}()
		return
	}

	msg := u.Message
	if msg == nil {
		return
	}
	chatID := msg.Chat.ID

	if strings.HasPrefix(msg.Text, "/") {
		t.handleCommand(ctx, msg)
		return
	}

	att, ok := extractAttachment(msg)
	if !ok {
		return
	}
	go func() {
		if err := t.handler.HandleImage(ctx, chatID, msg.MessageID, att); err != nil {
			t.logger.Error("image handler error", "error", err, "chat_id", chatID)
		}
	}()
}

func (t *TelegramChannel) handleCommand(ctx context.Context, msg *telegramMessage) {
	cmd := strings.Fields(msg.Text)[0]
	if i := strings.IndexByte(cmd, '@'); i > 0 {
		cmd = cmd[:i]
	}

	opts := &domain.SendOptions{ParseMode: domain.ParseModeHTML, DisablePreview: true, ReplyTo: msg.MessageID}
	switch cmd {
	case "/start", "/help":
		_, _ = t.SendMessage(ctx, msg.Chat.ID, startText, opts)
	case "/engines":
		_, _ = t.SendMessage(ctx, msg.Chat.ID, t.handler.EnginesText(false), opts)
	case "/more":
		_, _ = t.SendMessage(ctx, msg.Chat.ID, t.handler.EnginesText(true), opts)
	case "/id":
		_, _ = t.SendMessage(ctx, msg.Chat.ID, fmt.Sprintf("Chat ID: %d", msg.Chat.ID), nil)
	default:
		_, _ = t.SendMessage(ctx, msg.Chat.ID, "Unknown command. Try /help.", nil)
	}
}

// extractAttachment maps the heterogeneous Telegram media fields onto the
// closed attachment variant set. The boolean is false when the message
// carries nothing searchable.
func extractAttachment(msg *telegramMessage) (domain.Attachment, bool) {
	switch {
	case len(msg.Photo) > 0:
		// Sizes are sorted ascending; take the largest and keep the smallest
		// as the oversize fallback.
		largest := msg.Photo[len(msg.Photo)-1]
		att := domain.Attachment{
			Kind:         domain.AttachmentPhoto,
			FileID:       largest.FileID,
			FileUniqueID: largest.FileUniqueID,
			FileSize:     largest.FileSize,
		}
		if len(msg.Photo) > 1 {
			att.ThumbFileID = msg.Photo[0].FileID
			att.ThumbFileUniqueID = msg.Photo[0].FileUniqueID
		}
		return att, true
	case msg.Sticker != nil:
		return domain.Attachment{
			Kind:         domain.AttachmentSticker,
			FileID:       msg.Sticker.FileID,
			FileUniqueID: msg.Sticker.FileUniqueID,
			FileSize:     msg.Sticker.FileSize,
			IsAnimated:   msg.Sticker.IsAnimated || msg.Sticker.IsVideo,
		}, true
	case msg.Video != nil:
		return videoAttachment(domain.AttachmentVideo, msg.Video), true
	case msg.Animation != nil:
		return videoAttachment(domain.AttachmentAnimation, msg.Animation), true
	case msg.Document != nil && strings.HasPrefix(msg.Document.MIMEType, "video"):
		att := videoAttachment(domain.AttachmentDocumentVideo, &telegramVideo{
			FileID:       msg.Document.FileID,
			FileUniqueID: msg.Document.FileUniqueID,
			FileSize:     msg.Document.FileSize,
			Thumbnail:    msg.Document.Thumbnail,
		})
		att.MIMEType = msg.Document.MIMEType
		return att, true
	}
	return domain.Attachment{}, false
}

func videoAttachment(kind domain.AttachmentKind, v *telegramVideo) domain.Attachment {
	att := domain.Attachment{
		Kind:         kind,
		FileID:       v.FileID,
		FileUniqueID: v.FileUniqueID,
		FileSize:     v.FileSize,
		MIMEType:     v.MIMEType,
	}
	if v.Thumbnail != nil {
		att.ThumbFileID = v.Thumbnail.FileID
		att.ThumbFileUniqueID = v.Thumbnail.FileUniqueID
	}
	return att
}

// --- domain.ChatSink ---

// SendMessage sends a text message, optionally with an inline keyboard.
func (t *TelegramChannel) SendMessage(ctx context.Context, chatID int64, text string, opts *domain.SendOptions) (domain.MessageRef, error) {
	req := telegramSendRequest{
		ChatID: chatID,
		Text:   text,
	}
	applySendOptions(&req.sendCommon, opts)

	var resp telegramMessageResponse
	if err := t.call(ctx, "sendMessage", req, &resp); err != nil {
		return domain.MessageRef{}, err
	}
	return domain.MessageRef{ChatID: resp.Result.Chat.ID, MessageID: resp.Result.MessageID}, nil
}

// EditMessageText replaces the text of a previously sent message.
func (t *TelegramChannel) EditMessageText(ctx context.Context, ref domain.MessageRef, text string, opts *domain.SendOptions) error {
	req := telegramEditTextRequest{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
		Text:      text,
	}
	applySendOptions(&req.sendCommon, opts)
	return t.call(ctx, "editMessageText", req, nil)
}

// EditMessageButtons replaces the inline keyboard of a message.
func (t *TelegramChannel) EditMessageButtons(ctx context.Context, ref domain.MessageRef, buttons [][]domain.Button) error {
	return t.call(ctx, "editMessageReplyMarkup", telegramEditMarkupRequest{
		ChatID:      ref.ChatID,
		MessageID:   ref.MessageID,
		ReplyMarkup: keyboard(buttons),
	}, nil)
}

// DeleteMessage removes a message.
func (t *TelegramChannel) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	return t.call(ctx, "deleteMessage", telegramDeleteRequest{
		ChatID:    ref.ChatID,
		MessageID: ref.MessageID,
	}, nil)
}

// SendPhoto sends a photo by file id or URL.
func (t *TelegramChannel) SendPhoto(ctx context.Context, chatID int64, fileID, caption string, opts *domain.SendOptions) error {
	return t.sendMedia(ctx, "sendPhoto", "photo", chatID, fileID, caption, opts)
}

// SendAnimation sends an animation by file id or URL.
func (t *TelegramChannel) SendAnimation(ctx context.Context, chatID int64, fileID, caption string, opts *domain.SendOptions) error {
	return t.sendMedia(ctx, "sendAnimation", "animation", chatID, fileID, caption, opts)
}

// SendDocument sends a document by file id or URL.
func (t *TelegramChannel) SendDocument(ctx context.Context, chatID int64, fileID, caption string, opts *domain.SendOptions) error {
	return t.sendMedia(ctx, "sendDocument", "document", chatID, fileID, caption, opts)
}

// SendChatAction shows a transient status ("typing") in the chat.
func (t *TelegramChannel) SendChatAction(ctx context.Context, chatID int64, action string) error {
	return t.call(ctx, "sendChatAction", telegramChatActionRequest{
		ChatID: chatID,
		Action: action,
	}, nil)
}

// AnswerCallback acknowledges a callback query, optionally with a toast.
func (t *TelegramChannel) AnswerCallback(ctx context.Context, callbackID, text string) error {
	return t.call(ctx, "answerCallbackQuery", telegramAnswerCallbackRequest{
		CallbackQueryID: callbackID,
		Text:            text,
	}, nil)
}

func (t *TelegramChannel) sendMedia(ctx context.Context, method, field string, chatID int64, fileID, caption string, opts *domain.SendOptions) error {
	req := map[string]any{
		"chat_id": chatID,
		field:     fileID,
	}
	if caption != "" {
		req["caption"] = caption
	}
	if opts != nil {
		if opts.ParseMode != domain.ParseModeNone {
			req["parse_mode"] = string(opts.ParseMode)
		}
		if kb := keyboard(opts.Buttons); kb != nil {
			req["reply_markup"] = kb
		}
	}
	return t.call(ctx, method, req, nil)
}

// --- file retrieval (used by the attachment resolver) ---

// DownloadFileByID fetches a file's bytes through getFile + the file
// endpoint. The Bot API caps downloads at 20MB.
func (t *TelegramChannel) DownloadFileByID(ctx context.Context, fileID string) ([]byte, error) {
	var resp telegramGetFileResponse
	if err := t.call(ctx, "getFile", telegramGetFileRequest{FileID: fileID}, &resp); err != nil {
		return nil, err
	}
	if resp.Result.FilePath == "" {
		return nil, fmt.Errorf("getFile returned empty file_path")
	}

	url := fmt.Sprintf("%s/file/bot%s/%s", t.fileBaseURL, t.token, resp.Result.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	httpResp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download error %d", httpResp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(httpResp.Body, MaxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > MaxDownloadSize {
		return nil, domain.ErrFileTooLarge
	}
	return data, nil
}

// call posts one Bot API method and decodes the response into out (when
// non-nil).
func (t *TelegramChannel) call(ctx context.Context, method string, payload any, out any) error {
	url := fmt.Sprintf("%s/bot%s/%s", t.baseURL, t.token, method)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram %s error %d: %s", method, resp.StatusCode, string(respBody))
	}

	var envelope struct {
		OK          bool   `json:"ok"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if !envelope.OK {
		return fmt.Errorf("telegram %s returned ok=false: %s", method, envelope.Description)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

func (t *TelegramChannel) getUpdates(ctx context.Context) ([]telegramUpdate, error) {
	url := fmt.Sprintf("%s/bot%s/getUpdates?offset=%d&timeout=%d", t.baseURL, t.token, t.offset, t.pollTimeout)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("telegram API error %d: %s", resp.StatusCode, string(body))
	}

	var result telegramUpdateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	if !result.OK {
		return nil, fmt.Errorf("telegram API returned ok=false")
	}
	return result.Result, nil
}

// keyboard converts button rows to the wire inline keyboard. Nil when there
// are no buttons so omitempty drops the field.
func keyboard(rows [][]domain.Button) *telegramInlineKeyboard {
	if len(rows) == 0 {
		return nil
	}
	kb := &telegramInlineKeyboard{}
	for _, row := range rows {
		var wireRow []telegramInlineButton
		for _, b := range row {
			wireRow = append(wireRow, telegramInlineButton{
				Text:         b.Text,
				URL:          b.URL,
				CallbackData: b.CallbackData,
			})
		}
		kb.InlineKeyboard = append(kb.InlineKeyboard, wireRow)
	}
	return kb
}

func applySendOptions(c *sendCommon, opts *domain.SendOptions) {
	if opts == nil {
		return
	}
	c.ParseMode = string(opts.ParseMode)
	c.ReplyToMessageID = opts.ReplyTo
	c.DisablePreview = opts.DisablePreview
	c.ReplyMarkup = keyboard(opts.Buttons)
}
