package domain

import "context"

// ParseMode selects outbound message formatting.
type ParseMode string

const (
	ParseModeNone     ParseMode = ""
	ParseModeHTML     ParseMode = "HTML"
	ParseModeMarkdown ParseMode = "Markdown"
)

// Button is one clickable option on a reply. Exactly one of URL or
// CallbackData is set.
type Button struct {
	Text         string
	URL          string
	CallbackData string
}

// MessageRef identifies a sent message for later edits or deletion.
type MessageRef struct {
	ChatID    int64
	MessageID int64
}

// SendOptions carries optional send parameters. The zero value is valid.
type SendOptions struct {
	Buttons        [][]Button
	ParseMode      ParseMode
	ReplyTo        int64
	DisablePreview bool
}

// ChatSink is the outbound chat transport the search passes write to.
// Edits must be idempotent; implementations report transport failures
// as errors rather than silently dropping them.
type ChatSink interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) (MessageRef, error)
	EditMessageText(ctx context.Context, ref MessageRef, text string, opts *SendOptions) error
	EditMessageButtons(ctx context.Context, ref MessageRef, buttons [][]Button) error
	DeleteMessage(ctx context.Context, ref MessageRef) error
	SendPhoto(ctx context.Context, chatID int64, fileID, caption string, opts *SendOptions) error
	SendAnimation(ctx context.Context, chatID int64, fileID, caption string, opts *SendOptions) error
	SendDocument(ctx context.Context, chatID int64, fileID, caption string, opts *SendOptions) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// OperatorChannel delivers error reports to a human operator. Notify is
// best-effort: implementations swallow and log their own failures.
type OperatorChannel interface {
	Notify(ctx context.Context, text string, imageURL string, att *Attachment)
}

// CallbackQuery is a pressed inline button.
type CallbackQuery struct {
	ID        string
	ChatID    int64
	MessageID int64
	Data      string // "<action> <argument>"
}

// SearchHandler is what the chat transport dispatches inbound activity to.
type SearchHandler interface {
	// HandleImage runs the search flow for one submitted attachment.
	HandleImage(ctx context.Context, chatID, messageID int64, att Attachment) error
	// HandleCallback reacts to an inline button press.
	HandleCallback(ctx context.Context, cb CallbackQuery) error
	// EnginesText renders the /engines listing; more adds descriptions.
	EnginesText(more bool) string
}
