package channel

import (
	"context"
	"log/slog"

	"imagehound/internal/domain"
)

// TelegramOperator forwards error reports to the configured admin chats.
// Delivery is best-effort: failures are logged, never propagated.
type TelegramOperator struct {
	sink     domain.ChatSink
	adminIDs []int64
	logger   *slog.Logger
}

var _ domain.OperatorChannel = (*TelegramOperator)(nil)

func NewTelegramOperator(sink domain.ChatSink, adminIDs []int64, logger *slog.Logger) *TelegramOperator {
	return &TelegramOperator{sink: sink, adminIDs: adminIDs, logger: logger}
}

// Notify sends the report text, the hosted image link, and the original media
// to every admin so a failing lookup can be reproduced by hand.
func (o *TelegramOperator) Notify(ctx context.Context, text string, imageURL string, att *domain.Attachment) {
	opts := &domain.SendOptions{ParseMode: domain.ParseModeHTML, DisablePreview: true}
	if imageURL != "" {
		opts.Buttons = [][]domain.Button{{{Text: "Best Match", CallbackData: "best_match " + imageURL}}}
	}

	for _, adminID := range o.adminIDs {
		if _, err := o.sink.SendMessage(ctx, adminID, text, opts); err != nil {
			o.logger.Warn("operator notify failed", "admin_id", adminID, "error", err)
			continue
		}
		if att == nil {
			continue
		}
		if err := o.sendMedia(ctx, adminID, att); err != nil {
			o.logger.Warn("operator media forward failed", "admin_id", adminID, "error", err)
		}
	}
}

func (o *TelegramOperator) sendMedia(ctx context.Context, chatID int64, att *domain.Attachment) error {
	switch att.Kind {
	case domain.AttachmentAnimation:
		return o.sink.SendAnimation(ctx, chatID, att.FileID, "", nil)
	case domain.AttachmentVideo, domain.AttachmentDocumentVideo:
		return o.sink.SendDocument(ctx, chatID, att.FileID, "", nil)
	default:
		return o.sink.SendPhoto(ctx, chatID, att.FileID, "", nil)
	}
}
