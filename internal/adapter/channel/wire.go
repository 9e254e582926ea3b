package channel

// Wire structs for the subset of the Telegram Bot API this bot uses.

type telegramUpdateResponse struct {
	OK     bool             `json:"ok"`
	Result []telegramUpdate `json:"result"`
}

type telegramUpdate struct {
	UpdateID      int64                  `json:"update_id"`
	Message       *telegramMessage       `json:"message"`
	CallbackQuery *telegramCallbackQuery `json:"callback_query"`
}

type telegramMessage struct {
	MessageID int64                `json:"message_id"`
	Chat      telegramChat         `json:"chat"`
	From      *telegramUser        `json:"from"`
	Text      string               `json:"text"`
	Photo     []telegramPhotoSize  `json:"photo"`
	Sticker   *telegramSticker     `json:"sticker"`
	Video     *telegramVideo       `json:"video"`
	Animation *telegramVideo       `json:"animation"`
	Document  *telegramDocument    `json:"document"`
}

type telegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type telegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type telegramPhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int64  `json:"file_size"`
}

type telegramSticker struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	FileSize     int64  `json:"file_size"`
	IsAnimated   bool   `json:"is_animated"`
	IsVideo      bool   `json:"is_video"`
}

type telegramVideo struct {
	FileID       string             `json:"file_id"`
	FileUniqueID string             `json:"file_unique_id"`
	FileSize     int64              `json:"file_size"`
	MIMEType     string             `json:"mime_type"`
	Thumbnail    *telegramPhotoSize `json:"thumbnail"`
}

type telegramDocument struct {
	FileID       string             `json:"file_id"`
	FileUniqueID string             `json:"file_unique_id"`
	FileSize     int64              `json:"file_size"`
	MIMEType     string             `json:"mime_type"`
	Thumbnail    *telegramPhotoSize `json:"thumbnail"`
}

type telegramCallbackQuery struct {
	ID      string           `json:"id"`
	From    *telegramUser    `json:"from"`
	Message *telegramMessage `json:"message"`
	Data    string           `json:"data"`
}

type telegramInlineKeyboard struct {
	InlineKeyboard [][]telegramInlineButton `json:"inline_keyboard"`
}

type telegramInlineButton struct {
	Text         string `json:"text"`
	URL          string `json:"url,omitempty"`
	CallbackData string `json:"callback_data,omitempty"`
}

// sendCommon holds the optional fields shared by sendMessage and
// editMessageText.
type sendCommon struct {
	ParseMode        string                  `json:"parse_mode,omitempty"`
	ReplyToMessageID int64                   `json:"reply_to_message_id,omitempty"`
	DisablePreview   bool                    `json:"disable_web_page_preview,omitempty"`
	ReplyMarkup      *telegramInlineKeyboard `json:"reply_markup,omitempty"`
}

type telegramSendRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
	sendCommon
}

type telegramEditTextRequest struct {
	ChatID    int64  `json:"chat_id"`
	MessageID int64  `json:"message_id"`
	Text      string `json:"text"`
	sendCommon
}

type telegramEditMarkupRequest struct {
	ChatID      int64                   `json:"chat_id"`
	MessageID   int64                   `json:"message_id"`
	ReplyMarkup *telegramInlineKeyboard `json:"reply_markup,omitempty"`
}

type telegramDeleteRequest struct {
	ChatID    int64 `json:"chat_id"`
	MessageID int64 `json:"message_id"`
}

type telegramChatActionRequest struct {
	ChatID int64  `json:"chat_id"`
	Action string `json:"action"`
}

type telegramAnswerCallbackRequest struct {
	CallbackQueryID string `json:"callback_query_id"`
	Text            string `json:"text,omitempty"`
}

type telegramGetFileRequest struct {
	FileID string `json:"file_id"`
}

type telegramGetFileResponse struct {
	OK     bool `json:"ok"`
	Result struct {
		FileID   string `json:"file_id"`
		FileSize int64  `json:"file_size"`
		FilePath string `json:"file_path"`
	} `json:"result"`
}

type telegramMessageResponse struct {
	OK     bool            `json:"ok"`
	Result telegramMessage `json:"result"`
}
