package domain

import "context"

// AttachmentKind is the closed set of inbound media kinds the bot accepts.
type AttachmentKind string

const (
	AttachmentPhoto         AttachmentKind = "photo"
	AttachmentSticker       AttachmentKind = "sticker"
	AttachmentVideo         AttachmentKind = "video"
	AttachmentAnimation     AttachmentKind = "animation"
	AttachmentDocumentVideo AttachmentKind = "document_video"
)

// Attachment is a tagged variant describing one inbound media item.
// FileID/FileUniqueID come from the transport; FileUniqueID is stable across
// re-submissions of the same media and keys the hosted copy.
type Attachment struct {
	Kind         AttachmentKind
	FileID       string
	FileUniqueID string
	FileSize     int64
	MIMEType     string
	IsAnimated   bool // stickers only

	// ThumbFileID is the transport-side thumbnail, used as the search frame
	// for videos and as the fallback for oversized files.
	ThumbFileID       string
	ThumbFileUniqueID string
}

// AttachmentResolver turns an inbound attachment into a stable, hosted image
// URL. Unsupported media (animated stickers, videos without a thumbnail
// frame) resolve to ErrUnsupportedFormat.
type AttachmentResolver interface {
	Resolve(ctx context.Context, att Attachment) (string, error)
}

// ImageHost stores submitted images under content-addressed names and serves
// them at stable public URLs.
type ImageHost interface {
	FileExists(ctx context.Context, name string) (bool, error)
	URL(name string) string
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}
