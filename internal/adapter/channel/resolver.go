package channel

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"

	"golang.org/x/image/webp"

	"imagehound/internal/domain"
)

// FileDownloader fetches raw file bytes from the chat transport.
type FileDownloader interface {
	DownloadFileByID(ctx context.Context, fileID string) ([]byte, error)
}

// Resolver turns inbound attachments into hosted image URLs. Photos upload
// as-is, webp stickers are converted to png, and videos contribute their
// transport thumbnail as the search frame.
type Resolver struct {
	downloader FileDownloader
	host       domain.ImageHost
	logger     *slog.Logger
}

var _ domain.AttachmentResolver = (*Resolver)(nil)

func NewResolver(downloader FileDownloader, host domain.ImageHost, logger *slog.Logger) *Resolver {
	return &Resolver{downloader: downloader, host: host, logger: logger}
}

// Resolve returns a stable public URL for the attachment's searchable image.
func (r *Resolver) Resolve(ctx context.Context, att domain.Attachment) (string, error) {
	const op = "resolver.Resolve"

	switch att.Kind {
	case domain.AttachmentPhoto:
		url, err := r.hostFile(ctx, att.FileID, att.FileUniqueID+".jpg", "image/jpeg", nil)
		if errors.Is(err, domain.ErrFileTooLarge) && att.ThumbFileID != "" {
			// The Bot API refuses downloads over 20MB; search the smaller
			// rendition instead.
			return r.hostFile(ctx, att.ThumbFileID, att.ThumbFileUniqueID+".jpg", "image/jpeg", nil)
		}
		return url, err

	case domain.AttachmentSticker:
		if att.IsAnimated {
			return "", domain.NewDomainError(op, domain.ErrUnsupportedFormat, "Animated stickers are not supported.")
		}
		return r.hostFile(ctx, att.FileID, att.FileUniqueID+".png", "image/png", webpToPNG)

	case domain.AttachmentVideo, domain.AttachmentAnimation, domain.AttachmentDocumentVideo:
		if att.ThumbFileID == "" {
			return "", domain.NewDomainError(op, domain.ErrUnsupportedFormat, "This video has no preview frame to search with.")
		}
		return r.hostFile(ctx, att.ThumbFileID, att.ThumbFileUniqueID+".jpg", "image/jpeg", nil)

	default:
		return "", domain.NewDomainError(op, domain.ErrUnsupportedFormat, "Format is not supported.")
	}
}

// hostFile downloads, optionally converts, and uploads the file unless a
// hosted copy already exists under the same name.
func (r *Resolver) hostFile(ctx context.Context, fileID, name, contentType string, convert func([]byte) ([]byte, error)) (string, error) {
	exists, err := r.host.FileExists(ctx, name)
	if err != nil {
		r.logger.Warn("image host existence check failed", "name", name, "error", err)
	} else if exists {
		return r.host.URL(name), nil
	}

	data, err := r.downloader.DownloadFileByID(ctx, fileID)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	if convert != nil {
		data, err = convert(data)
		if err != nil {
			return "", domain.NewDomainError("resolver.hostFile", domain.ErrUnsupportedFormat, "Could not decode this sticker.")
		}
	}

	url, err := r.host.Upload(ctx, name, data, contentType)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	return url, nil
}

// webpToPNG re-encodes a webp sticker as png, which every search engine
// accepts.
func webpToPNG(data []byte) ([]byte, error) {
	img, err := webp.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode webp: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
