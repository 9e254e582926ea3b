package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"imagehound/internal/adapter/engine"
	"imagehound/internal/domain"
	"imagehound/internal/infra/tracer"
)

const (
	fanOutButtonsPerRow    = 2
	bestMatchButtonsPerRow = 3

	defaultMaxLookups    = 5
	defaultLookupTimeout = 20 * time.Second
)

// Deps holds injected dependencies for the search service.
type Deps struct {
	Sink     domain.ChatSink
	Resolver domain.AttachmentResolver
	Engines  *engine.Registry
	Operator domain.OperatorChannel
	Logger   *slog.Logger

	// MaxConcurrentLookups caps the fan-out worker pool (default 5).
	MaxConcurrentLookups int
	// EditsPerSecond paces keyboard edits against chat API limits.
	EditsPerSecond float64
	// LookupTimeout bounds one pre-work or best-match call.
	LookupTimeout time.Duration
}

// Service orchestrates the two search passes for submitted images.
type Service struct {
	deps        Deps
	editLimiter *rate.Limiter
}

// compile-time check
var _ domain.SearchHandler = (*Service)(nil)

// NewService creates the search service.
func NewService(deps Deps) *Service {
	if deps.MaxConcurrentLookups <= 0 {
		deps.MaxConcurrentLookups = defaultMaxLookups
	}
	if deps.LookupTimeout <= 0 {
		deps.LookupTimeout = defaultLookupTimeout
	}
	eps := deps.EditsPerSecond
	if eps <= 0 {
		eps = 1
	}
	return &Service{
		deps:        deps,
		editLimiter: rate.NewLimiter(rate.Limit(eps), 1),
	}
}

// HandleImage runs the full search flow for one attachment: resolve to a
// hosted URL, fan out in the background, then run the gated best-match pass.
func (s *Service) HandleImage(ctx context.Context, chatID, messageID int64, att domain.Attachment) error {
	reqID := ulid.Make().String()
	logger := s.deps.Logger.With("request_id", reqID, "chat_id", chatID)

	ctx, span := tracer.StartSpan(ctx, "search.handle_image")
	defer span.End()
	span.SetAttributes(
		tracer.StringAttr("search.request_id", reqID),
		tracer.StringAttr("search.attachment_kind", string(att.Kind)),
	)

	placeholder, err := s.deps.Sink.SendMessage(ctx, chatID, "⌛ Give me a sec...", &domain.SendOptions{ReplyTo: messageID})
	if err != nil {
		return domain.WrapOp("Service.HandleImage", err)
	}
	_ = s.deps.Sink.SendChatAction(ctx, chatID, "typing")

	imageURL, err := s.deps.Resolver.Resolve(ctx, att)
	if err != nil {
		if domain.IsUnsupported(err) {
			_ = s.deps.Sink.EditMessageText(ctx, placeholder, unsupportedText(err), nil)
			logger.Info("unsupported attachment", "kind", att.Kind)
			return nil
		}

		_ = s.deps.Sink.EditMessageText(ctx, placeholder, "An error occurred, please try again later.", nil)
		s.deps.Operator.Notify(ctx, fmt.Sprintf("Search error (request %s): %v", reqID, err), "", &att)
		tracer.RecordError(span, err)
		return domain.WrapOp("Service.HandleImage", err)
	}

	logger.Info("image hosted", "url", imageURL)

	gate := NewGate()
	go s.fanOut(context.WithoutCancel(ctx), chatID, messageID, imageURL, gate, logger)
	s.bestMatch(ctx, chatID, messageID, imageURL, gate, logger)

	_ = s.deps.Sink.DeleteMessage(ctx, placeholder)
	return nil
}

// HandleCallback reacts to a pressed inline button.
func (s *Service) HandleCallback(ctx context.Context, cb domain.CallbackQuery) error {
	action, arg, _ := strings.Cut(cb.Data, " ")

	switch action {
	case "best_match":
		if arg == "" {
			return s.deps.Sink.AnswerCallback(ctx, cb.ID, "Something went wrong")
		}
		_ = s.deps.Sink.AnswerCallback(ctx, cb.ID, "")
		logger := s.deps.Logger.With("chat_id", cb.ChatID)
		s.bestMatch(ctx, cb.ChatID, cb.MessageID, arg, nil, logger)
		return nil
	case "wait_for":
		return s.deps.Sink.AnswerCallback(ctx, cb.ID, fmt.Sprintf("Creating %s search url...", arg))
	default:
		return s.deps.Sink.AnswerCallback(ctx, cb.ID, "Something went wrong")
	}
}

// unsupportedText picks the user-facing message for an unsupported format.
func unsupportedText(err error) string {
	var de *domain.DomainError
	if errors.As(err, &de) && de.Detail != "" {
		return de.Detail
	}
	return "Format is not supported"
}
