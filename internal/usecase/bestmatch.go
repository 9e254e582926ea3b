package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"imagehound/internal/domain"
	"imagehound/internal/infra/tracer"
)

// Duplicate markers replacing or annotating the result body when another
// engine already found the same match.
const (
	duplicateResultMarker    = "Duplicate search result omitted"
	duplicateThumbnailMarker = "Duplicate thumbnail omitted"
)

// bestMatch runs the sequential deep-lookup pass. When gate is non-nil the
// pass waits for the fan-out's first publish so the user sees the messages
// in a stable order. One engine at a time, each reply fully posted before
// the next lookup starts.
func (s *Service) bestMatch(ctx context.Context, chatID, replyTo int64, imageURL string, gate *Gate, logger *slog.Logger) {
	if gate != nil {
		if err := gate.Wait(ctx); err != nil {
			logger.Warn("best-match pass abandoned before start", "error", err)
			return
		}
	}

	ctx, span := tracer.StartSpan(ctx, "search.bestmatch")
	defer span.End()

	status, err := s.deps.Sink.SendMessage(ctx, chatID, "⏳ searching...", &domain.SendOptions{ReplyTo: replyTo})
	if err != nil {
		logger.Error("best-match status message failed", "error", err)
		return
	}

	// Dedup state lives and dies with this pass.
	seenIDs := make(map[string]bool)
	seenThumbs := make(map[string]bool)
	var consulted []string
	matchFound := false

	for _, eng := range s.deps.Engines.BestMatch() {
		_ = s.deps.Sink.EditMessageText(ctx, status, "⏳ "+bold(eng.Name()), &domain.SendOptions{ParseMode: domain.ParseModeHTML})

		lctx, cancel := context.WithTimeout(ctx, s.deps.LookupTimeout)
		fields, meta, err := eng.BestMatch(lctx, imageURL)
		cancel()
		if err != nil {
			logger.Error("engine failure", "engine", eng.Name(), "error", err)
			s.deps.Operator.Notify(ctx, fmt.Sprintf("Best match error (%s): %v", eng.Name(), err), imageURL, nil)
			continue
		}

		consulted = append(consulted, eng.Name())
		if meta == nil {
			logger.Debug("no match", "engine", eng.Name())
			continue
		}

		idSeen := meta.Identifier != "" && seenIDs[meta.Identifier]
		thumbSeen := meta.ThumbnailIdentifier != "" && seenThumbs[meta.ThumbnailIdentifier]

		isDuplicate := false
		switch {
		case idSeen && thumbSeen:
			// Fully duplicate match: no message at all.
			continue
		case idSeen:
			fields = domain.ResultFields{{Key: duplicateResultMarker}}
			meta.Thumbnail = ""
			isDuplicate = true
		case thumbSeen:
			fields = fields.Set(duplicateThumbnailMarker, "")
			meta.Thumbnail = ""
			isDuplicate = true
		}

		var buttons []domain.Button
		if more := eng.SearchButton(imageURL, "More"); more != nil {
			buttons = append(buttons, *more)
		}
		buttons = append(buttons, meta.Buttons...)

		_, err = s.deps.Sink.SendMessage(ctx, chatID, RenderReply(fields, meta), &domain.SendOptions{
			Buttons:        chunkButtons(buttons, bestMatchButtonsPerRow),
			ParseMode:      domain.ParseModeHTML,
			ReplyTo:        replyTo,
			DisablePreview: len(meta.Errors) > 0,
		})
		if err != nil {
			logger.Error("best-match reply failed", "engine", eng.Name(), "error", err)
		}

		if !isDuplicate && len(meta.Errors) == 0 && len(fields) > 0 {
			matchFound = true
		}
		if meta.Identifier != "" {
			seenIDs[meta.Identifier] = true
		}
		if meta.ThumbnailIdentifier != "" {
			seenThumbs[meta.ThumbnailIdentifier] = true
		}
	}

	span.SetAttributes(
		tracer.IntAttr("search.engines_consulted", len(consulted)),
	)

	names := make([]string, len(consulted))
	for i, n := range consulted {
		names[i] = bold(n)
	}
	used := strings.Join(names, ", ")

	summary := fmt.Sprintf("\U0001f535 I searched for you on %s. You can try others above for more results", used)
	if !matchFound {
		summary = fmt.Sprintf("\U0001f534 I searched for you on %s but didn't find anything. Please try another engine above.", used)
	}
	if err := s.deps.Sink.EditMessageText(ctx, status, summary, &domain.SendOptions{ParseMode: domain.ParseModeHTML}); err != nil {
		logger.Warn("best-match summary edit failed", "error", err)
	}
}
