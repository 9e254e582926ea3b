package usecase

import (
	"context"
	"log/slog"
	"sync"

	"imagehound/internal/domain"
	"imagehound/internal/infra/tracer"
)

// slotUpdate correlates one finished pre-work lookup back to its button
// slot. Correlation is by index, never by matching button text.
type slotUpdate struct {
	idx    int
	button *domain.Button
}

// fanOut runs every engine against the hosted image: synchronous link
// engines inline, pre-work engines on a bounded worker pool. The first
// publish releases the gate; after that the reply keyboard is re-edited as
// each lookup completes, in arrival order.
func (s *Service) fanOut(ctx context.Context, chatID, replyTo int64, imageURL string, gate *Gate, logger *slog.Logger) {
	// The gate must open even when this pass fails after (or before) its
	// first publish.
	defer gate.Release()

	ctx, span := tracer.StartSpan(ctx, "search.fanout")
	defer span.End()

	leading := [][]domain.Button{
		{{Text: "Best Match", CallbackData: "best_match " + imageURL}},
		{{Text: "Go To Image", URL: imageURL}},
	}

	var (
		slots   []*domain.Button
		wg      sync.WaitGroup
		pending int
	)
	// Buffered to the worker count so producers never block if this pass
	// aborts mid-drain.
	updates := make(chan slotUpdate, len(s.deps.Engines.PreWork()))
	sem := make(chan struct{}, s.deps.MaxConcurrentLookups)

	for _, eng := range s.deps.Engines.All() {
		if pw, ok := eng.(domain.PreWorkEngine); ok {
			placeholder := pw.PlaceholderButton()
			if placeholder == nil {
				continue
			}
			idx := len(slots)
			slots = append(slots, placeholder)
			pending++
			wg.Add(1)
			go func() {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()

				lctx, cancel := context.WithTimeout(ctx, s.deps.LookupTimeout)
				defer cancel()
				updates <- slotUpdate{idx: idx, button: pw.ResolveButton(lctx, imageURL)}
			}()
			continue
		}
		if b := eng.SearchButton(imageURL, ""); b != nil {
			slots = append(slots, b)
		}
	}

	span.SetAttributes(
		tracer.IntAttr("search.buttons", len(slots)),
		tracer.IntAttr("search.pending", pending),
	)

	ref, err := s.deps.Sink.SendMessage(ctx, chatID,
		"Use /engines for an overview of the supported engines and what they are good at.",
		&domain.SendOptions{
			Buttons: append(leading, chunkButtons(compactButtons(slots), fanOutButtonsPerRow)...),
			ReplyTo: replyTo,
		})
	if err != nil {
		logger.Error("fan-out initial reply failed", "error", err)
		return
	}

	// First publish is out: the best-match pass may proceed.
	gate.Release()

	go func() {
		wg.Wait()
		close(updates)
	}()

	for u := range updates {
		// nil means the engine declined; drop its placeholder.
		slots[u.idx] = u.button

		if err := s.editLimiter.Wait(ctx); err != nil {
			logger.Warn("fan-out aborted", "error", err)
			return
		}
		buttons := append(leading, chunkButtons(compactButtons(slots), fanOutButtonsPerRow)...)
		if err := s.deps.Sink.EditMessageButtons(ctx, ref, buttons); err != nil {
			logger.Warn("fan-out keyboard edit failed", "error", err)
		}
	}

	logger.Debug("fan-out complete", "resolved", pending)
}

// compactButtons drops empty slots, preserving order.
func compactButtons(slots []*domain.Button) []domain.Button {
	out := make([]domain.Button, 0, len(slots))
	for _, b := range slots {
		if b != nil {
			out = append(out, *b)
		}
	}
	return out
}
