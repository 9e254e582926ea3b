package channel

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagehound/internal/domain"
)

type opSink struct {
	mu      sync.Mutex
	texts   []string
	buttons [][][]domain.Button
	photos  []string
	docs    []string
	sendErr error
}

func (s *opSink) SendMessage(_ context.Context, chatID int64, text string, opts *domain.SendOptions) (domain.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return domain.MessageRef{}, s.sendErr
	}
	s.texts = append(s.texts, text)
	if opts != nil {
		s.buttons = append(s.buttons, opts.Buttons)
	}
	return domain.MessageRef{ChatID: chatID, MessageID: 1}, nil
}

func (s *opSink) EditMessageText(context.Context, domain.MessageRef, string, *domain.SendOptions) error {
	return nil
}

func (s *opSink) EditMessageButtons(context.Context, domain.MessageRef, [][]domain.Button) error {
	return nil
}

func (s *opSink) DeleteMessage(context.Context, domain.MessageRef) error { return nil }

func (s *opSink) SendPhoto(_ context.Context, _ int64, fileID, _ string, _ *domain.SendOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.photos = append(s.photos, fileID)
	return nil
}

func (s *opSink) SendAnimation(context.Context, int64, string, string, *domain.SendOptions) error {
	return nil
}

func (s *opSink) SendDocument(_ context.Context, _ int64, fileID, _ string, _ *domain.SendOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, fileID)
	return nil
}

func (s *opSink) SendChatAction(context.Context, int64, string) error { return nil }

func (s *opSink) AnswerCallback(context.Context, string, string) error { return nil }

func TestOperatorNotifiesEveryAdmin(t *testing.T) {
	sink := &opSink{}
	op := NewTelegramOperator(sink, []int64{10, 20}, testLogger())

	op.Notify(context.Background(), "engine blew up", "https://img.example/a.jpg", nil)

	require.Len(t, sink.texts, 2)
	assert.Equal(t, "engine blew up", sink.texts[0])

	// The hosted URL becomes a Best Match button for manual reruns.
	require.NotEmpty(t, sink.buttons[0])
	assert.Equal(t, "best_match https://img.example/a.jpg", sink.buttons[0][0][0].CallbackData)
}

func TestOperatorForwardsOriginalMedia(t *testing.T) {
	sink := &opSink{}
	op := NewTelegramOperator(sink, []int64{10}, testLogger())

	op.Notify(context.Background(), "bad photo", "", &domain.Attachment{Kind: domain.AttachmentPhoto, FileID: "f1"})
	op.Notify(context.Background(), "bad video", "", &domain.Attachment{Kind: domain.AttachmentVideo, FileID: "v1"})

	assert.Equal(t, []string{"f1"}, sink.photos)
	assert.Equal(t, []string{"v1"}, sink.docs)
}

func TestOperatorSwallowsDeliveryFailures(t *testing.T) {
	sink := &opSink{sendErr: errors.New("blocked by user")}
	op := NewTelegramOperator(sink, []int64{10}, testLogger())

	// Must not panic or propagate.
	op.Notify(context.Background(), "report", "", nil)
	assert.Empty(t, sink.texts)
}
