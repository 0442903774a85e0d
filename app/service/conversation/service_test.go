package conversation

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"moodloop/app/service/sentiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	reply string
	err   error
	calls int
}

func (f *fakeCompleter) Complete(_ context.Context, _ string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

// recordingHandler captures observations so tests can assert on them.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return nil
}

func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) count(level slog.Level) int {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := 0
	for _, r := range h.records {
		if r.Level == level {
			n++
		}
	}
	return n
}

func newTestService(completer Completer) (*Service, *recordingHandler) {
	handler := &recordingHandler{}
	log := slog.New(handler)

	return NewWith(completer, sentiment.NewWith(log), log), handler
}

func TestProcessTurnAppendsReplyAndSentiment(t *testing.T) {
	completer := &fakeCompleter{reply: "sorry to hear that"}
	svc, _ := newTestService(completer)

	state, err := svc.ProcessTurn(context.Background(), NewState(), "I am sad today")
	require.NoError(t, err)

	require.Len(t, state.History, 1)
	assert.Equal(t, "I am sad today", state.History[0].User)
	assert.Equal(t, "sorry to hear that", state.History[0].Bot)
	assert.Equal(t, sentiment.Negative, state.Sentiment)
	assert.Equal(t, 1, completer.calls)
}

func TestProcessTurnEmptyInputIsNoop(t *testing.T) {
	completer := &fakeCompleter{reply: "should not be called"}
	svc, handler := newTestService(completer)

	base := NewState().WithTurn(Turn{User: "hi", Bot: "hello"}, sentiment.Positive)

	for _, text := range []string{"", "   "} {
		state, err := svc.ProcessTurn(context.Background(), base, text)
		require.NoError(t, err)
		assert.Equal(t, base, state)
	}

	assert.Equal(t, 0, completer.calls)
	assert.Equal(t, 2, handler.count(slog.LevelWarn))
}

func TestProcessTurnRollsBackOnServiceFailure(t *testing.T) {
	completer := &fakeCompleter{err: errors.New("connection refused")}
	svc, handler := newTestService(completer)

	base := NewState().WithTurn(Turn{User: "hi", Bot: "hello"}, sentiment.Positive)

	state, err := svc.ProcessTurn(context.Background(), base, "hello")
	require.Error(t, err)

	assert.Equal(t, base, state)
	assert.Equal(t, 1, handler.count(slog.LevelError))
}
