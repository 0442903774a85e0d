package engine

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"moodloop/app/config"
	"moodloop/app/service/conversation"
	"moodloop/app/service/queue"
	"moodloop/app/service/sentiment"
	"moodloop/app/service/transcript"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syncBuffer guards the output buffer: Run writes from the loop goroutine
// while readInput writes prompts from its own.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type fakeRunner struct {
	run func(ctx context.Context, state conversation.State, text string) (conversation.State, error)
}

func (f *fakeRunner) RunTurn(ctx context.Context, state conversation.State, text string) (conversation.State, error) {
	return f.run(ctx, state, text)
}

func newTestEngine(t *testing.T, runner TurnRunner, in string) (*Service, *syncBuffer) {
	t.Helper()

	transcriptSvc, err := transcript.NewWith("", slog.Default())
	require.NoError(t, err)

	queueSvc, err := queue.New(nil)
	require.NoError(t, err)

	out := &syncBuffer{}
	svc := NewWith(
		&config.Config{},
		runner,
		transcriptSvc,
		queueSvc,
		strings.NewReader(in),
		out,
		slog.Default(),
	)

	return svc, out
}

func TestRunIterationPrintsReplyAndMood(t *testing.T) {
	runner := &fakeRunner{
		run: func(_ context.Context, state conversation.State, text string) (conversation.State, error) {
			return state.WithTurn(conversation.Turn{User: text, Bot: "sorry to hear that"}, sentiment.Negative), nil
		},
	}
	svc, out := newTestEngine(t, runner, "")

	require.NoError(t, svc.runIteration(context.Background(), "I am sad today"))

	assert.Contains(t, out.String(), "Bot: sorry to hear that")
	assert.Contains(t, out.String(), "[Mood: negative]")

	state := svc.Snapshot()
	require.Len(t, state.History, 1)
	assert.Equal(t, sentiment.Negative, state.Sentiment)
}

func TestRunIterationKeepsStateOnFailure(t *testing.T) {
	runner := &fakeRunner{
		run: func(_ context.Context, state conversation.State, _ string) (conversation.State, error) {
			return state, errors.New("connection refused")
		},
	}
	svc, out := newTestEngine(t, runner, "")

	err := svc.runIteration(context.Background(), "hello")
	require.Error(t, err)

	assert.Empty(t, svc.Snapshot().History)
	assert.NotContains(t, out.String(), "Bot:")
}

func TestRunIterationRecoversFromPanic(t *testing.T) {
	runner := &fakeRunner{
		run: func(context.Context, conversation.State, string) (conversation.State, error) {
			panic("defective node")
		},
	}
	svc, _ := newTestEngine(t, runner, "")

	err := svc.runIteration(context.Background(), "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "defective node")
	assert.Empty(t, svc.Snapshot().History)
}

func TestRunProcessesQueuedInputUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	runner := &fakeRunner{
		run: func(_ context.Context, state conversation.State, text string) (conversation.State, error) {
			defer cancel()
			return state.WithTurn(conversation.Turn{User: text, Bot: "hello!"}, sentiment.Neutral), nil
		},
	}
	svc, out := newTestEngine(t, runner, "hi bot\n")

	svc.Run(ctx)

	assert.Contains(t, out.String(), "You: ")
	assert.Contains(t, out.String(), "Bot: hello!")
	assert.Contains(t, out.String(), "Goodbye")
	require.Len(t, svc.Snapshot().History, 1)
}

func TestRunSkipsBlankLines(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var turns []string
	runner := &fakeRunner{
		run: func(_ context.Context, state conversation.State, text string) (conversation.State, error) {
			turns = append(turns, text)
			defer cancel()
			return state, nil
		},
	}
	svc, _ := newTestEngine(t, runner, "\n   \nreal input\n")

	svc.Run(ctx)

	assert.Equal(t, []string{"real input"}, turns)
}
