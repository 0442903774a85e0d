package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"moodloop/app/config"
	"moodloop/app/service/conversation"
	"moodloop/app/service/queue"
	"moodloop/app/service/transcript"
	"moodloop/app/service/workflow"

	"github.com/samber/do"
)

// TurnRunner runs one user message through the conversation workflow.
type TurnRunner interface {
	RunTurn(ctx context.Context, state conversation.State, userText string) (conversation.State, error)
}

// Service owns the live conversation state and the interactive surface.
// A reader goroutine feeds lines into the queue; the main loop processes
// them one turn at a time. No error is fatal: failed turns leave the state
// untouched and the loop keeps going until the context is cancelled.
type Service struct {
	cfg           *config.Config
	runner        TurnRunner
	transcriptSvc *transcript.Service
	queueSvc      *queue.Service
	log           *slog.Logger

	in  io.Reader
	out io.Writer

	mu    sync.RWMutex
	state conversation.State
}

func New(di *do.Injector) (*Service, error) {
	return NewWith(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*workflow.Service](di),
		do.MustInvoke[*transcript.Service](di),
		do.MustInvoke[*queue.Service](di),
		os.Stdin,
		os.Stdout,
		slog.Default(),
	), nil
}

func NewWith(
	cfg *config.Config,
	runner TurnRunner,
	transcriptSvc *transcript.Service,
	queueSvc *queue.Service,
	in io.Reader,
	out io.Writer,
	log *slog.Logger,
) *Service {
	return &Service{
		cfg:           cfg,
		runner:        runner,
		transcriptSvc: transcriptSvc,
		queueSvc:      queueSvc,
		log:           log,
		in:            in,
		out:           out,
		state:         conversation.NewState(),
	}
}

// Snapshot returns the current conversation state. State is a value type,
// so the caller gets a stable view.
func (s *Service) Snapshot() conversation.State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *Service) setState(state conversation.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = state
}

func (s *Service) Run(ctx context.Context) {
	go s.readInput(ctx)

	for {
		select {
		case <-ctx.Done():
			s.farewell()
			return
		case msg, ok := <-s.queueSvc.Channel():
			if !ok {
				s.farewell()
				return
			}

			start := time.Now()
			if err := s.runIteration(ctx, msg.Text); err != nil {
				s.log.Error("Error processing turn", "text", msg.Text, "error", err)
				continue
			}

			s.log.Info("Processed turn",
				"text", msg.Text,
				"sentiment", s.Snapshot().Sentiment,
				"duration", time.Since(start))
		}
	}
}

// runIteration recovers from panics so that a defect anywhere in the turn
// path never kills the loop.
func (s *Service) runIteration(ctx context.Context, text string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error: %v", r)
		}
	}()

	prev := s.Snapshot()

	next, err := s.runner.RunTurn(ctx, prev, text)
	if err != nil {
		return fmt.Errorf("workflow.RunTurn: %w", err)
	}

	s.setState(next)

	if len(next.History) == len(prev.History) {
		return nil
	}

	turn, _ := next.LastTurn()

	fmt.Fprintf(s.out, "Bot: %s\n", turn.Bot)
	fmt.Fprintf(s.out, "[Mood: %s]\n\n", next.Sentiment)

	if err := s.transcriptSvc.Append(transcript.Record{
		Timestamp: time.Now(),
		User:      turn.User,
		Bot:       turn.Bot,
		Sentiment: next.Sentiment,
	}); err != nil {
		s.log.Warn("Failed to append transcript", "error", err)
	}

	return nil
}

func (s *Service) readInput(ctx context.Context) {
	scanner := bufio.NewScanner(s.in)

	for {
		fmt.Fprint(s.out, "You: ")

		if !scanner.Scan() {
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		s.queueSvc.Add(line)
	}
}

func (s *Service) farewell() {
	fmt.Fprintln(s.out, "\nBot: Goodbye! Take care.")
}
