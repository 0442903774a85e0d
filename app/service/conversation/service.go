package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"moodloop/app/client/ollama"
	"moodloop/app/service/sentiment"

	"github.com/samber/do"
)

// Completer is the external text-completion service.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

type Service struct {
	completer  Completer
	classifier *sentiment.Service
	log        *slog.Logger
}

func New(di *do.Injector) (*Service, error) {
	return NewWith(
		do.MustInvoke[*ollama.Client](di),
		do.MustInvoke[*sentiment.Service](di),
		slog.Default(),
	), nil
}

func NewWith(completer Completer, classifier *sentiment.Service, log *slog.Logger) *Service {
	return &Service{
		completer:  completer,
		classifier: classifier,
		log:        log,
	}
}

// ProcessTurn sends userText to the completion service as a single-turn
// request and returns a state extended by one (user, bot) pair with the
// sentiment of userText.
//
// Whitespace-only input is a no-op: the input state comes back unchanged.
// On completion failure the input state also comes back unchanged (the turn
// rolls back fully), along with the error.
func (s *Service) ProcessTurn(ctx context.Context, state State, userText string) (State, error) {
	if strings.TrimSpace(userText) == "" {
		s.log.Warn("Ignoring empty input")
		return state, nil
	}

	reply, err := s.completer.Complete(ctx, userText)
	if err != nil {
		s.log.Error("Completion request failed", "text", userText, "error", err)
		return state, fmt.Errorf("completer.Complete: %w", err)
	}

	turn := Turn{
		User: userText,
		Bot:  reply,
	}

	return state.WithTurn(turn, s.classifier.Classify(userText)), nil
}
