package workflow

import (
	"context"
	"log/slog"
	"strings"

	"moodloop/app/client/ollama"
	"moodloop/app/config"
	"moodloop/app/service/conversation"
	"moodloop/app/service/sentiment"

	_ "embed"

	"github.com/samber/do"
)

//go:embed summarize_prompt.txt
var summarizePromptTemplate string

const (
	nodeChat      = "chat"
	nodeNegative  = "negative"
	nodePositive  = "positive"
	nodeNeutral   = "neutral"
	nodeSummarize = "summarize"
)

// TurnProcessor produces one conversational turn from the pending input.
type TurnProcessor interface {
	ProcessTurn(ctx context.Context, state conversation.State, userText string) (conversation.State, error)
}

// Service runs one user turn through the conversation graph:
// chat -> (branch on sentiment) -> negative|positive|neutral -> summarize.
//
// The branch nodes carry no distinct behavior: they only record which mood
// path the turn took. The turn processor runs exactly once per turn, at the
// chat node.
type Service struct {
	cfg       *config.Config
	processor TurnProcessor
	completer conversation.Completer
	graph     *Graph
	log       *slog.Logger
}

func New(di *do.Injector) (*Service, error) {
	return NewWith(
		do.MustInvoke[*config.Config](di),
		do.MustInvoke[*conversation.Service](di),
		do.MustInvoke[*ollama.Client](di),
		slog.Default(),
	), nil
}

func NewWith(
	cfg *config.Config,
	processor TurnProcessor,
	completer conversation.Completer,
	log *slog.Logger,
) *Service {
	s := &Service{
		cfg:       cfg,
		processor: processor,
		completer: completer,
		log:       log,
	}
	s.graph = s.buildGraph()

	return s
}

func (s *Service) buildGraph() *Graph {
	graph := NewGraph()

	graph.AddNode(nodeChat, s.chatNode)
	graph.AddNode(nodeNegative, s.branchNode(nodeNegative))
	graph.AddNode(nodePositive, s.branchNode(nodePositive))
	graph.AddNode(nodeNeutral, s.branchNode(nodeNeutral))
	graph.AddNode(nodeSummarize, s.summarizeNode)

	graph.SetEntryPoint(nodeChat)

	graph.AddBranch(nodeChat, func(state conversation.State) string {
		switch state.Sentiment {
		case sentiment.Negative:
			return nodeNegative
		case sentiment.Positive:
			return nodePositive
		default:
			return nodeNeutral
		}
	})

	graph.AddEdge(nodeNegative, nodeSummarize)
	graph.AddEdge(nodePositive, nodeSummarize)
	graph.AddEdge(nodeNeutral, nodeSummarize)
	graph.AddEdge(nodeSummarize, End)

	return graph
}

// RunTurn processes one user message and returns the resulting state.
// On any node failure the input state comes back unchanged.
func (s *Service) RunTurn(ctx context.Context, state conversation.State, userText string) (conversation.State, error) {
	result, err := s.graph.Run(ctx, state.WithInput(userText))
	if err != nil {
		return state, err
	}

	return result, nil
}

func (s *Service) chatNode(ctx context.Context, state conversation.State) (conversation.State, error) {
	return s.processor.ProcessTurn(ctx, state, state.PendingInput)
}

func (s *Service) branchNode(name string) NodeFunc {
	return func(_ context.Context, state conversation.State) (conversation.State, error) {
		s.log.Debug("Routed turn", "branch", name)
		return state, nil
	}
}

// summarizeNode refreshes the summary after every cfg.Chat.SummarizeEvery
// completed turns. Summarization failure is not fatal to the turn: the old
// summary stays.
func (s *Service) summarizeNode(ctx context.Context, state conversation.State) (conversation.State, error) {
	if !s.summaryDue(state) {
		return state, nil
	}

	prompt := strings.ReplaceAll(summarizePromptTemplate, "{conversation}", state.Transcript())

	summary, err := s.completer.Complete(ctx, prompt)
	if err != nil {
		s.log.Error("Summarization failed", "turns", len(state.History), "error", err)
		return state, nil
	}

	s.log.Info("Summarized conversation", "turns", len(state.History))

	return state.WithSummary(summary), nil
}

func (s *Service) summaryDue(state conversation.State) bool {
	if len(state.History) == 0 {
		return false
	}

	return len(state.History)%s.cfg.Chat.SummarizeEvery == 0
}
