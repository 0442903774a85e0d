package conversation

import (
	"fmt"
	"strings"

	"moodloop/app/service/sentiment"
)

// Turn is one user message plus the bot's resulting reply.
type Turn struct {
	User string `json:"user"`
	Bot  string `json:"bot"`
}

// State is the full conversation record. It is a value type: all updates
// return a new State and never mutate the receiver or its history slice,
// so a snapshot handed out earlier stays valid.
type State struct {
	History      []Turn
	Sentiment    sentiment.Label
	Summary      string
	PendingInput string
}

func NewState() State {
	return State{
		Sentiment: sentiment.Neutral,
	}
}

// WithInput stages the raw text of the next turn.
func (s State) WithInput(text string) State {
	s.PendingInput = text
	return s
}

// WithTurn appends one completed turn, records its sentiment and clears
// the pending input.
func (s State) WithTurn(turn Turn, label sentiment.Label) State {
	history := make([]Turn, len(s.History), len(s.History)+1)
	copy(history, s.History)

	s.History = append(history, turn)
	s.Sentiment = label
	s.PendingInput = ""

	return s
}

func (s State) WithSummary(text string) State {
	s.Summary = text
	return s
}

func (s State) LastTurn() (Turn, bool) {
	if len(s.History) == 0 {
		return Turn{}, false
	}

	return s.History[len(s.History)-1], true
}

// Transcript renders the history as one text block, one "<user> <bot>" line
// per turn, for the summarization prompt.
func (s State) Transcript() string {
	var builder strings.Builder

	for _, turn := range s.History {
		builder.WriteString(fmt.Sprintf("%s %s\n", turn.User, turn.Bot))
	}

	return strings.TrimRight(builder.String(), "\n")
}
