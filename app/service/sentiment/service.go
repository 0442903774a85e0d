package sentiment

import (
	"log/slog"
	"strings"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
)

// Label is the coarse three-way mood classification of a single message.
type Label string

const (
	Negative Label = "negative"
	Positive Label = "positive"
	Neutral  Label = "neutral"
)

// The negative list is checked first: a message containing words from both
// lists classifies as negative.
var (
	negativeWords = []string{"sad", "depressed", "anxious", "upset"}
	positiveWords = []string{"happy", "excited", "joyful"}
)

type Service struct {
	log *slog.Logger
}

func New(_ *do.Injector) (*Service, error) {
	return NewWith(slog.Default()), nil
}

func NewWith(log *slog.Logger) *Service {
	return &Service{
		log: log,
	}
}

// Classify maps free text to a sentiment label via substring containment
// over the fixed word lists. It never panics: any internal failure is logged
// and classified as neutral.
func (s *Service) Classify(text string) (label Label) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("Sentiment classification failed", "panic", r)
			label = Neutral
		}
	}()

	lowered := strings.ToLower(text)

	contains := func(word string) bool {
		return strings.Contains(lowered, word)
	}

	switch {
	case pie.Any(negativeWords, contains):
		return Negative
	case pie.Any(positiveWords, contains):
		return Positive
	default:
		return Neutral
	}
}
