package transcript

import (
	"time"

	"moodloop/app/service/sentiment"
)

type Record struct {
	Timestamp time.Time       `json:"ts"`
	User      string          `json:"user"`
	Bot       string          `json:"bot"`
	Sentiment sentiment.Label `json:"sentiment"`
}
