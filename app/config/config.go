package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Log    Log    `yaml:"log"`
	HTTP   HTTP   `yaml:"http"`
	Ollama Ollama `yaml:"ollama"`
	Chat   Chat   `yaml:"chat"`
}

type Ollama struct {
	// Ollama server base url
	BaseURL string `yaml:"base_url" example:"http://localhost:11434" validate:"required"`
	// Model used for replies and summaries
	Model string `yaml:"model" example:"llama3" validate:"required"`
	// Per-request timeout in seconds
	TimeoutSeconds int `yaml:"timeout_seconds" example:"30"`
}

type Chat struct {
	// Summarize the conversation after every N completed turns
	SummarizeEvery int `yaml:"summarize_every" example:"5"`
	// JSONL transcript file, empty string disables persistence
	TranscriptPath string `yaml:"transcript_path" example:"data/transcript.jsonl"`
}

type HTTP struct {
	// Listen address of the status server, empty string disables it
	Addr string `yaml:"addr" example:"127.0.0.1:8099"`
}

type Log struct {
	// Telegram logging config
	Telegram TelegramLog `yaml:"telegram"`
}

type TelegramLog struct {
	// Chat bot token, obtain it via BotFather
	Token string `yaml:"token" example:"1234567890:ABCdefGHIjklMNopQRstUVwxyZ-123456789"`
	// Chat ID to send messages to
	ChatID string `yaml:"chat_id" example:"1001234567890"`
}

func Load() (*Config, error) {
	return LoadFrom("config.yaml")
}

func LoadFrom(path string) (*Config, error) {
	var result Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read config file: %w", err)
	}

	if err = yaml.Unmarshal(data, &result); err != nil {
		return nil, oops.Errorf("failed to parse YAML config: %w", err)
	}

	if result.Ollama.TimeoutSeconds <= 0 {
		result.Ollama.TimeoutSeconds = 30
	}
	if result.Chat.SummarizeEvery <= 0 {
		result.Chat.SummarizeEvery = 5
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(result); err != nil {
		return nil, oops.Errorf("failed to validate config: %w", err)
	}

	return &result, nil
}
