package mylog

import (
	"context"
	"log/slog"
	"moodloop/app/config"
	"os"

	"github.com/phsym/console-slog"
	slogmulti "github.com/samber/slog-multi"
	slogtelegram "github.com/samber/slog-telegram/v2"
)

func consoleHandler() slog.Handler {
	return console.NewHandler(os.Stderr, &console.HandlerOptions{
		AddSource: true,
		Level:     slog.LevelDebug,
	})
}

// Preinit installs a console-only logger so that config loading failures
// are already readable.
func Preinit() {
	slog.SetDefault(slog.New(consoleHandler()))
}

// Init installs the final logger: console always, plus a telegram sink for
// errors and for records tagged with a "telegram" attr when configured.
func Init(cfg *config.Config) error {
	router := slogmulti.Router().Add(consoleHandler())

	if cfg.Log.Telegram.Token != "" {
		telegramHandler := slogtelegram.Option{
			Level:     slog.LevelDebug,
			Token:     cfg.Log.Telegram.Token,
			Username:  cfg.Log.Telegram.ChatID,
			AddSource: true,
		}.NewTelegramHandler()

		router = router.Add(telegramHandler, telegramWorthy)
	}

	slog.SetDefault(slog.New(router.Handler()))

	return nil
}

func telegramWorthy(_ context.Context, r slog.Record) bool {
	if r.Level == slog.LevelError {
		return true
	}

	tagged := false
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key == "telegram" {
			tagged = true
			return false
		}

		return true
	})

	return tagged
}
