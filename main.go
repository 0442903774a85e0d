package main

import (
	"context"
	"log/slog"
	"moodloop/app/client/ollama"
	"moodloop/app/config"
	"moodloop/app/server"
	"moodloop/app/service/conversation"
	"moodloop/app/service/engine"
	"moodloop/app/service/queue"
	"moodloop/app/service/sentiment"
	"moodloop/app/service/transcript"
	"moodloop/app/service/workflow"
	"moodloop/app/util/mylog"
	"os"
	"os/signal"

	"github.com/gofiber/fiber/v2/log"
	"github.com/samber/do"
)

func main() {
	di := do.New()
	defer di.Shutdown()
	defer log.Info("Waiting for services to finish...")

	mylog.Preinit()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	do.ProvideValue(di, appCtx)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}
	do.ProvideValue(di, cfg)

	if err = mylog.Init(cfg); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}

	do.Provide(di, ollama.NewClient)
	do.Provide(di, sentiment.New)
	do.Provide(di, conversation.New)
	do.Provide(di, workflow.New)
	do.Provide(di, transcript.New)
	do.Provide(di, queue.New)
	do.Provide(di, engine.New)
	do.Provide(di, server.New)

	slog.Info("Service started")

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt)
		<-sigint

		log.Info("Shutting down...")

		cancel()
	}()

	go func() {
		if err := do.MustInvoke[*server.Server](di).Run(appCtx); err != nil {
			slog.Error("Status server stopped", "error", err)
		}
	}()

	do.MustInvoke[*engine.Service](di).Run(appCtx)
}
