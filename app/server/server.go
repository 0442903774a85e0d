package server

import (
	"context"
	"log/slog"
	"time"

	"moodloop/app/config"
	"moodloop/app/service/engine"
	"moodloop/app/service/transcript"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Server exposes a read-only view of the running conversation over HTTP.
// It never mutates state: every handler works off an engine snapshot or
// the persisted transcript.
type Server struct {
	cfg           *config.Config
	engineSvc     *engine.Service
	transcriptSvc *transcript.Service
	app           *fiber.App
	log           *slog.Logger
}

func New(di *do.Injector) (*Server, error) {
	s := &Server{
		cfg:           do.MustInvoke[*config.Config](di),
		engineSvc:     do.MustInvoke[*engine.Service](di),
		transcriptSvc: do.MustInvoke[*transcript.Service](di),
		log:           slog.Default(),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	s.routes()

	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	s.app.Get("/state", func(c *fiber.Ctx) error {
		state := s.engineSvc.Snapshot()

		return c.JSON(fiber.Map{
			"turns":     len(state.History),
			"sentiment": state.Sentiment,
			"summary":   state.Summary,
		})
	})

	s.app.Get("/transcript", func(c *fiber.Ctx) error {
		records, err := s.transcriptSvc.Load()
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}

		return c.JSON(records)
	})
}

// Run listens until ctx is cancelled. A no-op when no listen address is
// configured.
func (s *Server) Run(ctx context.Context) error {
	if s.cfg.HTTP.Addr == "" {
		return nil
	}

	s.log.Info("Status server listening", "addr", s.cfg.HTTP.Addr)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return s.app.Listen(s.cfg.HTTP.Addr)
	})

	group.Go(func() error {
		<-ctx.Done()
		return s.app.ShutdownWithTimeout(shutdownTimeout)
	})

	return group.Wait()
}
