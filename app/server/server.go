package server

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"docqa/app/agent"
	"docqa/app/api"
	"docqa/app/ingest"
	"docqa/app/middleware"
	"docqa/model"
	"docqa/store"
	"docqa/types"
)

type Server struct {
	cfg    types.Config
	logger *slog.Logger
	app    *fiber.App
	store  *store.PostgresStore
}

func New(cfg types.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: slog.Default(),
	}
}

func (s *Server) Run() error {
	ctx := context.Background()

	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		s.cfg.PGHost, s.cfg.PGPort, s.cfg.PGUser, s.cfg.PGPass, s.cfg.PGDBName)
	pool, err := store.NewPostgresStore(ctx, connStr, s.cfg.EmbeddingDim)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	s.store = pool

	if err := pool.Init(ctx); err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var (
		embedder = model.NewOpenAIEmbedder(s.cfg)
		llm      = model.NewOpenAILLM(s.cfg)
		parser   = model.NewParser(s.cfg)

		ragAgent = agent.NewAgent(agent.NewRetriever(embedder, pool), llm, s.cfg)
		ingestor = ingest.New(pool, embedder, s.cfg)

		askHandler      = api.NewAskHandler(ragAgent)
		fileHandler     = api.NewFileHandler(parser, ingestor, s.cfg.UploadDir)
		documentHandler = api.NewDocumentHandler(pool)
		checkHandler    = api.NewCheckHandler()
	)

	app := fiber.New(fiber.Config{
		ErrorHandler: api.ErrorHandler,
	})
	app.Use(middleware.RequestLogger(s.logger))
	s.app = app

	check := app.Group("/check")
	check.Get("/healthy", checkHandler.HandleHealthy)

	apiv1 := app.Group("/api/v1")
	apiv1.Post("/ask", askHandler.HandleAsk)
	apiv1.Post("/documents", fileHandler.HandleUpload)
	apiv1.Get("/documents", documentHandler.HandleList)
	apiv1.Delete("/documents/:id", documentHandler.HandleDelete)
	apiv1.Post("/documents/delete", documentHandler.HandleDeleteMany)
	apiv1.Get("/stats", documentHandler.HandleStats)

	s.logger.Info("server listening", "addr", s.cfg.ServerAddr)
	return app.Listen(s.cfg.ServerAddr)
}

func (s *Server) Stop() {
	if s.app != nil {
		if err := s.app.Shutdown(); err != nil {
			s.logger.Error("server shutdown", "error", err)
		}
	}
	if s.store != nil {
		_ = s.store.Close()
	}
	s.logger.Info("server stopped")
}
