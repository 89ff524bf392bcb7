package app

import (
	"context"
	"errors"
	"fmt"

	"patentai/internal/gateway/config"
	"patentai/internal/gateway/handler"
	"patentai/internal/gateway/server"
	"patentai/internal/generation"
	"patentai/internal/llm"
	"patentai/internal/logger"
)

type App struct {
	server *server.Server
	client llm.Client
	log    *logger.Logger
}

func New(ctx context.Context, log *logger.Logger) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	log = logger.OrNop(log)

	// Dependencies
	client, profile, err := llm.NewClient(ctx, llm.Settings{
		Provider: cfg.LLM.Provider,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
		BaseURL:  cfg.LLM.BaseURL,
		RPS:      cfg.LLM.RPS,
		Burst:    cfg.LLM.Burst,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize llm client: %w", err)
	}
	log.Info("llm provider ready", "provider", profile.Provider, "model", profile.Model, "client", client.Name())

	drafts, err := initDraftStore(cfg, log)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	orch := generation.New(client, profile, generation.WithLogger(log))

	generateHandler := handler.NewGenerateHandler(orch, client, drafts, log, cfg.MaxUploadBytes)
	officeHandler := handler.NewOfficeHandler()
	documentHandler := handler.NewDocumentHandler(drafts, log)

	// Routing & Server
	mux := server.NewMux(generateHandler, officeHandler, documentHandler, log)
	srv := server.New(cfg.Port, mux, log)

	return &App{
		server: srv,
		client: client,
		log:    log,
	}, nil
}

func (a *App) Start() error {
	return a.server.Start()
}

func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(a.server.Shutdown(ctx), a.client.Close())
}
