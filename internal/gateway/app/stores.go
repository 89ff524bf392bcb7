package app

import (
	"fmt"

	"patentai/internal/gateway/config"
	"patentai/internal/gateway/repository/draft"
	"patentai/internal/logger"
)

func initDraftStore(cfg *config.Config, log *logger.Logger) (draft.Store, error) {
	if !cfg.Draft.Enabled {
		log.Info("draft store: in-memory", "size", cfg.Draft.MemorySize, "ttl", cfg.Draft.MemoryTTL)
		return draft.NewMemoryStore(cfg.Draft.MemorySize, cfg.Draft.MemoryTTL), nil
	}
	s3Cfg := draft.S3Config{
		Endpoint:  cfg.Draft.Endpoint,
		Region:    cfg.Draft.Region,
		AccessKey: cfg.Draft.AccessKey,
		SecretKey: cfg.Draft.SecretKey,
		Bucket:    cfg.Draft.Bucket,
		UseSSL:    cfg.Draft.UseSSL,
	}
	store, err := draft.NewS3Store(s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize draft s3 store: %w", err)
	}
	log.Info("draft store: s3", "bucket", s3Cfg.Bucket, "endpoint", s3Cfg.Endpoint)
	return store, nil
}
