package main

import (
	"log"

	"github.com/LexatoBR/lexato-extension-sub005/internal/config"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/db"
	httpinfra "github.com/LexatoBR/lexato-extension-sub005/internal/infra/http"
	"github.com/LexatoBR/lexato-extension-sub005/internal/infra/logger"
)

func main() {
	cfg := config.FromEnv()

	zlog, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zlog.Sync()

	store, err := db.NewStore(cfg)
	if err != nil {
		zlog.Fatalw("init store", "error", err)
	}

	srv, err := httpinfra.NewServer(cfg, store, zlog)
	if err != nil {
		zlog.Fatalw("init server", "error", err)
	}
	if err := srv.Run(); err != nil {
		zlog.Fatalw("server exited", "error", err)
	}
}
