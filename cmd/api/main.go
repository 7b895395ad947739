package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"sekolah/internal/app"
	"sekolah/internal/config"
	"sekolah/internal/infra/db"
	"sekolah/internal/infra/memory"
	infraRepo "sekolah/internal/infra/repository"
	"sekolah/internal/logger"
	"sekolah/internal/repository"
	"sekolah/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	defer func() { _ = log.Sync() }()

	//Repository生成（postgres か memory）
	var repos repository.Repositories
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("using in-memory store, data is lost on restart")
		repos = memory.NewStore().Repositories()
	default:
		gormDB, err := db.Connect(cfg)
		if err != nil {
			log.Fatal("db connect failed", zap.Error(err))
		}
		if err := db.Migrate(gormDB); err != nil {
			log.Fatal("db migrate failed", zap.Error(err))
		}
		repos = infraRepo.NewGormRepositories(gormDB)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	e := app.Build(app.Deps{
		Config:   cfg,
		Repos:    repos,
		Log:      log,
		Registry: reg,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//Server起動
	addr := cfg.Port
	if addr != "" && addr[0] != ':' {
		addr = ":" + addr
	}
	if err := server.Start(ctx, e, addr, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
