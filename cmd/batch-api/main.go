package main

import (
	"time"

	"go-cheque-batch/internal/api"
	"go-cheque-batch/internal/api/handler"
	"go-cheque-batch/internal/config"
	"go-cheque-batch/internal/export"
	"go-cheque-batch/internal/guard"
	"go-cheque-batch/internal/logging"
	"go-cheque-batch/internal/orchestrator"
	"go-cheque-batch/internal/stage"
	"go-cheque-batch/internal/store"
	"go-cheque-batch/pkg/router"
	"go-cheque-batch/pkg/utils"
)

// @title Cheque Batch Analysis API
// @version 1.0
// @description Batch orchestration service for cheque image analysis
// @BasePath /api/v1
func main() {
	log := logging.NewLogger()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if cfg.Stages.BaseURL == "" {
		log.Fatalf("stages.base_url is required")
	}

	st, err := store.Open(cfg.DB.Path)
	if err != nil {
		log.Fatalf("open registry: %v", err)
	}
	defer st.Close()

	stageTimeout := utils.ParseDuration(cfg.Stages.Timeout, 30*time.Second)
	client := stage.NewHTTPClient(cfg.Stages.BaseURL, stageTimeout)
	runner := orchestrator.NewRunner(client, log)
	files := export.NewExporter(cfg.Output.Dir)
	orch := orchestrator.New(st, runner, files, log)

	window := utils.ParseDuration(cfg.Guard.Window, time.Minute)
	g := guard.NewSubmissionGuard(cfg.Guard.MaxSubmissions, window)

	r := router.New()
	api.RegisterRoutes(r, handler.New(st, orch, g, files, log))

	if err := r.Start(cfg.Server.Addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}
