// Package main is the entry point for the diabetes dashboard
package main

import (
	"context"
	"embed"
	"log"

	"github.com/wailsapp/wails/v3/pkg/application"
	"go.uber.org/zap"

	"github.com/mrcode/diabetes-dashboard/internal/app"
	"github.com/mrcode/diabetes-dashboard/internal/config"
	"github.com/mrcode/diabetes-dashboard/internal/logger"
	"github.com/mrcode/diabetes-dashboard/internal/models"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	cfg := config.Load()

	zl, err := logger.New(cfg.Logger.Level, cfg.Env)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	settings := models.DefaultSettings()
	if err := settings.Load(); err != nil {
		zl.Warn("using default settings", zap.Error(err))
	}

	svc, err := app.Build(cfg, settings, zl)
	if err != nil {
		zl.Fatal("failed to build services", zap.Error(err))
	}
	dashboard := app.NewDashboardService(svc)

	wailsApp := application.New(application.Options{
		Name:        "Diabetes Dashboard",
		Description: "Clinical dashboard for diabetes risk and glucose follow-up",
		Services: []application.Service{
			application.NewService(dashboard),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
		OnShutdown: dashboard.Shutdown,
	})
	dashboard.SetApp(wailsApp)

	s := settings.Clone()
	wailsApp.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:     "Diabetes Dashboard",
		Width:     s.WindowWidth,
		Height:    s.WindowHeight,
		MinWidth:  960,
		MinHeight: 640,
		URL:       "/",
	})

	go func() {
		if err := dashboard.Start(context.Background()); err != nil {
			zl.Warn("session restore failed", zap.Error(err))
		}
	}()

	if err := wailsApp.Run(); err != nil {
		zl.Fatal("application stopped", zap.Error(err))
	}
}
