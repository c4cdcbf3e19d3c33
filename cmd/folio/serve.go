package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/bamdow/folio/internal/api"
	"github.com/bamdow/folio/internal/config"
	"github.com/bamdow/folio/internal/project"
	"github.com/bamdow/folio/internal/storage"
)

func openProjects(cfg *config.Config) (*project.Store, error) {
	if dir := filepath.Dir(cfg.Server.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return project.Open(cfg.Server.DBPath,
		project.WithLogger(logger.Named("projects")),
		project.WithPageSize(cfg.Server.PageSize))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openProjects(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	images := storage.New(cfg.Server.UploadDir, cfg.Server.PublicURL)
	if err := images.Init(); err != nil {
		return fmt.Errorf("upload dir: %w", err)
	}

	opts := []api.Option{api.WithLogger(logger.Named("api"))}
	if cfg.Server.StaticDir != "" {
		opts = append(opts, api.WithStatic(cfg.Server.StaticDir))
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.New(store, images, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
