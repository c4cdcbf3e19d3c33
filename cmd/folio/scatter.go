package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bamdow/folio/internal/dom/roddom"
	"github.com/bamdow/folio/internal/frame"
	"github.com/bamdow/folio/internal/gravity"
)

func runScatter(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	browser, err := roddom.Launch(ctx, cfg.Browser, logger.Named("browser"))
	if err != nil {
		return err
	}
	defer browser.Close()

	page, err := browser.Open(ctx, args[0])
	if err != nil {
		return err
	}
	doc, err := roddom.New(page, logger.Named("page"))
	if err != nil {
		return err
	}
	defer doc.Close()

	frames := frame.NewTicker(cfg.Physics.FPS)
	defer frames.Close()

	ctrl, err := gravity.NewController(doc, frames, cfg, gravity.WithLogger(logger.Named("gravity")))
	if err != nil {
		return err
	}

	ok, err := ctrl.Trigger(context.Background())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("page already scattered")
	}
	logger.Info("scattered", zap.Int("bodies", ctrl.BodyCount()), zap.String("url", args[0]))
	fmt.Println("click the page to push things around; interrupt to put them back")

	if hold > 0 {
		select {
		case <-time.After(hold):
		case <-ctx.Done():
		}
	} else {
		<-ctx.Done()
	}

	done, err := ctrl.Reset(context.Background())
	if err != nil {
		return err
	}
	<-done
	logger.Info("restored")
	return nil
}
