package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/httpapi"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/rag"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the upload indexer",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		svc, err := rag.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer svc.Stop()
		if err := svc.Start(ctx); err != nil {
			return err
		}

		srv := httpapi.New(svc, cfg.Server, cfg.Upload.MaxBytes)
		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Infof("serve: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}
