/*
Copyright © 2025 Valentyn Solomko <valentyn.solomko@gmail.com>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/valpere/pagetran/internal/logger"
	"github.com/valpere/pagetran/internal/model"
	"github.com/valpere/pagetran/internal/server"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API used by the web viewer.

On SIGINT/SIGTERM the running job is cancelled at its next page boundary,
in-flight requests are drained and the resident model is unloaded.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		defaultTier, err := model.ParseTier(flagOr(cmd, "quality", cfg.Translate.Quality))
		if err != nil {
			return fmt.Errorf("invalid translate.quality: %w", err)
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.backend.IsAvailable(ctx); err != nil {
			logger.Warn("Ollama is not reachable; translations will fail until it is", "url", cfg.Ollama.URL, "error", err)
		}

		// Preloading happens before any job can start so it never swaps
		// a model out from under a running page.
		if cfg.Server.PreloadTier != "" {
			tier, err := model.ParseTier(cfg.Server.PreloadTier)
			if err != nil {
				return fmt.Errorf("invalid server.preload_tier: %w", err)
			}
			if _, err := a.models.EnsureResident(ctx, tier); err != nil {
				logger.Warn("Model preload failed", "tier", tier, "error", err)
			}
		}

		gin.SetMode(gin.ReleaseMode)
		srv := server.New(server.Deps{
			Orchestrator: a.orchestrator,
			Models:       a.models,
			Glossary:     a.glossary,
			Proofreader:  a.proofreader,
			DefaultTier:  defaultTier,
			CORSOrigins:  cfg.Server.CORSOrigins,
		})
		httpServer := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			logger.Info("HTTP server listening", "addr", cfg.Server.Addr, "source", cfg.Languages.Source, "target", cfg.Languages.Target)
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("http server failed: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			logger.Info("Shutting down")
			a.orchestrator.Cancel()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("http shutdown failed: %w", err)
			}
			// The model is unloaded on return, so the page in flight must
			// finish first.
			snap, err := a.orchestrator.Shutdown(shutdownCtx)
			if err != nil {
				return fmt.Errorf("job did not stop: %w", err)
			}
			logger.Info("Job stopped", "status", snap.Status, "pages", len(snap.Results))
			return nil
		})
		return g.Wait()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default 127.0.0.1:8002)")
	serveCmd.Flags().String("preload", "", "Tier to load at startup: high, balanced, fast")
	serveCmd.Flags().StringP("quality", "q", "", "Default quality tier for requests without one")
	bindFlags(serveCmd, map[string]string{
		"server.addr":         "addr",
		"server.preload_tier": "preload",
	})
}
