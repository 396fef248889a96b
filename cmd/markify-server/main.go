// Copyright 2026 Markify Authors
//
// Licensed under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with
// the License. You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on
// an "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the License for the
// specific language governing permissions and limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/markifyhq/markify"
	"github.com/markifyhq/markify/describe"
	"github.com/markifyhq/markify/internal/config"
	"github.com/markifyhq/markify/internal/jobs"
	"github.com/markifyhq/markify/internal/server"
	"github.com/markifyhq/markify/internal/tasks"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.New()

	slog.Info("starting markify server", "version", version, "mode", cfg.Conversion.Mode)

	for _, dir := range []string{cfg.Storage.UploadDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	db, err := jobs.OpenDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return err
	}
	repo := jobs.NewRepository(db)

	engine, err := newEngine(cfg)
	if err != nil {
		return err
	}

	queue, err := tasks.NewClient(cfg.Storage.DatabasePath, cfg.Tasks)
	if err != nil {
		return err
	}
	defer queue.Close()

	converter := &tasks.Converter{
		Engine:    engine,
		Repo:      repo,
		OutputDir: cfg.Storage.OutputDir,
	}
	queue.Register(tasks.NewConvertQueue(converter))

	queueCtx, cancelQueue := context.WithCancel(context.Background())
	defer cancelQueue()
	queue.Start(queueCtx)

	router := server.NewRouter(&server.Server{
		Repo:      repo,
		Queue:     queue,
		Converter: converter,
		UploadDir: cfg.Storage.UploadDir,
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String(), "timeout", cfg.HTTP.ShutdownTimeout)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	queue.Stop(ctx)
	cancelQueue()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newEngine builds the conversion engine from the service configuration,
// wiring the image describer when an LLM key is configured.
func newEngine(cfg *config.Config) (*markify.MarkItDown, error) {
	mode, err := markify.ParseMode(cfg.Conversion.Mode)
	if err != nil {
		return nil, err
	}

	opts := []markify.Option{markify.WithMode(mode)}
	if cfg.Conversion.ExiftoolPath != "" {
		opts = append(opts, markify.WithExiftoolPath(cfg.Conversion.ExiftoolPath))
	}

	if cfg.LLM.APIKey != "" {
		gemini, err := describe.NewGemini(context.Background(), cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.Base)
		if err != nil {
			return nil, fmt.Errorf("create describer: %w", err)
		}
		opts = append(opts, markify.WithDescriber(gemini))
		if cfg.LLM.Model != "" {
			opts = append(opts, markify.WithDescriberModel(cfg.LLM.Model))
		}
	}

	return markify.New(opts...), nil
}
