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

// Package tasks runs conversion jobs on a SQLite-backed task queue.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/markifyhq/markify/internal/config"
)

// Client wraps backlite. The queue lives in its own SQLite database next to
// the jobs database, with a "-tasks" suffix.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	cfg    config.Tasks

	mu      sync.RWMutex
	started bool
}

func NewClient(mainDBPath string, cfg config.Tasks) (*Client, error) {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	name := base[:len(base)-len(ext)]
	tasksDBPath := filepath.Join(dir, name+"-tasks"+ext)

	db, err := sql.Open("sqlite3", tasksDBPath+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open tasks database: %w", err)
	}

	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          slogLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create task client: %w", err)
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("install task schema: %w", err)
	}

	return &Client{client: client, db: db, cfg: cfg}, nil
}

// Register adds queues. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing tasks. Non-blocking; pair with Stop.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	slog.Info("task queue started", "workers", c.cfg.Workers)
	c.client.Start(ctx)
}

// Stop waits for active tasks until the context deadline. Reports whether
// everything finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	ok := c.client.Stop(ctx)
	if ok {
		slog.Info("task queue stopped")
	} else {
		slog.Warn("task queue stopped with unfinished tasks")
	}
	return ok
}

// Close releases the queue database. Call after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Add starts an enqueue operation.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// slogLogger adapts slog to backlite.Logger.
type slogLogger struct{}

func (slogLogger) Info(message string, params ...any) {
	slog.Info(message, params...)
}

func (slogLogger) Error(message string, params ...any) {
	slog.Error(message, params...)
}
