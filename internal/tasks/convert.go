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

package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/markifyhq/markify"
	"github.com/markifyhq/markify/internal/jobs"
)

// ConvertJobTask converts one uploaded file to Markdown.
type ConvertJobTask struct {
	JobID      string `json:"job_id"`
	UploadPath string `json:"upload_path"`
	Filename   string `json:"filename"`
}

// Config returns the queue configuration for conversion tasks.
func (t ConvertJobTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "convert_job",
		MaxAttempts: 1,
		Timeout:     10 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Converter holds what a conversion task needs: the engine, the job store
// and the directory converted markdown lands in.
type Converter struct {
	Engine    *markify.MarkItDown
	Repo      *jobs.Repository
	OutputDir string
}

// OutputPath returns where a job's result is written.
func (c *Converter) OutputPath(jobID string) string {
	return filepath.Join(c.OutputDir, jobID+".md")
}

// Process runs one conversion job. The upload is removed afterwards in
// every case; the job record carries the outcome.
func (c *Converter) Process(ctx context.Context, task ConvertJobTask) error {
	defer os.Remove(task.UploadPath)

	if err := c.Repo.MarkProcessing(task.JobID); err != nil {
		return fmt.Errorf("mark job %s processing: %w", task.JobID, err)
	}

	result, err := c.Engine.ConvertFile(task.UploadPath,
		markify.WithFilenameHint(task.Filename),
		markify.WithExtensionHint(filepath.Ext(task.Filename)),
	)
	if err != nil {
		// Failures are an expected job outcome, not a queue error: record
		// them on the job instead of retrying.
		msg := fmt.Sprintf("%T: %v", err, err)
		if markErr := c.Repo.MarkFailed(task.JobID, msg); markErr != nil {
			return fmt.Errorf("mark job %s failed: %w", task.JobID, markErr)
		}
		slog.Warn("conversion failed", "job", task.JobID, "file", task.Filename, "error", err)
		return nil
	}

	if err := os.WriteFile(c.OutputPath(task.JobID), []byte(result.Markdown), 0o644); err != nil {
		if markErr := c.Repo.MarkFailed(task.JobID, fmt.Sprintf("%T: %v", err, err)); markErr != nil {
			return fmt.Errorf("mark job %s failed: %w", task.JobID, markErr)
		}
		return nil
	}

	if err := c.Repo.MarkCompleted(task.JobID); err != nil {
		return fmt.Errorf("mark job %s completed: %w", task.JobID, err)
	}

	slog.Info("conversion completed", "job", task.JobID, "file", task.Filename)
	return nil
}

// NewConvertQueue creates the backlite queue for conversion tasks.
func NewConvertQueue(c *Converter) backlite.Queue {
	return backlite.NewQueue(backlite.QueueProcessor[ConvertJobTask](c.Process))
}
