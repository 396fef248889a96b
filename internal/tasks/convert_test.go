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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markifyhq/markify"
	"github.com/markifyhq/markify/internal/jobs"
)

func setupConverter(t *testing.T) (*Converter, string) {
	t.Helper()
	dir := t.TempDir()

	db, err := jobs.OpenDatabase(filepath.Join(dir, "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	outputDir := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	return &Converter{
		Engine:    markify.New(),
		Repo:      jobs.NewRepository(db),
		OutputDir: outputDir,
	}, dir
}

func TestProcessSuccess(t *testing.T) {
	conv, dir := setupConverter(t)

	uploadPath := filepath.Join(dir, "job-1.txt")
	require.NoError(t, os.WriteFile(uploadPath, []byte("converted body"), 0o644))
	require.NoError(t, conv.Repo.Create(&jobs.Job{ID: "job-1", Filename: "notes.txt", Status: jobs.StatusPending}))

	err := conv.Process(context.Background(), ConvertJobTask{
		JobID:      "job-1",
		UploadPath: uploadPath,
		Filename:   "notes.txt",
	})
	require.NoError(t, err)

	job, err := conv.Repo.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusCompleted, job.Status)

	out, err := os.ReadFile(conv.OutputPath("job-1"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "converted body")

	_, err = os.Stat(uploadPath)
	assert.True(t, os.IsNotExist(err), "upload should be removed after processing")
}

func TestProcessConversionFailure(t *testing.T) {
	conv, dir := setupConverter(t)

	// Unconvertible payload: unknown extension, binary content.
	uploadPath := filepath.Join(dir, "job-2.xyz")
	require.NoError(t, os.WriteFile(uploadPath, []byte{0x00, 0x01, 0x02}, 0o644))
	require.NoError(t, conv.Repo.Create(&jobs.Job{ID: "job-2", Filename: "blob.xyz", Status: jobs.StatusPending}))

	err := conv.Process(context.Background(), ConvertJobTask{
		JobID:      "job-2",
		UploadPath: uploadPath,
		Filename:   "blob.xyz",
	})
	require.NoError(t, err, "conversion failure is a job outcome, not a queue error")

	job, err := conv.Repo.Get("job-2")
	require.NoError(t, err)
	assert.Equal(t, jobs.StatusFailed, job.Status)
	assert.Contains(t, job.Error, "UnsupportedFormatError")
}

func TestOutputPath(t *testing.T) {
	conv := &Converter{OutputDir: "/var/lib/markify/output"}
	assert.Equal(t, filepath.Join("/var/lib/markify/output", "abc.md"), conv.OutputPath("abc"))
}

func TestConvertJobTaskConfig(t *testing.T) {
	cfg := ConvertJobTask{}.Config()
	assert.Equal(t, "convert_job", cfg.Name)
	assert.Equal(t, 1, cfg.MaxAttempts)
}
