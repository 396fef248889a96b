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

package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markifyhq/markify"
	"github.com/markifyhq/markify/internal/jobs"
	"github.com/markifyhq/markify/internal/tasks"
)

func setupServer(t *testing.T) (*gin.Engine, *Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()

	db, err := jobs.OpenDatabase(filepath.Join(dir, "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	uploadDir := filepath.Join(dir, "uploads")
	outputDir := filepath.Join(dir, "output")
	require.NoError(t, os.MkdirAll(uploadDir, 0o755))
	require.NoError(t, os.MkdirAll(outputDir, 0o755))

	repo := jobs.NewRepository(db)
	srv := &Server{
		Repo: repo,
		Converter: &tasks.Converter{
			Engine:    markify.New(),
			Repo:      repo,
			OutputDir: outputDir,
		},
		UploadDir: uploadDir,
	}
	return NewRouter(srv), srv
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	router, _ := setupServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateJobMissingFile(t *testing.T) {
	router, _ := setupServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateJobMarkdownShortCircuit(t *testing.T) {
	router, srv := setupServer(t)

	body, contentType := multipartUpload(t, "readme.md", []byte("# Already markdown\n"))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/jobs", body)
	req.Header.Set("Content-Type", contentType)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status, "markdown uploads complete without queueing")

	out, err := os.ReadFile(srv.Converter.OutputPath(resp.JobID))
	require.NoError(t, err)
	assert.Equal(t, "# Already markdown\n", string(out))
}

func TestGetJobNotFound(t *testing.T) {
	router, _ := setupServer(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/unknown", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetJob(t *testing.T) {
	router, srv := setupServer(t)

	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "j1", Filename: "a.docx", Status: jobs.StatusProcessing}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs/j1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp jobResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "j1", resp.JobID)
	assert.Equal(t, "a.docx", resp.Filename)
	assert.Equal(t, "processing", resp.Status)
}

func TestListJobs(t *testing.T) {
	router, srv := setupServer(t)

	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "j1", Filename: "a.txt", Status: jobs.StatusPending}))
	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "j2", Filename: "b.txt", Status: jobs.StatusCompleted}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/jobs", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Jobs  []jobResponse `json:"jobs"`
		Total int64         `json:"total"`
		Page  int           `json:"page"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.EqualValues(t, 2, resp.Total)
	assert.Len(t, resp.Jobs, 2)
	assert.Equal(t, 1, resp.Page)
}

func TestGetJobResult(t *testing.T) {
	router, srv := setupServer(t)

	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "done", Filename: "a.txt", Status: jobs.StatusCompleted}))
	require.NoError(t, os.WriteFile(srv.Converter.OutputPath("done"), []byte("result body"), 0o644))
	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "pending", Filename: "b.txt", Status: jobs.StatusPending}))
	require.NoError(t, srv.Repo.Create(&jobs.Job{ID: "broken", Filename: "c.txt", Status: jobs.StatusFailed, Error: "conversion exploded"}))

	t.Run("completed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/done/result", nil)
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "result body", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "done.md")
	})

	t.Run("not finished", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/pending/result", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusTooEarly, w.Code)
	})

	t.Run("failed", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/broken/result", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "conversion exploded")
	})

	t.Run("unknown", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/jobs/missing/result", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
