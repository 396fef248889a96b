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

package jobs

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := OpenDatabase(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})

	return NewRepository(db)
}

func TestCreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)

	job := &Job{ID: "job-1", Filename: "report.docx", Status: StatusPending}
	require.NoError(t, repo.Create(job))

	got, err := repo.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, "report.docx", got.Filename)
	assert.Equal(t, StatusPending, got.Status)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetUnknown(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.Get("nope")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestStatusTransitions(t *testing.T) {
	repo := setupTestRepo(t)

	job := &Job{ID: "job-1", Filename: "a.pdf", Status: StatusPending}
	require.NoError(t, repo.Create(job))

	require.NoError(t, repo.MarkProcessing("job-1"))
	got, err := repo.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, got.Status)

	require.NoError(t, repo.MarkFailed("job-1", "*errors.errorString: boom"))
	got, err = repo.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, "*errors.errorString: boom", got.Error)

	require.NoError(t, repo.MarkCompleted("job-1"))
	got, err = repo.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Empty(t, got.Error, "completion clears the recorded error")
}

func TestListPagination(t *testing.T) {
	repo := setupTestRepo(t)

	for i := 0; i < 25; i++ {
		job := &Job{
			ID:        fmt.Sprintf("job-%02d", i),
			Filename:  fmt.Sprintf("file-%02d.txt", i),
			Status:    StatusPending,
			CreatedAt: time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, repo.Create(job))
	}

	page1, total, err := repo.List(1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, page1, 10)
	assert.Equal(t, "job-24", page1[0].ID, "newest first")

	page3, total, err := repo.List(3, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page3, 5)
}

func TestListClamping(t *testing.T) {
	repo := setupTestRepo(t)

	require.NoError(t, repo.Create(&Job{ID: "only", Filename: "x", Status: StatusPending}))

	// Page and limit below 1 fall back to defaults.
	list, _, err := repo.List(0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Oversized limit is clamped, not rejected.
	_, _, err = repo.List(1, MaxPageSize*10)
	require.NoError(t, err)
}
