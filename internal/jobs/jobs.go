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

// Package jobs persists conversion jobs and their lifecycle.
package jobs

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Status is a job lifecycle state. Jobs move pending -> processing ->
// completed or failed; there are no other transitions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Job is one conversion request.
type Job struct {
	ID        string `gorm:"primaryKey"`
	Filename  string // original upload name
	Status    Status `gorm:"index"`
	Error     string // set on failure, "ErrorType: message"
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OpenDatabase opens (and migrates) the jobs database.
func OpenDatabase(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open jobs database: %w", err)
	}
	if err := db.AutoMigrate(&Job{}); err != nil {
		return nil, fmt.Errorf("migrate jobs database: %w", err)
	}
	return db, nil
}

// Repository provides job persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(job *Job) error {
	return r.db.Create(job).Error
}

// Get returns a job by ID, or gorm.ErrRecordNotFound.
func (r *Repository) Get(id string) (*Job, error) {
	var job Job
	if err := r.db.First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// List returns one page of jobs, newest first, plus the total count.
// page starts at 1; limit is clamped to MaxPageSize.
func (r *Repository) List(page, limit int) ([]Job, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var total int64
	if err := r.db.Model(&Job{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var out []Job
	err := r.db.
		Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&out).Error
	return out, total, err
}

func (r *Repository) setStatus(id string, status Status, errMsg string) error {
	return r.db.Model(&Job{}).
		Where("id = ?", id).
		Updates(map[string]any{"status": status, "error": errMsg}).Error
}

func (r *Repository) MarkProcessing(id string) error {
	return r.setStatus(id, StatusProcessing, "")
}

func (r *Repository) MarkCompleted(id string) error {
	return r.setStatus(id, StatusCompleted, "")
}

func (r *Repository) MarkFailed(id string, errMsg string) error {
	return r.setStatus(id, StatusFailed, errMsg)
}
