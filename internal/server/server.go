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

// Package server exposes the conversion job API over HTTP.
package server

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/markifyhq/markify/internal/jobs"
	"github.com/markifyhq/markify/internal/tasks"
)

// Server holds the API's dependencies.
type Server struct {
	Repo      *jobs.Repository
	Queue     *tasks.Client
	Converter *tasks.Converter
	UploadDir string
}

// NewRouter builds the gin router with all endpoints.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.GET("/health", s.health)

	api := router.Group("/api")
	{
		api.POST("/jobs", s.createJob)
		api.GET("/jobs", s.listJobs)
		api.GET("/jobs/:id", s.getJob)
		api.GET("/jobs/:id/result", s.getJobResult)
	}

	return router
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type jobResponse struct {
	JobID     string `json:"job_id"`
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toJobResponse(j *jobs.Job) jobResponse {
	return jobResponse{
		JobID:     j.ID,
		Filename:  j.Filename,
		Status:    string(j.Status),
		Error:     j.Error,
		CreatedAt: j.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt: j.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// createJob accepts a multipart upload and queues it for conversion. The
// response is 202: conversion happens asynchronously, poll the job status.
// Markdown uploads skip the queue since there is nothing to convert.
func (s *Server) createJob(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	jobID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))

	job := &jobs.Job{
		ID:       jobID,
		Filename: filepath.Base(fileHeader.Filename),
		Status:   jobs.StatusPending,
	}

	if ext == ".md" {
		if err := c.SaveUploadedFile(fileHeader, s.Converter.OutputPath(jobID)); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "storing upload failed"})
			return
		}
		job.Status = jobs.StatusCompleted
		if err := s.Repo.Create(job); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "creating job failed"})
			return
		}
		c.JSON(http.StatusAccepted, toJobResponse(job))
		return
	}

	uploadPath := filepath.Join(s.UploadDir, jobID+ext)
	if err := c.SaveUploadedFile(fileHeader, uploadPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "storing upload failed"})
		return
	}

	if err := s.Repo.Create(job); err != nil {
		os.Remove(uploadPath)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "creating job failed"})
		return
	}

	task := tasks.ConvertJobTask{
		JobID:      jobID,
		UploadPath: uploadPath,
		Filename:   job.Filename,
	}
	if _, err := s.Queue.Add(task).Ctx(c.Request.Context()).Save(); err != nil {
		s.Repo.MarkFailed(jobID, "queue error: could not enqueue conversion")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "enqueuing job failed"})
		return
	}

	c.JSON(http.StatusAccepted, toJobResponse(job))
}

func (s *Server) listJobs(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(jobs.DefaultPageSize)))

	list, total, err := s.Repo.List(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "listing jobs failed"})
		return
	}

	out := make([]jobResponse, 0, len(list))
	for i := range list {
		out = append(out, toJobResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  out,
		"total": total,
		"page":  page,
	})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.Repo.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading job failed"})
		return
	}
	c.JSON(http.StatusOK, toJobResponse(job))
}

// getJobResult serves the converted markdown. Before completion the answer
// is 425 Too Early; a failed job yields 409 with the recorded error.
func (s *Server) getJobResult(c *gin.Context) {
	job, err := s.Repo.Get(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "loading job failed"})
		return
	}

	switch job.Status {
	case jobs.StatusCompleted:
		c.FileAttachment(s.Converter.OutputPath(job.ID), job.ID+".md")
	case jobs.StatusFailed:
		c.JSON(http.StatusConflict, gin.H{"error": job.Error})
	default:
		c.JSON(http.StatusTooEarly, gin.H{"error": "conversion not finished"})
	}
}
