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

// Package config loads service configuration from MARKIFY_* environment
// variables.
package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Storage
		Conversion
		LLM
		Tasks
	}

	HTTP struct {
		Host string
		Port int32

		ShutdownTimeout time.Duration
	}

	Storage struct {
		DatabasePath string
		UploadDir    string // incoming files, one per job
		OutputDir    string // converted markdown, <job id>.md
	}

	Conversion struct {
		Mode         string // simple, advanced or cloud
		ExiftoolPath string
	}

	LLM struct {
		APIKey string
		Base   string // optional endpoint override
		Model  string
	}

	Tasks struct {
		Workers         int
		ReleaseAfter    time.Duration
		CleanupInterval time.Duration
	}
)

// New reads the environment. Every key is prefixed MARKIFY_, e.g.
// MARKIFY_PORT or MARKIFY_LLM_API_KEY.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("MARKIFY")
	v.AutomaticEnv()

	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 8843)
	v.SetDefault("shutdown_timeout", "10s")

	v.SetDefault("database_path", "./markify.db")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("output_dir", "./output")

	v.SetDefault("mode", "simple")
	v.SetDefault("exiftool_path", "")

	v.SetDefault("llm_api_key", "")
	v.SetDefault("llm_base", "")
	v.SetDefault("llm_model", "")

	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Host:            v.GetString("host"),
			Port:            v.GetInt32("port"),
			ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		},
		Storage: Storage{
			DatabasePath: v.GetString("database_path"),
			UploadDir:    v.GetString("upload_dir"),
			OutputDir:    v.GetString("output_dir"),
		},
		Conversion: Conversion{
			Mode:         v.GetString("mode"),
			ExiftoolPath: v.GetString("exiftool_path"),
		},
		LLM: LLM{
			APIKey: v.GetString("llm_api_key"),
			Base:   v.GetString("llm_base"),
			Model:  v.GetString("llm_model"),
		},
		Tasks: Tasks{
			Workers:         v.GetInt("task_workers"),
			ReleaseAfter:    v.GetDuration("task_release_after"),
			CleanupInterval: v.GetDuration("task_cleanup_interval"),
		},
	}
}
