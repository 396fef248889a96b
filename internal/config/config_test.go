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

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	cfg := New()

	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.EqualValues(t, 8843, cfg.HTTP.Port)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "./markify.db", cfg.Storage.DatabasePath)
	assert.Equal(t, "./uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "./output", cfg.Storage.OutputDir)
	assert.Equal(t, "simple", cfg.Conversion.Mode)
	assert.Equal(t, 2, cfg.Tasks.Workers)
	assert.Equal(t, 15*time.Minute, cfg.Tasks.ReleaseAfter)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("MARKIFY_PORT", "9000")
	t.Setenv("MARKIFY_MODE", "advanced")
	t.Setenv("MARKIFY_LLM_API_KEY", "secret")
	t.Setenv("MARKIFY_TASK_WORKERS", "8")
	t.Setenv("MARKIFY_SHUTDOWN_TIMEOUT", "30s")

	cfg := New()

	assert.EqualValues(t, 9000, cfg.HTTP.Port)
	assert.Equal(t, "advanced", cfg.Conversion.Mode)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 8, cfg.Tasks.Workers)
	assert.Equal(t, 30*time.Second, cfg.HTTP.ShutdownTimeout)
}
