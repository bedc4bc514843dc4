/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pingtower/grafana-gen/pkg/logger"
)

type nestedConfig struct {
	Host  string `json:"host"`
	Limit *int   `json:"limit,omitempty"`
}

type sampleConfig struct {
	Name    string            `json:"name"`
	Port    int               `json:"port"`
	Enabled bool              `json:"enabled"`
	Delay   time.Duration     `json:"delay"`
	Timeout Duration          `json:"timeout"`
	Tags    []string          `json:"tags"`
	Headers map[string]string `json:"headers"`
	Nested  nestedConfig      `json:"nested"`
	Opt     *nestedConfig     `json:"opt"`
	Ignored string            `json:"-"`
	hidden  string
}

func TestEnvConfigLoaderOverridesFields(t *testing.T) {
	t.Setenv("TEST_NAME", "grafana-gen")
	t.Setenv("TEST_PORT", "5673")
	t.Setenv("TEST_ENABLED", "true")
	t.Setenv("TEST_DELAY", "2s")
	t.Setenv("TEST_TIMEOUT", "1m")
	t.Setenv("TEST_TAGS", "a, b")
	t.Setenv("TEST_HEADERS", `{"k":"v"}`)
	t.Setenv("TEST_NESTED_HOST", "rabbit")
	t.Setenv("TEST_NESTED_LIMIT", "5")
	t.Setenv("TEST_OPT_HOST", "nats")
	t.Setenv("TEST_IGNORED", "nope")

	cfg := sampleConfig{Name: "default", Port: 5672, hidden: "keep"}

	loader := NewEnvConfigLoader(logger.NewTestLogger(), "TEST_")
	require.NoError(t, loader.Load(context.Background(), "", &cfg))

	assert.Equal(t, "grafana-gen", cfg.Name)
	assert.Equal(t, 5673, cfg.Port)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2*time.Second, cfg.Delay)
	assert.Equal(t, Duration(time.Minute), cfg.Timeout)
	assert.Equal(t, []string{"a", "b"}, cfg.Tags)
	assert.Equal(t, map[string]string{"k": "v"}, cfg.Headers)
	assert.Equal(t, "rabbit", cfg.Nested.Host)
	require.NotNil(t, cfg.Nested.Limit)
	assert.Equal(t, 5, *cfg.Nested.Limit)
	require.NotNil(t, cfg.Opt)
	assert.Equal(t, "nats", cfg.Opt.Host)
	assert.Empty(t, cfg.Ignored)
	assert.Equal(t, "keep", cfg.hidden)
}

func TestEnvConfigLoaderKeepsDefaultsWhenUnset(t *testing.T) {
	cfg := sampleConfig{Name: "default", Port: 5672, Delay: 5 * time.Second}

	loader := NewEnvConfigLoader(nil, "UNSET_PREFIX_FOR_TEST_")
	require.NoError(t, loader.Load(context.Background(), "", &cfg))

	assert.Equal(t, "default", cfg.Name)
	assert.Equal(t, 5672, cfg.Port)
	assert.Equal(t, 5*time.Second, cfg.Delay)
}

func TestEnvConfigLoaderReportsInvalidValues(t *testing.T) {
	t.Setenv("BAD_PORT", "five")
	t.Setenv("BAD_TIMEOUT", "soon")
	t.Setenv("BAD_NAME", "still-loaded")

	cfg := sampleConfig{}

	err := NewEnvConfigLoader(nil, "BAD_").Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "BAD_PORT")
	assert.ErrorContains(t, err, "BAD_TIMEOUT")
	assert.Equal(t, "still-loaded", cfg.Name)
}

func TestEnvConfigLoaderConfigJSON(t *testing.T) {
	t.Setenv("JSON_CONFIG_JSON", `{"name":"from-json","timeout":"3s"}`)
	t.Setenv("JSON_NAME", "ignored")

	cfg := sampleConfig{Port: 1}

	require.NoError(t, NewEnvConfigLoader(nil, "JSON_").Load(context.Background(), "", &cfg))

	assert.Equal(t, "from-json", cfg.Name)
	assert.Equal(t, Duration(3*time.Second), cfg.Timeout)
	assert.Equal(t, 1, cfg.Port)
}

func TestEnvConfigLoaderRejectsBadDestination(t *testing.T) {
	loader := NewEnvConfigLoader(nil, "")

	var cfg sampleConfig

	require.ErrorIs(t, loader.Load(context.Background(), "", cfg), ErrDstMustBeNonNilPointer)

	name := "x"
	require.ErrorIs(t, loader.Load(context.Background(), "", &name), ErrDstMustBePointerToStruct)
}
