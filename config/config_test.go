// Copyright 2026 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/juju/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnmarshal(t *testing.T) {
	config, err := LoadConfig("config.toml.template", nil)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestSetDefault(t *testing.T) {
	config, err := LoadConfig("", nil)
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
	assert.Equal(t, filepath.Join("data", "raw", "ml-100k", "u3.test"), config.Data.TestPath(3))
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[evaluate]
model = "bpr"
top_k = 5
metrics = ["recall", "map"]
[output]
format = "table"
`), 0644))
	config, err := LoadConfig(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "bpr", config.Evaluate.Model)
	assert.Equal(t, 5, config.Evaluate.TopK)
	assert.Equal(t, []string{"recall", "map"}, config.Evaluate.Metrics)
	assert.Equal(t, "table", config.Output.Format)
	// untouched keys keep defaults
	assert.Equal(t, 5, config.Evaluate.Folds)
	assert.Equal(t, "data/interim", config.Data.InterimDir)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.Error(t, err)
}

func TestBindEnv(t *testing.T) {
	t.Setenv("GORSE_EVAL_INTERIM_DIR", "<interim_dir>")
	t.Setenv("GORSE_EVAL_RAW_DIR", "<raw_dir>")
	t.Setenv("GORSE_EVAL_MODEL", "<model>")
	t.Setenv("GORSE_EVAL_TOP_K", "20")
	t.Setenv("GORSE_EVAL_JOBS", "4")
	t.Setenv("GORSE_EVAL_FORMAT", "json")

	config, err := LoadConfig("config.toml.template", nil)
	require.NoError(t, err)
	assert.Equal(t, "<interim_dir>", config.Data.InterimDir)
	assert.Equal(t, "<raw_dir>", config.Data.RawDir)
	assert.Equal(t, "<model>", config.Evaluate.Model)
	assert.Equal(t, 20, config.Evaluate.TopK)
	assert.Equal(t, 4, config.Evaluate.Jobs)
	assert.Equal(t, "json", config.Output.Format)
}

func TestBindFlags(t *testing.T) {
	t.Setenv("GORSE_EVAL_MODEL", "<model>")
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flagSet)
	require.NoError(t, flagSet.Parse([]string{"--model", "als", "--folds", "3", "--metrics", "hr,mrr", "--divide-by-achievable"}))

	config, err := LoadConfig("", flagSet)
	require.NoError(t, err)
	assert.Equal(t, "als", config.Evaluate.Model)
	assert.Equal(t, 3, config.Evaluate.Folds)
	assert.Equal(t, []string{"hr", "mrr"}, config.Evaluate.Metrics)
	assert.True(t, config.Evaluate.DivideByAchievable)
	// unchanged flags do not override defaults
	assert.Equal(t, 10, config.Evaluate.TopK)
	assert.Equal(t, "text", config.Output.Format)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, GetDefaultConfig().Validate())
	for name, mutate := range map[string]func(*Config){
		"top_k":     func(c *Config) { c.Evaluate.TopK = 0 },
		"folds":     func(c *Config) { c.Evaluate.Folds = -1 },
		"jobs":      func(c *Config) { c.Evaluate.Jobs = 0 },
		"model":     func(c *Config) { c.Evaluate.Model = "" },
		"metrics":   func(c *Config) { c.Evaluate.Metrics = nil },
		"metric":    func(c *Config) { c.Evaluate.Metrics = []string{"precision", "auc"} },
		"format":    func(c *Config) { c.Output.Format = "csv" },
		"test_file": func(c *Config) { c.Data.TestFile = "u.test" },
	} {
		config := GetDefaultConfig()
		mutate(config)
		err := config.Validate()
		assert.True(t, errors.Is(err, errors.NotValid), name)
	}
}
