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
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/gorse-io/evaluate/evaluator"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the configuration of an evaluation run.
type Config struct {
	Data     DataConfig     `mapstructure:"data"`
	Evaluate EvaluateConfig `mapstructure:"evaluate"`
	Output   OutputConfig   `mapstructure:"output"`
}

// DataConfig locates recommendation and ground truth files.
type DataConfig struct {
	InterimDir string `mapstructure:"interim_dir" validate:"required"`
	RawDir     string `mapstructure:"raw_dir" validate:"required"`
	// TestFile is formatted with the one-based fold number.
	TestFile string `mapstructure:"test_file" validate:"required,contains=%d"`
}

type EvaluateConfig struct {
	Model              string   `mapstructure:"model" validate:"required"`
	TopK               int      `mapstructure:"top_k" validate:"gt=0"`
	Folds              int      `mapstructure:"folds" validate:"gt=0"`
	Metrics            []string `mapstructure:"metrics" validate:"min=1,dive,metric"`
	DivideByAchievable bool     `mapstructure:"divide_by_achievable"`
	Jobs               int      `mapstructure:"jobs" validate:"gte=1"`
}

type OutputConfig struct {
	Format string `mapstructure:"format" validate:"oneof=text table json"`
}

// TestPath returns the path of the test split of a one-based fold.
func (c *DataConfig) TestPath(fold int) string {
	return filepath.Join(c.RawDir, fmt.Sprintf(c.TestFile, fold))
}

func GetDefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			InterimDir: "data/interim",
			RawDir:     "data/raw/ml-100k",
			TestFile:   "u%d.test",
		},
		Evaluate: EvaluateConfig{
			Model:   "light-fm-wrapper-model",
			TopK:    10,
			Folds:   5,
			Metrics: []string{evaluator.NamePrecision, evaluator.NameNDCG},
			Jobs:    1,
		},
		Output: OutputConfig{
			Format: "text",
		},
	}
}

func (config *Config) Validate() error {
	validate := validator.New()
	if err := validate.RegisterValidation("metric", func(fl validator.FieldLevel) bool {
		return lo.Contains(evaluator.Names, fl.Field().String())
	}); err != nil {
		return errors.Trace(err)
	}
	if err := validate.Struct(config); err != nil {
		return errors.NotValidf("config (%v)", err)
	}
	return nil
}

func setDefault(v *viper.Viper) {
	defaultConfig := GetDefaultConfig()
	// [data]
	v.SetDefault("data.interim_dir", defaultConfig.Data.InterimDir)
	v.SetDefault("data.raw_dir", defaultConfig.Data.RawDir)
	v.SetDefault("data.test_file", defaultConfig.Data.TestFile)
	// [evaluate]
	v.SetDefault("evaluate.model", defaultConfig.Evaluate.Model)
	v.SetDefault("evaluate.top_k", defaultConfig.Evaluate.TopK)
	v.SetDefault("evaluate.folds", defaultConfig.Evaluate.Folds)
	v.SetDefault("evaluate.metrics", defaultConfig.Evaluate.Metrics)
	v.SetDefault("evaluate.divide_by_achievable", defaultConfig.Evaluate.DivideByAchievable)
	v.SetDefault("evaluate.jobs", defaultConfig.Evaluate.Jobs)
	// [output]
	v.SetDefault("output.format", defaultConfig.Output.Format)
}

type binding struct {
	key    string
	env    string
	flag   string
	usage  string
	define func(flagSet *pflag.FlagSet, name, usage string)
}

var bindings = []binding{
	{"data.interim_dir", "GORSE_EVAL_INTERIM_DIR", "interim-dir", "directory of recommendation files", defineString},
	{"data.raw_dir", "GORSE_EVAL_RAW_DIR", "raw-dir", "directory of MovieLens-100k splits", defineString},
	{"data.test_file", "GORSE_EVAL_TEST_FILE", "test-file", "file name of test splits, %d is replaced by the fold", defineString},
	{"evaluate.model", "GORSE_EVAL_MODEL", "model", "name of the evaluated model", defineString},
	{"evaluate.top_k", "GORSE_EVAL_TOP_K", "top-k", "cutoff of ranking metrics", defineInt},
	{"evaluate.folds", "GORSE_EVAL_FOLDS", "folds", "number of cross validation folds", defineInt},
	{"evaluate.metrics", "GORSE_EVAL_METRICS", "metrics", "metrics to report", defineStringSlice},
	{"evaluate.divide_by_achievable", "GORSE_EVAL_DIVIDE_BY_ACHIEVABLE", "divide-by-achievable", "normalize NDCG by the achievable ideal ranking", defineBool},
	{"evaluate.jobs", "GORSE_EVAL_JOBS", "jobs", "number of evaluation workers", defineInt},
	{"output.format", "GORSE_EVAL_FORMAT", "format", "report format: text, table or json", defineString},
}

func defineString(flagSet *pflag.FlagSet, name, usage string) {
	flagSet.String(name, "", usage)
}

func defineInt(flagSet *pflag.FlagSet, name, usage string) {
	flagSet.Int(name, 0, usage)
}

func defineBool(flagSet *pflag.FlagSet, name, usage string) {
	flagSet.Bool(name, false, usage)
}

func defineStringSlice(flagSet *pflag.FlagSet, name, usage string) {
	flagSet.StringSlice(name, nil, usage)
}

// AddFlags defines a flag for every configuration key. A flag overrides the
// configuration only when it is set explicitly.
func AddFlags(flagSet *pflag.FlagSet) {
	for _, b := range bindings {
		b.define(flagSet, b.flag, b.usage)
	}
}

// LoadConfig loads the configuration. Precedence from low to high: defaults,
// the TOML file at path (skipped if path is empty), environment variables and
// flags changed in flagSet (which may be nil).
func LoadConfig(path string, flagSet *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefault(v)
	for _, b := range bindings {
		if err := v.BindEnv(b.key, b.env); err != nil {
			return nil, errors.Trace(err)
		}
		if flagSet == nil {
			continue
		}
		if flag := flagSet.Lookup(b.flag); flag != nil && flag.Changed {
			if err := v.BindPFlag(b.key, flag); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Annotatef(err, "failed to read config %s", path)
		}
	}
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Trace(err)
	}
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	return &config, nil
}
