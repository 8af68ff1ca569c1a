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

package benchmark

import (
	"context"
	"io"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/gorse-io/evaluate/common/log"
	"github.com/gorse-io/evaluate/config"
	"github.com/gorse-io/evaluate/dataset"
	"github.com/gorse-io/evaluate/evaluator"
	"github.com/gorse-io/evaluate/report"
	"github.com/juju/errors"
	"github.com/samber/lo"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

// Benchmark evaluates the recommendations of a model on every fold.
type Benchmark struct {
	Config *config.Config

	Registry        *dataset.Registry
	Recommendations []*dataset.Recommendations
	Tests           []*dataset.Interactions

	progress  io.Writer
	evaluated atomic.Int64
}

type Option func(*Benchmark)

// WithProgress renders a progress bar to w while loading recommendations.
func WithProgress(w io.Writer) Option {
	return func(b *Benchmark) {
		b.progress = w
	}
}

func New(cfg *config.Config, opts ...Option) *Benchmark {
	b := &Benchmark{Config: cfg}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Load reads recommendations of the configured model and test splits of every
// fold. It fails if a fold of the model is missing.
func (b *Benchmark) Load(ctx context.Context) error {
	start := time.Now()
	var loadOptions []dataset.LoadOption
	if b.progress != nil {
		loadOptions = append(loadOptions, dataset.WithProgress(b.progress))
	}
	registry, err := dataset.LoadRecommendations(b.Config.Data.InterimDir, loadOptions...)
	if err != nil {
		return errors.Annotatef(err, "failed to load recommendations from %s", b.Config.Data.InterimDir)
	}
	log.Logger().Info("load recommendations",
		zap.String("dir", b.Config.Data.InterimDir),
		zap.Strings("models", registry.Models()),
		zap.Duration("elapsed", time.Since(start)))
	recommendations, err := registry.Folds(b.Config.Evaluate.Model, b.Config.Evaluate.Folds)
	if err != nil {
		return errors.Trace(err)
	}

	tests := make([]*dataset.Interactions, b.Config.Evaluate.Folds)
	for i := range tests {
		if err = ctx.Err(); err != nil {
			return errors.Trace(err)
		}
		path := b.Config.Data.TestPath(i + 1)
		tests[i], err = dataset.LoadMovieLens(path, dataset.SplitTest)
		if err != nil {
			return errors.Annotatef(err, "failed to load test split of fold %d", i+1)
		}
		log.Logger().Debug("load test split",
			zap.Int("fold", i+1),
			zap.String("path", path),
			zap.Int("interactions", tests[i].Count()))
		checkOverlap(i+1, recommendations[i], tests[i])
	}
	b.Registry, b.Recommendations, b.Tests = registry, recommendations, tests
	return nil
}

// checkOverlap warns if none of the recommended users occurs in the test split,
// which usually means files of different folds are paired.
func checkOverlap(fold int, reco *dataset.Recommendations, test *dataset.Interactions) {
	if reco.Count() == 0 || test.Count() == 0 {
		return
	}
	testUsers := mapset.NewThreadUnsafeSet(test.Users...)
	if !lo.ContainsBy(reco.Users, testUsers.ContainsOne) {
		log.Logger().Warn("no recommended user occurs in the test split",
			zap.Int("fold", fold),
			zap.Int("recommendations", reco.Count()),
			zap.Int("interactions", test.Count()))
	}
}

// Metrics creates the configured metrics.
func (b *Benchmark) Metrics() ([]evaluator.Metric, error) {
	metrics := make([]evaluator.Metric, 0, len(b.Config.Evaluate.Metrics))
	for _, name := range b.Config.Evaluate.Metrics {
		metric, err := evaluator.NewMetric(name, b.Config.Evaluate.TopK,
			evaluator.WithDivideByAchievable(b.Config.Evaluate.DivideByAchievable))
		if err != nil {
			return nil, errors.Trace(err)
		}
		metrics = append(metrics, &countingMetric{Metric: metric, counter: &b.evaluated})
	}
	return metrics, nil
}

// Evaluate scores the loaded folds.
func (b *Benchmark) Evaluate(ctx context.Context) ([]evaluator.Result, error) {
	if b.Tests == nil {
		return nil, errors.New("benchmark is not loaded")
	}
	metrics, err := b.Metrics()
	if err != nil {
		return nil, errors.Trace(err)
	}
	folds := lo.Map(b.Tests, func(test *dataset.Interactions, i int) evaluator.Fold {
		return evaluator.Fold{Recommendations: b.Recommendations[i], Interactions: test}
	})
	start := time.Now()
	results, err := evaluator.CrossValidate(ctx, folds, metrics, b.Config.Evaluate.Jobs)
	if err != nil {
		return nil, errors.Trace(err)
	}
	log.Logger().Info("evaluate recommendations",
		zap.String("model", b.Config.Evaluate.Model),
		zap.Int("folds", len(folds)),
		zap.Int64("evaluated", b.evaluated.Load()),
		zap.Duration("elapsed", time.Since(start)))
	return results, nil
}

// Run loads, evaluates and reports to w.
func (b *Benchmark) Run(ctx context.Context, w io.Writer) error {
	reporter, err := report.NewReporter(b.Config.Output.Format)
	if err != nil {
		return errors.Trace(err)
	}
	if err = b.Load(ctx); err != nil {
		return errors.Trace(err)
	}
	results, err := b.Evaluate(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(reporter.Report(w, results))
}

type countingMetric struct {
	evaluator.Metric
	counter *atomic.Int64
}

func (m *countingMetric) Score(reco *dataset.Recommendations, interactions *dataset.Interactions) float32 {
	score := m.Metric.Score(reco, interactions)
	m.counter.Inc()
	log.Logger().Debug("score fold", zap.String("metric", m.Name()), zap.Float32("score", score))
	return score
}
